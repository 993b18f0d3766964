// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package polymorphicjson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape interface {
	JSONIdentifiable
	Area() float64
}

type square struct {
	Side float64 `json:"side"`
}

func (s *square) JSONTags() (string, string) { return "square", "shape" }
func (s *square) Area() float64              { return s.Side * s.Side }

type rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r *rect) JSONTags() (string, string) { return "rect", "shape" }
func (r *rect) Area() float64              { return r.Width * r.Height }

func init() {
	Register(func() shape { return &square{} })
	Register(func() shape { return &rect{} })
}

type drawing struct {
	Name   string           `json:"name"`
	Shapes []Wrapper[shape] `json:"shapes"`
	Main   Wrapper[shape]   `json:"main"`
}

func TestRoundTrip(t *testing.T) {
	d := drawing{
		Name:   "d",
		Shapes: []Wrapper[shape]{Wrap[shape](&square{Side: 2}), Wrap[shape](&rect{Width: 2, Height: 3})},
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"json_type":"square"`)
	assert.Contains(t, string(data), `"interface_name":"shape"`)
	assert.Contains(t, string(data), `"main":null`)

	var got drawing
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Shapes, 2)
	assert.Equal(t, 4.0, got.Shapes[0].Get().Area())
	assert.Equal(t, 6.0, got.Shapes[1].Get().Area())
	assert.Nil(t, got.Main.Value)
	assert.Equal(t, []string{"rect", "square"}, RegisteredTypes("shape"))
}

func TestUnmarshalErrors(t *testing.T) {
	var s shape
	err := UnmarshalPolymorphic([]byte(`{"json_type":"circle","interface_name":"shape"}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown concrete type")

	err = UnmarshalPolymorphic([]byte(`{"json_type":"square","interface_name":"polygon"}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	err = UnmarshalPolymorphic([]byte(`{"json_type":"square","interface_name":"shape","side":"x"}`), &s)
	require.Error(t, err)

	err = UnmarshalPolymorphic([]byte(`[1,2]`), &s)
	require.Error(t, err)
}
