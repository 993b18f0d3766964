// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := Make[int](10)
	assert.Len(t, s, 0)

	s.Insert(3, 7)
	assert.Len(t, s, 2)
	assert.True(t, s.Has(3))
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(5))

	assert.True(t, s.InsertNew(5))
	assert.False(t, s.InsertNew(5))
	assert.Len(t, s, 3)

	words := MakeWith("b", "a", "b")
	assert.Len(t, words, 2)
	assert.True(t, words.Has("a"))
	assert.False(t, MakeWith[string]().Has("a"))
}
