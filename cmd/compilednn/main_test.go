// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/nn/layers"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagImageInput(t *testing.T) {
	// A model with no inputs is reported as an error, not a panic.
	constant := nn.NewModel("constant")
	assert.NotPanics(t, func() {
		err := flagImageInput(constant)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no inputs")
	})

	m := nn.NewModel("image")
	x := must.M1(m.AddInput(layers.NewInput("x", 4, 4, 3)))
	m.SetOutputs(must.M1(m.Apply(layers.NewIdentity("y"), x)))
	require.NoError(t, flagImageInput(m))
	assert.True(t, m.IsInputUInt8(0))
}
