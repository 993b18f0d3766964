// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package interpreter

import (
	"path/filepath"
	"testing"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/gomlx/compilednn/pkg/nn/layers"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildModel builds (x -> dense -> permute) and (x * 2 via add(x, x)).
func buildModel(t *testing.T) *nn.Model {
	m := nn.NewModel("interpreted")
	x := must.M1(m.AddInput(layers.NewInput("x", 2, 2)))
	weights := must.M1(tensors.FromData([]int{2, 3}, []float32{1, 0, 1, 0, 1, 1}))
	dense := must.M1(m.Apply(layers.NewDense("dense", weights, nil, layers.ActivationLinear), x))
	permuted := must.M1(m.Apply(layers.NewPermute("permute", 2, 1), dense))
	doubled := must.M1(m.Apply(layers.NewMerge("add", layers.MergeAdd), x, x))
	m.SetOutputs(permuted, doubled)
	require.NoError(t, m.ResolveShapes())
	return m
}

func TestApply(t *testing.T) {
	m := buildModel(t)
	x := must.M1(tensors.FromData([]int{2, 2}, []float32{1, 2, 3, 4}))
	doubled := tensors.New(7)
	outputs := []*tensors.Tensor{nil, doubled}

	var visited []string
	callback := func(node *nn.Node, inputs, outputs []*tensors.Tensor) {
		visited = append(visited, node.Layer.Name())
		require.Len(t, outputs, 1)
		assert.True(t, outputs[0].EqualDims(node.OutputDimensions[0]), "node %s", node)
	}
	require.NoError(t, Apply([]*tensors.Tensor{x}, outputs, m, callback))
	assert.Equal(t, []string{"x", "dense", "permute", "add"}, visited)

	// dense: [[1, 2, 3], [3, 4, 7]], permuted to [3, 2].
	require.NotNil(t, outputs[0])
	assert.Equal(t, []int{3, 2}, outputs[0].Dims())
	assert.Equal(t, []float32{1, 3, 2, 4, 3, 7}, outputs[0].Data())
	assert.Same(t, doubled, outputs[1])
	assert.Equal(t, []int{2, 2}, doubled.Dims())
	assert.Equal(t, []float32{2, 4, 6, 8}, doubled.Data())

	// Input unchanged.
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())
}

func TestApplyArguments(t *testing.T) {
	m := buildModel(t)
	called := false
	callback := func(*nn.Node, []*tensors.Tensor, []*tensors.Tensor) { called = true }

	err := Apply(nil, make([]*tensors.Tensor, 2), m, callback)
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	err = Apply([]*tensors.Tensor{tensors.New(2, 2)}, make([]*tensors.Tensor, 1), m, callback)
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	err = Apply([]*tensors.Tensor{nil}, make([]*tensors.Tensor, 2), m, callback)
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	err = Apply([]*tensors.Tensor{tensors.New(4)}, make([]*tensors.Tensor, 2), m, callback)
	assert.True(t, errors.Is(err, nnerrors.ErrShape))
	assert.False(t, called, "no node should be evaluated with invalid arguments")
}

func TestApplyUInt8(t *testing.T) {
	m := nn.NewModel("uint8")
	x := must.M1(m.AddInput(layers.NewInput("x", 3)))
	y := must.M1(m.Apply(layers.NewActivation("linear", layers.ActivationLinear), x))
	m.SetOutputs(y)
	require.NoError(t, m.SetInputUInt8(0, true))

	input := tensors.New(3)
	copy(input.Uint8Data(), []byte{0, 128, 255})
	outputs := make([]*tensors.Tensor, 1)
	err := Apply([]*tensors.Tensor{input}, outputs, m, nil)
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))

	raw := input.Clone()
	require.NoError(t, Apply([]*tensors.Tensor{input}, outputs, m, nil, WithUInt8Inputs(nn.UInt8InputsConvertInRoutine)))
	assert.Equal(t, []float32{0, 128, 255}, outputs[0].Data())
	assert.Equal(t, raw.Data(), input.Data(), "input tensor must not be changed")

	input.Data()[1] = 0.5
	require.NoError(t, Apply([]*tensors.Tensor{input}, outputs, m, nil, WithUInt8Inputs(nn.UInt8InputsPreConverted)))
	assert.Equal(t, float32(0.5), outputs[0].Data()[1])
}

func TestApplyNodeAndFile(t *testing.T) {
	m := buildModel(t)
	id, _ := m.LayerByName("permute")
	node := m.Nodes(id)[0]
	input := must.M1(tensors.FromData([]int{2, 3}, []float32{1, 2, 3, 4, 5, 6}))
	outputs := make([]*tensors.Tensor, 1)
	require.NoError(t, ApplyNode([]*tensors.Tensor{input}, outputs, node))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, outputs[0].Data())

	unresolved := node.Clone()
	unresolved.InputDimensions = nil
	err := ApplyNode([]*tensors.Tensor{input}, outputs, unresolved)
	assert.True(t, errors.Is(err, nnerrors.ErrShape))

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))
	x := must.M1(tensors.FromData([]int{2, 2}, []float32{1, 2, 3, 4}))
	results := make([]*tensors.Tensor, 2)
	numNodes := 0
	require.NoError(t, ApplyFile([]*tensors.Tensor{x}, results, path, func(*nn.Node, []*tensors.Tensor, []*tensors.Tensor) { numNodes++ }))
	assert.Equal(t, 4, numNodes)
	assert.Equal(t, []float32{2, 4, 6, 8}, results[1].Data())

	err = ApplyFile([]*tensors.Tensor{x}, results, filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.True(t, errors.Is(err, nnerrors.ErrLoad))
}
