// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
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

// buildResidualModel builds x -> dense -> relu -> add(relu, x), with a dense layer shared by two nodes.
func buildResidualModel(t *testing.T) *nn.Model {
	m := nn.NewModel("residual")
	x := must.M1(m.AddInput(layers.NewInput("x", 4)))
	weights := must.M1(tensors.FromData([]int{4, 4}, []float32{
		1, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 3, 0,
		0, 0, 0, 4,
	}))
	denseID := m.AddLayer(layers.NewDense("dense", weights, nil, layers.ActivationLinear))
	dense0 := must.M1(m.AddNode(denseID, x))
	relu := must.M1(m.Apply(layers.NewReLU("relu"), dense0.Outputs[0]))
	dense1 := must.M1(m.AddNode(denseID, relu))
	sum := must.M1(m.Apply(layers.NewMerge("add", layers.MergeAdd), dense1.Outputs[0], x))
	m.SetOutputs(sum)
	require.NoError(t, m.ResolveShapes())
	return m
}

func TestModelBuilding(t *testing.T) {
	m := buildResidualModel(t)
	assert.Equal(t, 4, m.NumLayers())
	assert.Equal(t, 5, m.NumNodes())
	assert.Equal(t, 1, m.NumInputs())
	assert.Equal(t, 1, m.NumOutputs())
	assert.Equal(t, 16, m.NumParameters())

	id, found := m.LayerByName("dense")
	require.True(t, found)
	nodes := m.Nodes(id)
	require.Len(t, nodes, 2)
	assert.Equal(t, 1, nodes[1].Index)
	assert.Same(t, nodes[0].Layer, nodes[1].Layer)
	assert.Equal(t, nn.TensorLocation{Layer: id, NodeIndex: 1, TensorIndex: 0}, nodes[1].Outputs[0])
	assert.Equal(t, "Dense(dense)#1", nodes[1].String())
	assert.Equal(t, [][]int{{4}}, nodes[1].OutputDimensions)

	_, found = m.LayerByName("missing")
	assert.False(t, found)
	_, err := m.AddNode(nn.LayerID(42))
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	_, err = m.Node(nn.TensorLocation{Layer: id, NodeIndex: 2})
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	_, err = m.Node(nn.TensorLocation{Layer: id, NodeIndex: 0, TensorIndex: 1})
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))
	_, err = m.AddInput(layers.NewIdentity("not an input"))
	assert.True(t, errors.Is(err, nnerrors.ErrArgument))

	assert.NoError(t, m.SetInputUInt8(0, true))
	assert.True(t, m.IsInputUInt8(0))
	assert.True(t, m.HasUInt8Inputs())
	assert.False(t, m.IsInputUInt8(1))
	assert.True(t, errors.Is(m.SetInputUInt8(1, true), nnerrors.ErrArgument))

	m.Clear()
	assert.Equal(t, 0, m.NumLayers())
	assert.Equal(t, 0, m.NumNodes())
}

func TestTensorLocation(t *testing.T) {
	a := nn.TensorLocation{Layer: 1, NodeIndex: 2, TensorIndex: 0}
	b := nn.TensorLocation{Layer: 1, NodeIndex: 2, TensorIndex: 0}
	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.NotEqual(t, a, nn.TensorLocation{Layer: 1, NodeIndex: 2, TensorIndex: 1})
	assert.Equal(t, "[1,2,0]", a.String())

	data := must.M1(json.Marshal(a))
	assert.Equal(t, "[1,2,0]", string(data))
	var loaded nn.TensorLocation
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, a, loaded)
	assert.Error(t, json.Unmarshal([]byte("[1,2]"), &loaded))
}

func TestKind(t *testing.T) {
	assert.Equal(t, "Conv2D", nn.KindConv2D.String())
	assert.Equal(t, "Kind(99)", nn.Kind(99).String())
	assert.False(t, nn.Kind(99).IsAKind())
	for _, kind := range nn.KindValues() {
		parsed, err := nn.KindString(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	kind, err := nn.KindString("depthwiseconv2d")
	require.NoError(t, err)
	assert.Equal(t, nn.KindDepthwiseConv2D, kind)
	_, err = nn.KindString("Conv3D")
	assert.Error(t, err)

	mode, err := nn.UInt8InputModeString("convert_in_routine")
	require.NoError(t, err)
	assert.Equal(t, nn.UInt8InputsConvertInRoutine, mode)
	data := must.M1(json.Marshal(nn.UInt8InputsPreConverted))
	assert.Equal(t, `"pre_converted"`, string(data))
	require.NoError(t, json.Unmarshal([]byte(`"unspecified"`), &mode))
	assert.Equal(t, nn.UInt8InputsUnspecified, mode)
}

func TestExecutionOrder(t *testing.T) {
	// Two independent branches: nodes ready at the same time run in insertion order.
	m := nn.NewModel("branches")
	x := must.M1(m.AddInput(layers.NewInput("x", 3)))
	b := must.M1(m.Apply(layers.NewReLU("b"), x))
	a := must.M1(m.Apply(layers.NewLeakyReLU("a", 0.1), x))
	c := must.M1(m.Apply(layers.NewMerge("c", layers.MergeMultiply), a, b))
	m.SetOutputs(c)

	order, err := m.ExecutionOrder()
	require.NoError(t, err)
	var names []string
	for _, node := range order {
		names = append(names, node.Layer.Name())
	}
	assert.Equal(t, []string{"x", "b", "a", "c"}, names)

	// Same result every time.
	for range 5 {
		again, err := m.ExecutionOrder()
		require.NoError(t, err)
		assert.Equal(t, order, again)
	}

	// A node added before its producers is scheduled after them.
	m2 := nn.NewModel("out of order")
	sinkID := m2.AddLayer(layers.NewIdentity("sink"))
	x2 := must.M1(m2.AddInput(layers.NewInput("x", 3)))
	sink := must.M1(m2.AddNode(sinkID, x2))
	m2.SetOutputs(sink.Outputs[0])
	order, err = m2.ExecutionOrder()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "x", order[0].Layer.Name())
}

func TestValidate(t *testing.T) {
	t.Run("NoOutputs", func(t *testing.T) {
		m := nn.NewModel("empty")
		_ = must.M1(m.AddInput(layers.NewInput("x", 3)))
		assert.True(t, errors.Is(m.Validate(), nnerrors.ErrShape))
	})
	t.Run("Dangling", func(t *testing.T) {
		m := nn.NewModel("dangling")
		x := must.M1(m.AddInput(layers.NewInput("x", 3)))
		y := must.M1(m.Apply(layers.NewIdentity("y"), x, nn.TensorLocation{Layer: 7}))
		m.SetOutputs(y)
		err := m.Validate()
		assert.True(t, errors.Is(err, nnerrors.ErrShape))
		assert.Contains(t, err.Error(), "[7,0,0]")
	})
	t.Run("Cycle", func(t *testing.T) {
		m := nn.NewModel("cycle")
		aID := m.AddLayer(layers.NewIdentity("a"))
		bID := m.AddLayer(layers.NewIdentity("b"))
		_ = must.M1(m.AddNode(aID, nn.TensorLocation{Layer: bID}))
		b := must.M1(m.AddNode(bID, nn.TensorLocation{Layer: aID}))
		m.SetOutputs(b.Outputs[0])
		err := m.Validate()
		assert.True(t, errors.Is(err, nnerrors.ErrShape))
		assert.Contains(t, err.Error(), "cycle")
	})
	t.Run("InputNotInputLayer", func(t *testing.T) {
		m := nn.NewModel("bad input")
		x := must.M1(m.AddInput(layers.NewInput("x", 3)))
		y := must.M1(m.Apply(layers.NewIdentity("y"), x))
		m.SetInputs(y)
		m.SetOutputs(y)
		assert.True(t, errors.Is(m.Validate(), nnerrors.ErrShape))
	})
	t.Run("UnlistedInput", func(t *testing.T) {
		m := nn.NewModel("unlisted")
		x := must.M1(m.AddInput(layers.NewInput("x", 4)))
		z := must.M1(m.Apply(layers.NewInput("z", 4)))
		sum := must.M1(m.Apply(layers.NewMerge("add", layers.MergeAdd), x, z))
		m.SetOutputs(sum)
		err := m.Validate()
		assert.True(t, errors.Is(err, nnerrors.ErrShape))
		assert.Contains(t, err.Error(), "not a model input")

		m.SetInputs(x, z)
		assert.NoError(t, m.Validate())
	})
}

func TestInferShapes(t *testing.T) {
	m := nn.NewModel("cnn")
	x := must.M1(m.AddInput(layers.NewInput("image", 8, 8, 3)))
	conv := must.M1(m.Apply(layers.NewConv2D("conv", tensors.New(3, 3, 3, 4), nil, layers.PaddingSame, layers.ActivationReLU), x))
	pool := must.M1(m.Apply(layers.NewMaxPooling2D("pool", [2]int{2, 2}, layers.PaddingValid), conv))
	flat := must.M1(m.Apply(layers.NewFlatten("flatten"), pool))
	m.SetOutputs(flat)

	order, dims, err := m.InferShapes()
	require.NoError(t, err)
	assert.Len(t, order, 4)
	assert.Equal(t, []int{8, 8, 4}, dims[conv])
	assert.Equal(t, []int{4, 4, 4}, dims[pool])
	assert.Equal(t, [][]int{{64}}, dims.Of([]nn.TensorLocation{flat}))

	// InferShapes doesn't change the nodes, ResolveShapes does.
	node := must.M1(m.Node(flat))
	assert.Nil(t, node.OutputDimensions)
	require.NoError(t, m.ResolveShapes())
	assert.Equal(t, [][]int{{64}}, node.OutputDimensions)
	assert.Equal(t, [][]int{{4, 4, 4}}, node.InputDimensions)
	_, again, err := m.InferShapes()
	require.NoError(t, err)
	assert.Equal(t, dims, again)

	// Shape errors leave resolved shapes unchanged.
	bad := must.M1(m.Apply(layers.NewDense("dense", tensors.New(3, 2), nil, ""), flat))
	m.SetOutputs(bad)
	err = m.ResolveShapes()
	assert.True(t, errors.Is(err, nnerrors.ErrShape))
	assert.Contains(t, err.Error(), "dense")
	assert.Equal(t, [][]int{{64}}, node.OutputDimensions)

	// SetDimensions on a node.
	clone := node.Clone()
	clone.InputDimensions = [][]int{{2, 2, 4}}
	require.NoError(t, clone.SetDimensions())
	assert.Equal(t, [][]int{{16}}, clone.OutputDimensions)
	assert.Equal(t, [][]int{{64}}, node.OutputDimensions)

	// SetDimensions is deterministic.
	first := clone.OutputDimensions
	require.NoError(t, clone.SetDimensions())
	assert.Equal(t, first, clone.OutputDimensions)
	convNode := must.M1(m.Node(conv))
	convFirst := slices.Clone(convNode.OutputDimensions)
	for range 3 {
		require.NoError(t, convNode.SetDimensions())
		assert.Equal(t, convFirst, convNode.OutputDimensions)
	}
	assert.Equal(t, [][]int{{8, 8, 4}}, convFirst)
}

func TestSaveAndLoad(t *testing.T) {
	m := buildResidualModel(t)
	require.NoError(t, m.SetInputUInt8(0, true))
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	loaded, err := nn.LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, m.Name, loaded.Name)
	assert.Equal(t, m.NumLayers(), loaded.NumLayers())
	assert.Equal(t, m.NumNodes(), loaded.NumNodes())
	assert.Equal(t, m.Inputs(), loaded.Inputs())
	assert.Equal(t, m.Outputs(), loaded.Outputs())
	assert.True(t, loaded.IsInputUInt8(0))
	for i, node := range m.AllNodes() {
		other := loaded.AllNodes()[i]
		assert.Equal(t, node.String(), other.String())
		assert.Equal(t, node.Inputs, other.Inputs)
		assert.Equal(t, node.OutputDimensions, other.OutputDimensions)
	}
	id, _ := loaded.LayerByName("dense")
	assert.Len(t, loaded.Nodes(id), 2)
	assert.Same(t, loaded.Nodes(id)[0].Layer, loaded.Nodes(id)[1].Layer)

	// Saving the loaded model gives the same file.
	path2 := filepath.Join(t.TempDir(), "model2.json")
	require.NoError(t, loaded.Save(path2))
	assert.Equal(t, must.M1(os.ReadFile(path)), must.M1(os.ReadFile(path2)))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}

	m := buildResidualModel(t)
	before := m.Summary()
	for name, contents := range map[string]string{
		"truncated.json": `{"name": "x", "layers": [`,
		"unknown.json":   `{"name": "x", "layers": [{"json_type": "Swish", "interface_name": "Layer"}], "nodes": [], "inputs": [], "outputs": []}`,
		"dangling.json": `{"name": "x",
			"layers": [{"json_type": "Input", "interface_name": "Layer", "name": "x", "dimensions": [2]}],
			"nodes": [{"layer": 0, "inputs": []}], "inputs": [[0,0,0]], "outputs": [[0,3,0]]}`,
		"unlisted.json": `{"name": "x",
			"layers": [{"json_type": "Input", "interface_name": "Layer", "name": "x", "dimensions": [2]},
				{"json_type": "Input", "interface_name": "Layer", "name": "z", "dimensions": [2]}],
			"nodes": [{"layer": 0, "inputs": []}, {"layer": 1, "inputs": []}], "inputs": [[0,0,0]], "outputs": [[1,0,0]]}`,
		"badnode.json": `{"name": "x",
			"layers": [{"json_type": "Input", "interface_name": "Layer", "name": "x", "dimensions": [2]}],
			"nodes": [{"layer": 5, "inputs": []}], "inputs": [], "outputs": []}`,
	} {
		err := m.Load(writeFile(name, contents))
		assert.True(t, errors.Is(err, nnerrors.ErrLoad), "%s: %v", name, err)
	}
	err := m.Load(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, nnerrors.ErrLoad))

	// Failed loads leave the model unchanged.
	assert.Equal(t, before, m.Summary())
}

func TestSummary(t *testing.T) {
	m := buildResidualModel(t)
	summary := m.Summary()
	for _, want := range []string{`Model "residual"`, "dense", "ReLU", "Add", "(output #0)", "(input #0)", "16 parameters"} {
		assert.Contains(t, summary, want)
	}
}
