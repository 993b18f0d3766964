// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"slices"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
)

// Model owns a set of layers and the directed acyclic graph of nodes applying them.
//
// The graph inputs are the outputs of Input layers, listed in Inputs() in the order in which the
// tensors are fed. Outputs() lists the graph outputs, in the order they are returned.
//
// A Model is not safe for concurrent modification.
type Model struct {
	// Name of the model, informative only.
	Name string

	layers     []Layer
	nodes      [][]*Node
	allNodes   []*Node
	inputs     []TensorLocation
	outputs    []TensorLocation
	inputUInt8 []bool
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddLayer adds the layer to the model's arena, and returns its identifier.
func (m *Model) AddLayer(layer Layer) LayerID {
	m.layers = append(m.layers, layer)
	m.nodes = append(m.nodes, nil)
	return LayerID(len(m.layers) - 1)
}

// AddNode creates a new node applying the layer id to the given inputs.
// The inputs are only checked by Validate.
//
// It fails with an ArgumentError if id is not a layer of the model.
func (m *Model) AddNode(id LayerID, inputs ...TensorLocation) (*Node, error) {
	layer := m.Layer(id)
	if layer == nil {
		return nil, nnerrors.Argumentf("model %q has no layer %d", m.Name, id)
	}
	node := &Node{
		Layer:   layer,
		LayerID: id,
		Index:   len(m.nodes[id]),
		Inputs:  slices.Clone(inputs),
		seq:     len(m.allNodes),
	}
	numOutputs := NumLayerOutputs(layer)
	node.Outputs = make([]TensorLocation, numOutputs)
	for i := range numOutputs {
		node.Outputs[i] = TensorLocation{Layer: id, NodeIndex: node.Index, TensorIndex: i}
	}
	m.nodes[id] = append(m.nodes[id], node)
	m.allNodes = append(m.allNodes, node)
	return node, nil
}

// Apply adds the layer and a node applying it to the inputs. It returns the first output of the node.
func (m *Model) Apply(layer Layer, inputs ...TensorLocation) (TensorLocation, error) {
	node, err := m.AddNode(m.AddLayer(layer), inputs...)
	if err != nil {
		return TensorLocation{}, err
	}
	return node.Outputs[0], nil
}

// AddInput applies an input layer (a layer of KindInput) and appends its output to the model inputs.
func (m *Model) AddInput(layer Layer) (TensorLocation, error) {
	if layer.Kind() != KindInput {
		return TensorLocation{}, nnerrors.Argumentf("AddInput requires a layer of kind Input, got %s", layer.Kind())
	}
	loc, err := m.Apply(layer)
	if err != nil {
		return loc, err
	}
	m.SetInputs(append(m.Inputs(), loc)...)
	return loc, nil
}

// NumLayers returns the number of layers in the model.
func (m *Model) NumLayers() int { return len(m.layers) }

// Layers returns the layers of the model, indexed by LayerID.
func (m *Model) Layers() []Layer { return slices.Clone(m.layers) }

// Layer returns the layer with the given id, or nil if there is no such layer.
func (m *Model) Layer(id LayerID) Layer {
	if id < 0 || int(id) >= len(m.layers) {
		return nil
	}
	return m.layers[id]
}

// LayerByName returns the id of the first layer with the given name.
func (m *Model) LayerByName(name string) (LayerID, bool) {
	for id, layer := range m.layers {
		if layer.Name() == name {
			return LayerID(id), true
		}
	}
	return -1, false
}

// Nodes returns the nodes applying the layer id.
func (m *Model) Nodes(id LayerID) []*Node {
	if id < 0 || int(id) >= len(m.nodes) {
		return nil
	}
	return slices.Clone(m.nodes[id])
}

// AllNodes returns all nodes, in the order they were added.
func (m *Model) AllNodes() []*Node { return slices.Clone(m.allNodes) }

// NumNodes returns the total number of nodes.
func (m *Model) NumNodes() int { return len(m.allNodes) }

// Node returns the node producing the tensor at loc.
//
// It fails with an ArgumentError if the layer or the node don't exist, or if the node has no output loc.TensorIndex.
func (m *Model) Node(loc TensorLocation) (*Node, error) {
	if loc.Layer < 0 || int(loc.Layer) >= len(m.nodes) {
		return nil, nnerrors.Argumentf("tensor location %s: no layer %d in model %q", loc, loc.Layer, m.Name)
	}
	nodes := m.nodes[loc.Layer]
	if loc.NodeIndex < 0 || loc.NodeIndex >= len(nodes) {
		return nil, nnerrors.Argumentf("tensor location %s: layer %q has %d nodes", loc, m.layers[loc.Layer].Name(), len(nodes))
	}
	node := nodes[loc.NodeIndex]
	if loc.TensorIndex < 0 || loc.TensorIndex >= len(node.Outputs) {
		return nil, nnerrors.Argumentf("tensor location %s: node %s has %d outputs", loc, node, len(node.Outputs))
	}
	return node, nil
}

// Inputs returns the graph inputs, in feeding order.
func (m *Model) Inputs() []TensorLocation { return slices.Clone(m.inputs) }

// Outputs returns the graph outputs, in order.
func (m *Model) Outputs() []TensorLocation { return slices.Clone(m.outputs) }

// NumInputs returns the number of graph inputs.
func (m *Model) NumInputs() int { return len(m.inputs) }

// NumOutputs returns the number of graph outputs.
func (m *Model) NumOutputs() int { return len(m.outputs) }

// SetInputs sets the graph inputs. The 8-bit flags of inputs kept at the same position are preserved.
func (m *Model) SetInputs(inputs ...TensorLocation) {
	m.inputs = slices.Clone(inputs)
	flags := make([]bool, len(inputs))
	copy(flags, m.inputUInt8)
	m.inputUInt8 = flags
}

// SetOutputs sets the graph outputs.
func (m *Model) SetOutputs(outputs ...TensorLocation) {
	m.outputs = slices.Clone(outputs)
}

// SetInputUInt8 flags whether the input i is fed as 8-bit integers.
//
// It fails with an ArgumentError if i is out of range.
func (m *Model) SetInputUInt8(i int, isUInt8 bool) error {
	if i < 0 || i >= len(m.inputs) {
		return nnerrors.Argumentf("model %q has %d inputs, cannot flag input #%d", m.Name, len(m.inputs), i)
	}
	m.inputUInt8[i] = isUInt8
	return nil
}

// IsInputUInt8 returns whether input i is fed as 8-bit integers. It returns false if i is out of range.
func (m *Model) IsInputUInt8(i int) bool {
	if i < 0 || i >= len(m.inputUInt8) {
		return false
	}
	return m.inputUInt8[i]
}

// HasUInt8Inputs returns whether any input is flagged as 8-bit.
func (m *Model) HasUInt8Inputs() bool {
	return slices.Contains(m.inputUInt8, true)
}

// Clear resets the model to empty.
func (m *Model) Clear() {
	*m = Model{}
}

// NumParameters returns the total number of learned parameters of all layers.
func (m *Model) NumParameters() int {
	var total int
	for _, layer := range m.layers {
		if pc, ok := layer.(ParameterCounter); ok {
			total += pc.NumParameters()
		}
	}
	return total
}
