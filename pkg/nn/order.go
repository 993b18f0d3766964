// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"fmt"
	"slices"
	"sort"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/compilednn/pkg/support/sets"
	"github.com/pkg/errors"
)

// Dimensions maps every tensor of a model to its resolved dimensions.
type Dimensions map[TensorLocation][]int

// Validate checks the structure of the graph: every edge references an existing tensor, the graph
// inputs are the outputs of Input layers, every Input node is a graph input, there is at least one
// output and no cycles.
//
// It fails with a ShapeError.
func (m *Model) Validate() error {
	_, err := m.ExecutionOrder()
	return err
}

// checkLocation fails with a ShapeError if loc doesn't reference an existing tensor.
func (m *Model) checkLocation(loc TensorLocation, format string, args ...any) error {
	if _, err := m.Node(loc); err != nil {
		return nnerrors.Shapef("%s references the missing tensor %s", fmt.Sprintf(format, args...), loc)
	}
	return nil
}

// ExecutionOrder returns all nodes in an order where each node comes after the nodes producing its inputs.
// Among the nodes ready to run, the one added first to the model comes first, so the order is deterministic.
//
// It fails with a ShapeError if the graph is not valid, see Validate.
func (m *Model) ExecutionOrder() ([]*Node, error) {
	for i, loc := range m.inputs {
		if err := m.checkLocation(loc, "model input #%d", i); err != nil {
			return nil, err
		}
		node, _ := m.Node(loc)
		if node.Layer.Kind() != KindInput {
			return nil, nnerrors.Shapef("model input #%d is the output of %s, it must be a layer of kind Input", i, node)
		}
	}
	listed := sets.MakeWith(m.inputs...)
	for _, node := range m.allNodes {
		if node.Layer.Kind() == KindInput && len(node.Outputs) > 0 && !listed.Has(node.Outputs[0]) {
			return nil, nnerrors.Shapef("node %s is of kind Input but is not a model input", node)
		}
	}
	if len(m.outputs) == 0 {
		return nil, nnerrors.Shapef("model %q has no outputs", m.Name)
	}
	for i, loc := range m.outputs {
		if err := m.checkLocation(loc, "model output #%d", i); err != nil {
			return nil, err
		}
	}

	// Kahn's algorithm, ready nodes sorted by insertion order.
	numPending := make([]int, len(m.allNodes))
	consumers := make([][]*Node, len(m.allNodes))
	for _, node := range m.allNodes {
		for i, loc := range node.Inputs {
			if err := m.checkLocation(loc, "input #%d of node %s", i, node); err != nil {
				return nil, err
			}
			producer, _ := m.Node(loc)
			numPending[node.seq]++
			consumers[producer.seq] = append(consumers[producer.seq], node)
		}
	}
	var ready []int // seq of nodes ready to run, sorted.
	for _, node := range m.allNodes {
		if numPending[node.seq] == 0 {
			ready = append(ready, node.seq)
		}
	}
	order := make([]*Node, 0, len(m.allNodes))
	for len(ready) > 0 {
		node := m.allNodes[ready[0]]
		ready = ready[1:]
		order = append(order, node)
		for _, consumer := range consumers[node.seq] {
			numPending[consumer.seq]--
			if numPending[consumer.seq] == 0 {
				pos := sort.SearchInts(ready, consumer.seq)
				ready = slices.Insert(ready, pos, consumer.seq)
			}
		}
	}
	if len(order) != len(m.allNodes) {
		var cyclic []string
		for _, node := range m.allNodes {
			if numPending[node.seq] > 0 {
				cyclic = append(cyclic, node.String())
			}
		}
		return nil, nnerrors.Shapef("model %q has a cycle involving nodes %v", m.Name, cyclic)
	}
	return order, nil
}

// InferShapes computes the dimensions of every tensor of the model, without changing the model's nodes.
// It returns the execution order used and the dimensions.
//
// It fails with a ShapeError.
func (m *Model) InferShapes() ([]*Node, Dimensions, error) {
	order, err := m.ExecutionOrder()
	if err != nil {
		return nil, nil, err
	}
	dims := make(Dimensions)
	for _, node := range order {
		inputs := make([][]int, len(node.Inputs))
		for i, loc := range node.Inputs {
			inputs[i] = dims[loc]
		}
		outputs, err := node.Layer.OutputDimensions(inputs)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "node %s", node)
		}
		if len(outputs) != len(node.Outputs) {
			return nil, nil, nnerrors.Shapef("node %s: layer returned %d output shapes, the node has %d outputs", node, len(outputs), len(node.Outputs))
		}
		for i, loc := range node.Outputs {
			dims[loc] = slices.Clone(outputs[i])
		}
	}
	return order, dims, nil
}

// ResolveShapes infers the dimensions of every tensor and stores them in the nodes' InputDimensions and
// OutputDimensions.
//
// It fails with a ShapeError, in which case the nodes are left unchanged.
func (m *Model) ResolveShapes() error {
	_, dims, err := m.InferShapes()
	if err != nil {
		return err
	}
	dims.apply(m.allNodes)
	return nil
}

func (dims Dimensions) apply(nodes []*Node) {
	for _, node := range nodes {
		node.InputDimensions = make([][]int, len(node.Inputs))
		for i, loc := range node.Inputs {
			node.InputDimensions[i] = slices.Clone(dims[loc])
		}
		node.OutputDimensions = make([][]int, len(node.Outputs))
		for i, loc := range node.Outputs {
			node.OutputDimensions[i] = slices.Clone(dims[loc])
		}
	}
}

// Of returns the dimensions of the tensors at the given locations.
func (dims Dimensions) Of(locs []TensorLocation) [][]int {
	out := make([][]int, len(locs))
	for i, loc := range locs {
		out[i] = dims[loc]
	}
	return shapes.CloneDimensions(out)
}
