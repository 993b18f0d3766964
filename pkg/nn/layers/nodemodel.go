// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"fmt"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/nn"
)

// ModelForNode returns a model that applies node's layer to Input layers with the node's InputDimensions.
// The model inputs are in the order of the node inputs, and its outputs are all of the node outputs.
//
// The layer is shared with the node. It fails with a ShapeError if the node's input dimensions are not set.
func ModelForNode(node *nn.Node) (*nn.Model, error) {
	if len(node.InputDimensions) != len(node.Inputs) {
		return nil, nnerrors.Shapef("node %s has %d inputs but %d input dimensions: resolve the shapes first",
			node, len(node.Inputs), len(node.InputDimensions))
	}
	m := nn.NewModel(node.Layer.Name())
	inputs := make([]nn.TensorLocation, len(node.Inputs))
	for i, dims := range node.InputDimensions {
		loc, err := m.AddInput(NewInput(fmt.Sprintf("%s_input%d", node.Layer.Name(), i), dims...))
		if err != nil {
			return nil, err
		}
		inputs[i] = loc
	}
	applied, err := m.AddNode(m.AddLayer(node.Layer), inputs...)
	if err != nil {
		return nil, err
	}
	if node.Layer.Kind() == nn.KindInput {
		m.SetInputs(applied.Outputs...)
	}
	m.SetOutputs(applied.Outputs...)
	if err := m.ResolveShapes(); err != nil {
		return nil, err
	}
	return m, nil
}
