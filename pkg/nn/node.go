// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"fmt"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/shapes"
)

// Node applies a Layer to the tensors referenced by Inputs, producing the tensors referenced by Outputs.
//
// The Layer is shared: it is owned by the Model.
type Node struct {
	Layer Layer

	// LayerID and Index identify the node: it is the node Index of the layer LayerID.
	LayerID LayerID
	Index   int

	Inputs  []TensorLocation
	Outputs []TensorLocation

	InputDimensions  [][]int
	OutputDimensions [][]int

	// seq is the insertion order of the node in the model.
	seq int
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)#%d", n.Layer.Kind(), n.Layer.Name(), n.Index)
}

// SetDimensions computes OutputDimensions from InputDimensions using the layer's shape rule.
//
// It fails with a ShapeError, in which case OutputDimensions is left unchanged.
func (n *Node) SetDimensions() error {
	if len(n.InputDimensions) != len(n.Inputs) {
		return nnerrors.Shapef("node %s has %d inputs but %d input dimensions", n, len(n.Inputs), len(n.InputDimensions))
	}
	outputs, err := n.Layer.OutputDimensions(n.InputDimensions)
	if err != nil {
		return err
	}
	if len(outputs) != len(n.Outputs) {
		return nnerrors.Shapef("layer %q returned %d output shapes, the node has %d outputs", n.Layer.Name(), len(outputs), len(n.Outputs))
	}
	n.OutputDimensions = shapes.CloneDimensions(outputs)
	return nil
}

// Clone returns a copy of the node, sharing the same layer.
func (n *Node) Clone() *Node {
	c := *n
	c.Inputs = append([]TensorLocation(nil), n.Inputs...)
	c.Outputs = append([]TensorLocation(nil), n.Outputs...)
	c.InputDimensions = shapes.CloneDimensions(n.InputDimensions)
	c.OutputDimensions = shapes.CloneDimensions(n.OutputDimensions)
	return &c
}
