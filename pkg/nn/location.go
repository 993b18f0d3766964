// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package nn

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// LayerID identifies a layer within a Model: it is its index in the model's layer arena.
type LayerID int

// TensorLocation references one output tensor of one node: the node NodeIndex of the layer Layer,
// and its output TensorIndex.
//
// It is comparable, and two locations are equal if all fields are equal.
type TensorLocation struct {
	Layer       LayerID
	NodeIndex   int
	TensorIndex int
}

// String implements fmt.Stringer.
func (loc TensorLocation) String() string {
	return fmt.Sprintf("[%d,%d,%d]", loc.Layer, loc.NodeIndex, loc.TensorIndex)
}

// MarshalJSON encodes the location as a [layer, node, tensor] triple.
func (loc TensorLocation) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]int{int(loc.Layer), loc.NodeIndex, loc.TensorIndex})
}

// UnmarshalJSON decodes a [layer, node, tensor] triple.
func (loc *TensorLocation) UnmarshalJSON(b []byte) error {
	var triple []int
	if err := json.Unmarshal(b, &triple); err != nil {
		return errors.Wrap(err, "tensor location must be a [layer, node, tensor] triple")
	}
	if len(triple) != 3 {
		return errors.Errorf("tensor location must be a [layer, node, tensor] triple, got %v", triple)
	}
	*loc = TensorLocation{Layer: LayerID(triple[0]), NodeIndex: triple[1], TensorIndex: triple[2]}
	return nil
}
