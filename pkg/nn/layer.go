// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package nn defines the graph representation of a neural network: layers, the nodes that bind them
// to their input edges, and the Model that owns both.
//
// A Model is a directed acyclic graph of Nodes. Each Node applies one Layer to tensors produced by
// other nodes, referenced by TensorLocation. Layers are stored in an arena owned by the Model and
// referenced by LayerID, and the same layer can be applied by several nodes (shared weights).
//
// Layer implementations live in the package github.com/gomlx/compilednn/pkg/nn/layers, which must be
// imported (possibly with `import _`) for models to be loaded from files.
package nn

import (
	"github.com/gomlx/compilednn/internal/polymorphicjson"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
)

// LayerInterfaceName is the interface name used to serialize layers, see polymorphicjson.
const LayerInterfaceName = "Layer"

// Layer describes one operation and its (fixed) parameters.
//
// A Layer is a value independent of the graph: it knows nothing of the nodes applying it.
type Layer interface {
	polymorphicjson.JSONIdentifiable

	// Kind of the operation.
	Kind() Kind

	// Name of the layer, unique within a model.
	Name() string

	// OutputDimensions returns the dimensions of the outputs, given the dimensions of the inputs.
	// It must be deterministic, and fail with a ShapeError for unsupported inputs.
	OutputDimensions(inputs [][]int) ([][]int, error)

	// Apply evaluates the layer. The outputs are reshaped by Apply as needed.
	Apply(inputs, outputs []*tensors.Tensor) error
}

// Generator is implemented by layers that can be compiled.
//
// Generate emits the steps that compute the outputs from the inputs: the storage of all operands is
// fixed at compile time. It must produce the same values as Apply, within floating point tolerance.
type Generator interface {
	Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error
}

// Aliasing is implemented by layers whose only output is a re-view of their only input, with the same
// number of elements. The output of those layers can share the storage of the input.
type Aliasing interface {
	AliasesInput() bool
}

// MultiOutput is implemented by layers that produce more than one output. Layers that don't implement it
// produce exactly one output.
type MultiOutput interface {
	NumOutputs() int
}

// NumLayerOutputs returns the number of outputs produced by layer.
func NumLayerOutputs(layer Layer) int {
	if mo, ok := layer.(MultiOutput); ok {
		return mo.NumOutputs()
	}
	return 1
}

// ParameterCounter is implemented by layers holding learned parameters.
type ParameterCounter interface {
	NumParameters() int
}

//go:generate go tool enumer -type=UInt8InputMode -trimprefix=UInt8Inputs -transform=snake -json -text -output=gen_uint8inputmode_enumer.go layer.go

// UInt8InputMode defines how inputs flagged as 8-bit (see Model.SetInputUInt8) are fed.
type UInt8InputMode int

const (
	// UInt8InputsUnspecified is the zero value: models with 8-bit inputs are rejected.
	UInt8InputsUnspecified UInt8InputMode = iota

	// UInt8InputsConvertInRoutine means the caller writes one byte per element (see tensors.Tensor.Uint8Data),
	// and the values are converted to float32 before evaluation. With compiled networks the conversion
	// happens in place, in the bound input tensor, so the bytes must be written again before every Apply.
	UInt8InputsConvertInRoutine

	// UInt8InputsPreConverted means the caller converts the 8-bit values to float32 itself.
	UInt8InputsPreConverted
)
