// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"slices"

	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// Input is a graph input with fixed dimensions. It has no inputs, and its output is fed by the caller.
type Input struct {
	base
	Dimensions []int `json:"dimensions"`
}

// NewInput returns an Input layer with the given dimensions.
func NewInput(name string, dims ...int) *Input {
	return &Input{base: base{LayerName: name}, Dimensions: slices.Clone(dims)}
}

func (l *Input) JSONTags() (string, string) { return "Input", nn.LayerInterfaceName }
func (l *Input) Kind() nn.Kind              { return nn.KindInput }

func (l *Input) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 0); err != nil {
		return nil, err
	}
	for _, d := range l.Dimensions {
		if d < 0 {
			return nil, shapeErrorf(l, "negative dimension in %v", l.Dimensions)
		}
	}
	return [][]int{slices.Clone(l.Dimensions)}, nil
}

// Apply only shapes the output: its contents are fed by the caller.
func (l *Input) Apply(inputs, outputs []*tensors.Tensor) error {
	return prepare(l, inputs, outputs)
}

// Generate emits nothing: the output of an input layer is the tensor bound by the caller.
func (l *Input) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return checkOperands(l, inputs, outputs, 0)
}

// Identity copies its input.
type Identity struct {
	base
}

// NewIdentity returns an Identity layer.
func NewIdentity(name string) *Identity {
	return &Identity{base: base{LayerName: name}}
}

func (l *Identity) JSONTags() (string, string) { return "Identity", nn.LayerInterfaceName }
func (l *Identity) Kind() nn.Kind              { return nn.KindIdentity }
func (l *Identity) AliasesInput() bool         { return true }

func (l *Identity) OutputDimensions(inputs [][]int) ([][]int, error) {
	return passThroughDimensions(l, inputs)
}

func (l *Identity) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyCopy(l, inputs, outputs)
}

func (l *Identity) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	emitCopy(e, inputs[0], outputs[0])
	return nil
}

// Dropout is the identity at inference time.
type Dropout struct {
	base
	Rate float32 `json:"rate"`
}

// NewDropout returns a Dropout layer.
func NewDropout(name string, rate float32) *Dropout {
	return &Dropout{base: base{LayerName: name}, Rate: rate}
}

func (l *Dropout) JSONTags() (string, string) { return "Dropout", nn.LayerInterfaceName }
func (l *Dropout) Kind() nn.Kind              { return nn.KindDropout }
func (l *Dropout) AliasesInput() bool         { return true }

func (l *Dropout) OutputDimensions(inputs [][]int) ([][]int, error) {
	return passThroughDimensions(l, inputs)
}

func (l *Dropout) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyCopy(l, inputs, outputs)
}

func (l *Dropout) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	emitCopy(e, inputs[0], outputs[0])
	return nil
}

// passThroughDimensions is the shape rule of single input layers that don't change the shape.
func passThroughDimensions(l nn.Layer, inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	return [][]int{slices.Clone(inputs[0])}, nil
}

// applyCopy evaluates layers that copy their only input.
func applyCopy(l nn.Layer, inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	copy(outputs[0].Data(), inputs[0].Data())
	return nil
}
