// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"math"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/pkg/errors"
)

// elementwise is implemented by the layers that apply a function to each element (or to each row, for softmax).
type elementwise interface {
	nn.Layer
	validate() error
	apply(data []float32, channels int, approx bool)
}

func elementwiseDimensions(l elementwise, inputs [][]int) ([][]int, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	return passThroughDimensions(l, inputs)
}

func applyElementwise(l elementwise, inputs, outputs []*tensors.Tensor) error {
	if err := applyCopy(l, inputs, outputs); err != nil {
		return err
	}
	l.apply(outputs[0].Data(), lastDim(outputs[0].Dims()), false)
	return nil
}

func generateElementwise(l elementwise, e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	in, out := inputs[0].Data, outputs[0].Data
	channels, approx := lastDim(outputs[0].Dims), e.UseExpApprox()
	e.Emit(func() {
		copy(out, in)
		l.apply(out, channels, approx)
	})
	return nil
}

// ActivationLayer applies an activation function.
type ActivationLayer struct {
	base
	Activation Activation `json:"activation"`
}

// NewActivation returns an ActivationLayer.
func NewActivation(name string, activation Activation) *ActivationLayer {
	return &ActivationLayer{base: base{LayerName: name}, Activation: activation}
}

func (l *ActivationLayer) JSONTags() (string, string) { return "Activation", nn.LayerInterfaceName }
func (l *ActivationLayer) Kind() nn.Kind              { return nn.KindActivation }
func (l *ActivationLayer) validate() error {
	return errors.WithMessagef(l.Activation.Validate(), "%s %q", l.Kind(), l.Name())
}
func (l *ActivationLayer) apply(data []float32, channels int, approx bool) {
	l.Activation.Apply(data, channels, approx)
}
func (l *ActivationLayer) OutputDimensions(inputs [][]int) ([][]int, error) {
	return elementwiseDimensions(l, inputs)
}
func (l *ActivationLayer) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *ActivationLayer) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}

// ReLU is the rectified linear unit, with optional upper bound, slope below the threshold and threshold.
type ReLU struct {
	base
	MaxValue      *float32 `json:"max_value,omitempty"`
	NegativeSlope float32  `json:"negative_slope,omitempty"`
	Threshold     float32  `json:"threshold,omitempty"`
}

// NewReLU returns a plain ReLU layer: max(x, 0).
func NewReLU(name string) *ReLU {
	return &ReLU{base: base{LayerName: name}}
}

func (l *ReLU) JSONTags() (string, string) { return "ReLU", nn.LayerInterfaceName }
func (l *ReLU) Kind() nn.Kind              { return nn.KindReLU }
func (l *ReLU) validate() error {
	if l.MaxValue != nil && *l.MaxValue < 0 {
		return shapeErrorf(l, "max_value must be >= 0, got %g", *l.MaxValue)
	}
	return nil
}
func (l *ReLU) apply(data []float32, _ int, _ bool) {
	if l.MaxValue == nil && l.NegativeSlope == 0 && l.Threshold == 0 {
		kernels.Relu(data)
		return
	}
	maxValue := float32(math.Inf(1))
	if l.MaxValue != nil {
		maxValue = *l.MaxValue
	}
	kernels.ReluGeneral(data, maxValue, l.NegativeSlope, l.Threshold)
}
func (l *ReLU) OutputDimensions(inputs [][]int) ([][]int, error) {
	return elementwiseDimensions(l, inputs)
}
func (l *ReLU) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *ReLU) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}

// LeakyReLU is x for x >= 0, Alpha*x otherwise.
type LeakyReLU struct {
	base
	Alpha float32 `json:"alpha"`
}

// NewLeakyReLU returns a LeakyReLU layer.
func NewLeakyReLU(name string, alpha float32) *LeakyReLU {
	return &LeakyReLU{base: base{LayerName: name}, Alpha: alpha}
}

func (l *LeakyReLU) JSONTags() (string, string) { return "LeakyReLU", nn.LayerInterfaceName }
func (l *LeakyReLU) Kind() nn.Kind              { return nn.KindLeakyReLU }
func (l *LeakyReLU) validate() error            { return nil }
func (l *LeakyReLU) apply(data []float32, _ int, _ bool) {
	kernels.LeakyRelu(data, l.Alpha)
}
func (l *LeakyReLU) OutputDimensions(inputs [][]int) ([][]int, error) {
	return elementwiseDimensions(l, inputs)
}
func (l *LeakyReLU) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *LeakyReLU) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}

// ELU is x for x > 0, Alpha*(e^x-1) otherwise.
type ELU struct {
	base
	Alpha float32 `json:"alpha"`
}

// NewELU returns an ELU layer.
func NewELU(name string, alpha float32) *ELU {
	return &ELU{base: base{LayerName: name}, Alpha: alpha}
}

func (l *ELU) JSONTags() (string, string) { return "ELU", nn.LayerInterfaceName }
func (l *ELU) Kind() nn.Kind              { return nn.KindELU }
func (l *ELU) validate() error            { return nil }
func (l *ELU) apply(data []float32, _ int, approx bool) {
	kernels.Elu(data, l.Alpha, approx)
}
func (l *ELU) OutputDimensions(inputs [][]int) ([][]int, error) {
	return elementwiseDimensions(l, inputs)
}
func (l *ELU) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *ELU) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}

// ThresholdedReLU is x for x > Theta, 0 otherwise.
type ThresholdedReLU struct {
	base
	Theta float32 `json:"theta"`
}

// NewThresholdedReLU returns a ThresholdedReLU layer.
func NewThresholdedReLU(name string, theta float32) *ThresholdedReLU {
	return &ThresholdedReLU{base: base{LayerName: name}, Theta: theta}
}

func (l *ThresholdedReLU) JSONTags() (string, string) {
	return "ThresholdedReLU", nn.LayerInterfaceName
}
func (l *ThresholdedReLU) Kind() nn.Kind   { return nn.KindThresholdedReLU }
func (l *ThresholdedReLU) validate() error { return nil }
func (l *ThresholdedReLU) apply(data []float32, _ int, _ bool) {
	kernels.ThresholdedRelu(data, l.Theta)
}
func (l *ThresholdedReLU) OutputDimensions(inputs [][]int) ([][]int, error) {
	return elementwiseDimensions(l, inputs)
}
func (l *ThresholdedReLU) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *ThresholdedReLU) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}

// Softmax normalizes the last axis with the softmax function.
type Softmax struct {
	base
	// Axis must be the last axis: -1 or rank-1. 0 (missing) is also taken as the last axis.
	Axis int `json:"axis,omitempty"`
}

// NewSoftmax returns a Softmax layer over the last axis.
func NewSoftmax(name string) *Softmax {
	return &Softmax{base: base{LayerName: name}, Axis: -1}
}

func (l *Softmax) JSONTags() (string, string) { return "Softmax", nn.LayerInterfaceName }
func (l *Softmax) Kind() nn.Kind              { return nn.KindSoftmax }
func (l *Softmax) validate() error            { return nil }
func (l *Softmax) apply(data []float32, channels int, approx bool) {
	kernels.Softmax(data, channels, approx)
}
func (l *Softmax) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	rank := len(inputs[0])
	if l.Axis != 0 && l.Axis != -1 && l.Axis != rank-1 {
		return nil, shapeErrorf(l, "softmax only supported over the last axis, got axis %d for rank %d", l.Axis, rank)
	}
	return elementwiseDimensions(l, inputs)
}
func (l *Softmax) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyElementwise(l, inputs, outputs)
}
func (l *Softmax) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	return generateElementwise(l, e, inputs, outputs)
}
