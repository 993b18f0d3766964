// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"math"
	"slices"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// DefaultBatchNormEpsilon is the epsilon used by Keras.
const DefaultBatchNormEpsilon = 1e-3

// BatchNormalization normalizes the last axis with the moving statistics learned during training:
// output = (input - MovingMean) / sqrt(MovingVariance + Epsilon) * Gamma + Beta.
//
// Gamma and Beta are optional (1 and 0 if missing).
type BatchNormalization struct {
	base
	Gamma          *tensors.Tensor `json:"gamma,omitempty"`
	Beta           *tensors.Tensor `json:"beta,omitempty"`
	MovingMean     *tensors.Tensor `json:"moving_mean"`
	MovingVariance *tensors.Tensor `json:"moving_variance"`
	Epsilon        float32         `json:"epsilon"`
}

// NewBatchNormalization returns a BatchNormalization layer with the default epsilon. gamma and beta can be nil.
func NewBatchNormalization(name string, gamma, beta, mean, variance *tensors.Tensor) *BatchNormalization {
	return &BatchNormalization{
		base: base{LayerName: name}, Gamma: gamma, Beta: beta,
		MovingMean: mean, MovingVariance: variance, Epsilon: DefaultBatchNormEpsilon,
	}
}

func (l *BatchNormalization) JSONTags() (string, string) {
	return "BatchNormalization", nn.LayerInterfaceName
}
func (l *BatchNormalization) Kind() nn.Kind { return nn.KindBatchNormalization }

// NumParameters implements nn.ParameterCounter.
func (l *BatchNormalization) NumParameters() int {
	return tensorSize(l.Gamma) + tensorSize(l.Beta) + tensorSize(l.MovingMean) + tensorSize(l.MovingVariance)
}

func (l *BatchNormalization) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	channels := lastDim(inputs[0])
	if len(inputs[0]) == 0 {
		return nil, shapeErrorf(l, "input must have rank >= 1")
	}
	if l.MovingMean == nil || l.MovingVariance == nil {
		return nil, shapeErrorf(l, "moving mean and variance are required")
	}
	for _, param := range []*tensors.Tensor{l.Gamma, l.Beta, l.MovingMean, l.MovingVariance} {
		if param != nil && param.Size() != channels {
			return nil, shapeErrorf(l, "parameters have %d elements, input has %d channels", param.Size(), channels)
		}
	}
	return [][]int{slices.Clone(inputs[0])}, nil
}

// coefficients folds the parameters into a per channel scale and shift.
func (l *BatchNormalization) coefficients() (scale, shift []float32) {
	channels := l.MovingMean.Size()
	scale = make([]float32, channels)
	shift = make([]float32, channels)
	mean, variance := l.MovingMean.Data(), l.MovingVariance.Data()
	for c := range channels {
		s := float32(1 / math.Sqrt(float64(variance[c]+l.Epsilon)))
		if l.Gamma != nil {
			s *= l.Gamma.Data()[c]
		}
		scale[c] = s
		shift[c] = -mean[c] * s
		if l.Beta != nil {
			shift[c] += l.Beta.Data()[c]
		}
	}
	return
}

func (l *BatchNormalization) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	scale, shift := l.coefficients()
	kernels.ScaleShift(inputs[0].Data(), outputs[0].Data(), scale, shift)
	return nil
}

func (l *BatchNormalization) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	scale, shift := l.coefficients()
	scale, shift = e.Constant(scale), e.Constant(shift)
	in, out := inputs[0].Data, outputs[0].Data
	e.Emit(func() { kernels.ScaleShift(in, out, scale, shift) })
	return nil
}
