// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"slices"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
	"github.com/pkg/errors"
)

// Dense is a fully connected layer applied over the last axis of the input:
// output = activation(input x Weights + Bias).
//
// Weights have shape [inputs, units], Bias (optional) shape [units].
type Dense struct {
	base
	Weights    *tensors.Tensor `json:"weights"`
	Bias       *tensors.Tensor `json:"bias,omitempty"`
	Activation Activation      `json:"activation,omitempty"`
}

// NewDense returns a Dense layer. bias can be nil.
func NewDense(name string, weights, bias *tensors.Tensor, activation Activation) *Dense {
	return &Dense{base: base{LayerName: name}, Weights: weights, Bias: bias, Activation: activation}
}

func (l *Dense) JSONTags() (string, string) { return "Dense", nn.LayerInterfaceName }
func (l *Dense) Kind() nn.Kind              { return nn.KindDense }

// NumParameters implements nn.ParameterCounter.
func (l *Dense) NumParameters() int {
	return tensorSize(l.Weights) + tensorSize(l.Bias)
}

// dims returns the number of inputs and units.
func (l *Dense) dims() (inSize, units int) {
	return l.Weights.Dim(0), l.Weights.Dim(1)
}

func (l *Dense) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	if l.Weights == nil || l.Weights.Rank() != 2 {
		return nil, shapeErrorf(l, "weights must have rank 2")
	}
	if err := l.Activation.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "%s %q", l.Kind(), l.Name())
	}
	inSize, units := l.dims()
	if l.Bias != nil && l.Bias.Size() != units {
		return nil, shapeErrorf(l, "bias has %d elements, expected %d units", l.Bias.Size(), units)
	}
	in := inputs[0]
	if len(in) == 0 || in[len(in)-1] != inSize {
		return nil, shapeErrorf(l, "input dimensions %v incompatible with weights of shape %v", in, l.Weights.Dims())
	}
	out := slices.Clone(in)
	out[len(out)-1] = units
	return [][]int{out}, nil
}

func (l *Dense) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	inSize, units := l.dims()
	out := outputs[0].Data()
	kernels.Dense(inputs[0].Data(), l.Weights.Data(), tensorData(l.Bias), out, inSize, units)
	l.Activation.Apply(out, units, false)
	return nil
}

// Generate emits the product with the weights transposed to [units, inputs], so every output element is
// a dot product of contiguous values. The output elements are split among workers.
func (l *Dense) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	inSize, units := l.dims()
	weights := e.Constant(kernels.Transpose2D(l.Weights.Data(), inSize, units))
	bias := e.Constant(tensorData(l.Bias))
	in, out, width := inputs[0].Data, outputs[0].Data, e.VectorWidth()
	e.EmitRows(len(out), 16, func(start, end int) {
		kernels.DenseRange(in, weights, bias, out, inSize, units, width, start, end)
	})
	l.Activation.emit(e, outputs[0])
	return nil
}
