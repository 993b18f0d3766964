// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/jit"
)

// Activation is the name of an activation function, as used by Keras.
// The empty string is the same as ActivationLinear.
type Activation string

const (
	ActivationLinear      Activation = "linear"
	ActivationReLU        Activation = "relu"
	ActivationSigmoid     Activation = "sigmoid"
	ActivationHardSigmoid Activation = "hard_sigmoid"
	ActivationTanh        Activation = "tanh"
	ActivationSoftsign    Activation = "softsign"
	ActivationSoftplus    Activation = "softplus"
	ActivationELU         Activation = "elu"
	ActivationSELU        Activation = "selu"
	ActivationExponential Activation = "exponential"
	ActivationSoftmax     Activation = "softmax"
)

// Validate returns an UnsupportedOperationError for unknown activations.
func (a Activation) Validate() error {
	switch a {
	case "", ActivationLinear, ActivationReLU, ActivationSigmoid, ActivationHardSigmoid, ActivationTanh,
		ActivationSoftsign, ActivationSoftplus, ActivationELU, ActivationSELU, ActivationExponential, ActivationSoftmax:
		return nil
	}
	return nnerrors.Unsupportedf("activation %q", string(a))
}

// IsLinear returns whether the activation is the identity.
func (a Activation) IsLinear() bool {
	return a == "" || a == ActivationLinear
}

// Apply applies the activation in place. channels is the size of the last axis, over which softmax normalizes.
func (a Activation) Apply(data []float32, channels int, approx bool) {
	switch a {
	case ActivationReLU:
		kernels.Relu(data)
	case ActivationSigmoid:
		kernels.Sigmoid(data, approx)
	case ActivationHardSigmoid:
		kernels.HardSigmoid(data)
	case ActivationTanh:
		kernels.Tanh(data, approx)
	case ActivationSoftsign:
		kernels.Softsign(data)
	case ActivationSoftplus:
		kernels.Softplus(data, approx)
	case ActivationELU:
		kernels.Elu(data, 1, approx)
	case ActivationSELU:
		kernels.Selu(data, approx)
	case ActivationExponential:
		kernels.Exponential(data, approx)
	case ActivationSoftmax:
		kernels.Softmax(data, channels, approx)
	}
}

// emit emits a step applying the activation in place to the operand, unless it is linear.
func (a Activation) emit(e *jit.Emitter, operand jit.Operand) {
	if a.IsLinear() {
		return
	}
	data, channels, approx := operand.Data, lastDim(operand.Dims), e.UseExpApprox()
	e.Emit(func() { a.Apply(data, channels, approx) })
}
