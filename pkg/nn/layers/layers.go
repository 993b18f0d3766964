// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layers implements one nn.Layer per operation kind.
//
// Every layer supplies a shape rule (OutputDimensions) and a generic evaluation rule (Apply).
// All layers but Permute also implement nn.Generator, and can be compiled.
//
// Spatial layers use the [height, width, channels] layout, without a batch axis. Learned weights
// follow the Keras layouts: Dense weights are [inputs, units], Conv2D kernels are
// [kernelHeight, kernelWidth, inChannels, outChannels].
//
// Importing this package registers all layer types for deserialization (see nn.Model.Load).
package layers

import (
	"fmt"

	"github.com/gomlx/compilednn/internal/polymorphicjson"
	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

func init() {
	polymorphicjson.Register(func() nn.Layer { return &Input{} })
	polymorphicjson.Register(func() nn.Layer { return &Identity{} })
	polymorphicjson.Register(func() nn.Layer { return &Dropout{} })
	polymorphicjson.Register(func() nn.Layer { return &Dense{} })
	polymorphicjson.Register(func() nn.Layer { return &ActivationLayer{} })
	polymorphicjson.Register(func() nn.Layer { return &ReLU{} })
	polymorphicjson.Register(func() nn.Layer { return &LeakyReLU{} })
	polymorphicjson.Register(func() nn.Layer { return &ELU{} })
	polymorphicjson.Register(func() nn.Layer { return &ThresholdedReLU{} })
	polymorphicjson.Register(func() nn.Layer { return &Softmax{} })
	polymorphicjson.Register(func() nn.Layer { return &Conv2D{} })
	polymorphicjson.Register(func() nn.Layer { return &DepthwiseConv2D{} })
	polymorphicjson.Register(func() nn.Layer { return &Pooling2D{} })
	polymorphicjson.Register(func() nn.Layer { return &GlobalPooling2D{} })
	polymorphicjson.Register(func() nn.Layer { return &BatchNormalization{} })
	polymorphicjson.Register(func() nn.Layer { return &Flatten{} })
	polymorphicjson.Register(func() nn.Layer { return &Reshape{} })
	polymorphicjson.Register(func() nn.Layer { return &ZeroPadding2D{} })
	polymorphicjson.Register(func() nn.Layer { return &Cropping2D{} })
	polymorphicjson.Register(func() nn.Layer { return &UpSampling2D{} })
	polymorphicjson.Register(func() nn.Layer { return &Merge{} })
	polymorphicjson.Register(func() nn.Layer { return &Concatenate{} })
	polymorphicjson.Register(func() nn.Layer { return &Permute{} })
}

// base holds the fields common to all layers.
type base struct {
	LayerName string `json:"name"`
}

// Name implements nn.Layer.
func (b *base) Name() string { return b.LayerName }

// shapeErrorf returns a ShapeError prefixed with the layer kind and name.
func shapeErrorf(l nn.Layer, format string, args ...any) error {
	return nnerrors.Shapef("%s %q: %s", l.Kind(), l.Name(), fmt.Sprintf(format, args...))
}

// expectInputs checks the number of inputs.
func expectInputs(l nn.Layer, inputs [][]int, n int) error {
	if len(inputs) != n {
		return shapeErrorf(l, "expected %d input(s), got %d", n, len(inputs))
	}
	return nil
}

// expectRank checks the number of inputs is one, with the given rank.
func expectRank(l nn.Layer, inputs [][]int, rank int) error {
	if err := expectInputs(l, inputs, 1); err != nil {
		return err
	}
	if len(inputs[0]) != rank {
		return shapeErrorf(l, "expected input of rank %d, got dimensions %v", rank, inputs[0])
	}
	return nil
}

// prepare validates the tensors given to Apply, runs the shape rule on the dimensions of the inputs and
// reshapes the outputs accordingly.
func prepare(l nn.Layer, inputs, outputs []*tensors.Tensor) error {
	if len(outputs) != nn.NumLayerOutputs(l) {
		return nnerrors.Argumentf("%s %q: expected %d output tensor(s), got %d", l.Kind(), l.Name(), nn.NumLayerOutputs(l), len(outputs))
	}
	inDims := make([][]int, len(inputs))
	for i, t := range inputs {
		if t == nil {
			return nnerrors.Argumentf("%s %q: input #%d is nil", l.Kind(), l.Name(), i)
		}
		inDims[i] = t.Dims()
	}
	outDims, err := l.OutputDimensions(inDims)
	if err != nil {
		return err
	}
	for i, t := range outputs {
		if t == nil {
			return nnerrors.Argumentf("%s %q: output #%d is nil", l.Kind(), l.Name(), i)
		}
		if err := t.Reshape(outDims[i], t.Padding()); err != nil {
			return err
		}
	}
	return nil
}

// checkOperands validates the number of operands given to Generate.
func checkOperands(l nn.Layer, inputs, outputs []jit.Operand, numInputs int) error {
	if numInputs >= 0 && len(inputs) != numInputs {
		return nnerrors.Compilationf("%s %q: expected %d input operand(s), got %d", l.Kind(), l.Name(), numInputs, len(inputs))
	}
	if len(outputs) != nn.NumLayerOutputs(l) {
		return nnerrors.Compilationf("%s %q: expected %d output operand(s), got %d", l.Kind(), l.Name(), nn.NumLayerOutputs(l), len(outputs))
	}
	return nil
}

// emitCopy emits a copy of the input to the output, if they don't share storage.
func emitCopy(e *jit.Emitter, input, output jit.Operand) {
	if jit.SameStorage(input, output) {
		return
	}
	in, out := input.Data, output.Data
	e.Emit(func() { copy(out, in) })
}

// tensorData returns the data of an optional tensor, or nil.
func tensorData(t *tensors.Tensor) []float32 {
	if t == nil {
		return nil
	}
	return t.Data()
}

// tensorSize returns the size of an optional tensor, or 0.
func tensorSize(t *tensors.Tensor) int {
	if t == nil {
		return 0
	}
	return t.Size()
}

// lastDim returns the last dimension, or 1 for scalars.
func lastDim(dims []int) int {
	if len(dims) == 0 {
		return 1
	}
	return dims[len(dims)-1]
}

// orOne replaces non-positive values by 1, used for strides and dilation rates missing from serialized layers.
func orOne(pair [2]int) [2]int {
	for i, v := range pair {
		if v <= 0 {
			pair[i] = 1
		}
	}
	return pair
}
