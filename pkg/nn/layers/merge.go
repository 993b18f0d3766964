// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"slices"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// MergeOperation is the elementwise operation of a Merge layer.
type MergeOperation string

const (
	MergeAdd      MergeOperation = "add"
	MergeSubtract MergeOperation = "subtract"
	MergeMultiply MergeOperation = "multiply"
	MergeAverage  MergeOperation = "average"
	MergeMaximum  MergeOperation = "maximum"
	MergeMinimum  MergeOperation = "minimum"
)

var mergeOperations = map[MergeOperation]struct {
	kind nn.Kind
	op   kernels.MergeOp
}{
	MergeAdd:      {nn.KindAdd, kernels.MergeAdd},
	MergeSubtract: {nn.KindSubtract, kernels.MergeSubtract},
	MergeMultiply: {nn.KindMultiply, kernels.MergeMultiply},
	MergeAverage:  {nn.KindAverage, kernels.MergeAverage},
	MergeMaximum:  {nn.KindMaximum, kernels.MergeMaximum},
	MergeMinimum:  {nn.KindMinimum, kernels.MergeMinimum},
}

// Merge combines 2 or more inputs of the same dimensions elementwise (Subtract takes exactly 2).
type Merge struct {
	base
	Operation MergeOperation `json:"operation"`
}

// NewMerge returns a Merge layer.
func NewMerge(name string, operation MergeOperation) *Merge {
	return &Merge{base: base{LayerName: name}, Operation: operation}
}

func (l *Merge) JSONTags() (string, string) { return "Merge", nn.LayerInterfaceName }

func (l *Merge) Kind() nn.Kind {
	if def, found := mergeOperations[l.Operation]; found {
		return def.kind
	}
	return nn.KindInvalid
}

func (l *Merge) OutputDimensions(inputs [][]int) ([][]int, error) {
	if l.Kind() == nn.KindInvalid {
		return nil, shapeErrorf(l, "unknown merge operation %q", string(l.Operation))
	}
	if l.Operation == MergeSubtract {
		if err := expectInputs(l, inputs, 2); err != nil {
			return nil, err
		}
	} else if len(inputs) < 2 {
		return nil, shapeErrorf(l, "expected at least 2 inputs, got %d", len(inputs))
	}
	for i, in := range inputs[1:] {
		if !slices.Equal(in, inputs[0]) {
			return nil, shapeErrorf(l, "input #%d has dimensions %v, input #0 has %v", i+1, in, inputs[0])
		}
	}
	return [][]int{slices.Clone(inputs[0])}, nil
}

func (l *Merge) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	data := make([][]float32, len(inputs))
	for i, t := range inputs {
		data[i] = t.Data()
	}
	kernels.Merge(mergeOperations[l.Operation].op, data, outputs[0].Data())
	return nil
}

func (l *Merge) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, -1); err != nil {
		return err
	}
	data := make([][]float32, len(inputs))
	for i, operand := range inputs {
		data[i] = operand.Data
	}
	op, out := mergeOperations[l.Operation].op, outputs[0].Data
	e.Emit(func() { kernels.Merge(op, data, out) })
	return nil
}

// Concatenate joins its inputs along Axis. All other dimensions must be equal.
// Axis counts from the end if negative. There is no batch axis.
type Concatenate struct {
	base
	Axis int `json:"axis"`
}

// NewConcatenate returns a Concatenate layer.
func NewConcatenate(name string, axis int) *Concatenate {
	return &Concatenate{base: base{LayerName: name}, Axis: axis}
}

func (l *Concatenate) JSONTags() (string, string) { return "Concatenate", nn.LayerInterfaceName }
func (l *Concatenate) Kind() nn.Kind              { return nn.KindConcatenate }

func (l *Concatenate) axis(rank int) (int, error) {
	axis := l.Axis
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, shapeErrorf(l, "axis %d out of range for rank %d", l.Axis, rank)
	}
	return axis, nil
}

func (l *Concatenate) OutputDimensions(inputs [][]int) ([][]int, error) {
	if len(inputs) < 1 {
		return nil, shapeErrorf(l, "expected at least 1 input")
	}
	rank := len(inputs[0])
	axis, err := l.axis(rank)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(inputs[0])
	for i, in := range inputs[1:] {
		if len(in) != rank {
			return nil, shapeErrorf(l, "input #%d has rank %d, input #0 has rank %d", i+1, len(in), rank)
		}
		for a, d := range in {
			if a == axis {
				out[a] += d
			} else if d != out[a] {
				return nil, shapeErrorf(l, "input #%d has dimensions %v incompatible with %v on axis %d", i+1, in, inputs[0], a)
			}
		}
	}
	return [][]int{out}, nil
}

func (l *Concatenate) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	data := make([][]float32, len(inputs))
	dims := make([][]int, len(inputs))
	for i, t := range inputs {
		data[i], dims[i] = t.Data(), t.Dims()
	}
	axis, _ := l.axis(len(dims[0]))
	kernels.Concatenate(data, dims, outputs[0].Data(), axis)
	return nil
}

func (l *Concatenate) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, -1); err != nil {
		return err
	}
	data := make([][]float32, len(inputs))
	dims := make([][]int, len(inputs))
	for i, operand := range inputs {
		data[i], dims[i] = operand.Data, operand.Dims
	}
	axis, err := l.axis(len(dims[0]))
	if err != nil {
		return err
	}
	out := outputs[0].Data
	e.Emit(func() { kernels.Concatenate(data, dims, out, axis) })
	return nil
}
