// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"slices"

	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// Flatten reshapes its input to rank 1.
type Flatten struct {
	base
}

// NewFlatten returns a Flatten layer.
func NewFlatten(name string) *Flatten {
	return &Flatten{base: base{LayerName: name}}
}

func (l *Flatten) JSONTags() (string, string) { return "Flatten", nn.LayerInterfaceName }
func (l *Flatten) Kind() nn.Kind              { return nn.KindFlatten }
func (l *Flatten) AliasesInput() bool         { return true }

func (l *Flatten) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	return [][]int{{shapes.Size(inputs[0])}}, nil
}

func (l *Flatten) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyCopy(l, inputs, outputs)
}

func (l *Flatten) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	emitCopy(e, inputs[0], outputs[0])
	return nil
}

// Reshape changes the dimensions of its input, keeping the number of elements.
// One of the TargetShape dimensions can be -1, in which case it is inferred.
type Reshape struct {
	base
	TargetShape []int `json:"target_shape"`
}

// NewReshape returns a Reshape layer.
func NewReshape(name string, targetShape ...int) *Reshape {
	return &Reshape{base: base{LayerName: name}, TargetShape: slices.Clone(targetShape)}
}

func (l *Reshape) JSONTags() (string, string) { return "Reshape", nn.LayerInterfaceName }
func (l *Reshape) Kind() nn.Kind              { return nn.KindReshape }
func (l *Reshape) AliasesInput() bool         { return true }

func (l *Reshape) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	size := shapes.Size(inputs[0])
	out := slices.Clone(l.TargetShape)
	inferred := -1
	known := 1
	for axis, d := range out {
		switch {
		case d == -1 && inferred < 0:
			inferred = axis
		case d < 0:
			return nil, shapeErrorf(l, "invalid target shape %v", l.TargetShape)
		default:
			known *= d
		}
	}
	if inferred >= 0 {
		if known == 0 || size%known != 0 {
			return nil, shapeErrorf(l, "cannot reshape %v to %v", inputs[0], l.TargetShape)
		}
		out[inferred] = size / known
	} else if known != size {
		return nil, shapeErrorf(l, "cannot reshape %v (%d elements) to %v (%d elements)", inputs[0], size, l.TargetShape, known)
	}
	return [][]int{out}, nil
}

func (l *Reshape) Apply(inputs, outputs []*tensors.Tensor) error {
	return applyCopy(l, inputs, outputs)
}

func (l *Reshape) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	emitCopy(e, inputs[0], outputs[0])
	return nil
}

// Permute reorders the axes of its input. Dims are 1-based (as in Keras): output axis i is the
// input axis Dims[i]-1.
//
// Permute has no code generation rule: models using it can only be evaluated by the interpreter.
type Permute struct {
	base
	Dims []int `json:"dims"`
}

// NewPermute returns a Permute layer.
func NewPermute(name string, dims ...int) *Permute {
	return &Permute{base: base{LayerName: name}, Dims: slices.Clone(dims)}
}

func (l *Permute) JSONTags() (string, string) { return "Permute", nn.LayerInterfaceName }
func (l *Permute) Kind() nn.Kind              { return nn.KindPermute }

// permutation returns the 0-based permutation.
func (l *Permute) permutation(rank int) ([]int, error) {
	if len(l.Dims) != rank {
		return nil, shapeErrorf(l, "permutation %v given for an input of rank %d", l.Dims, rank)
	}
	perm := make([]int, rank)
	seen := make([]bool, rank)
	for i, d := range l.Dims {
		if d < 1 || d > rank || seen[d-1] {
			return nil, shapeErrorf(l, "invalid permutation %v", l.Dims)
		}
		seen[d-1] = true
		perm[i] = d - 1
	}
	return perm, nil
}

func (l *Permute) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectInputs(l, inputs, 1); err != nil {
		return nil, err
	}
	perm, err := l.permutation(len(inputs[0]))
	if err != nil {
		return nil, err
	}
	out := make([]int, len(perm))
	for i, p := range perm {
		out[i] = inputs[0][p]
	}
	return [][]int{out}, nil
}

func (l *Permute) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	perm, _ := l.permutation(inputs[0].Rank())
	kernels.Transpose(inputs[0].Data(), outputs[0].Data(), inputs[0].Dims(), perm)
	return nil
}
