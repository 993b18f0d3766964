// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layers

import (
	"github.com/gomlx/compilednn/internal/kernels"
	"github.com/gomlx/compilednn/pkg/core/tensors"
	"github.com/gomlx/compilednn/pkg/jit"
	"github.com/gomlx/compilednn/pkg/nn"
)

// ZeroPadding2D pads a [height, width, channels] input with zeros.
// Padding is ((top, bottom), (left, right)).
type ZeroPadding2D struct {
	base
	Padding [2][2]int `json:"padding"`
}

// NewZeroPadding2D returns a ZeroPadding2D layer.
func NewZeroPadding2D(name string, top, bottom, left, right int) *ZeroPadding2D {
	return &ZeroPadding2D{base: base{LayerName: name}, Padding: [2][2]int{{top, bottom}, {left, right}}}
}

func (l *ZeroPadding2D) JSONTags() (string, string) { return "ZeroPadding2D", nn.LayerInterfaceName }
func (l *ZeroPadding2D) Kind() nn.Kind              { return nn.KindZeroPadding2D }

func (l *ZeroPadding2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectRank(l, inputs, 3); err != nil {
		return nil, err
	}
	p := l.Padding
	if p[0][0] < 0 || p[0][1] < 0 || p[1][0] < 0 || p[1][1] < 0 {
		return nil, shapeErrorf(l, "negative padding %v", p)
	}
	in := inputs[0]
	return [][]int{{in[0] + p[0][0] + p[0][1], in[1] + p[1][0] + p[1][1], in[2]}}, nil
}

func (l *ZeroPadding2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	d, p := inputs[0].Dims(), l.Padding
	kernels.Pad2D(inputs[0].Data(), outputs[0].Data(), d[0], d[1], d[2], p[0][0], p[0][1], p[1][0], p[1][1])
	return nil
}

func (l *ZeroPadding2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	in, out, d, p := inputs[0].Data, outputs[0].Data, inputs[0].Dims, l.Padding
	e.Emit(func() { kernels.Pad2D(in, out, d[0], d[1], d[2], p[0][0], p[0][1], p[1][0], p[1][1]) })
	return nil
}

// Cropping2D crops a [height, width, channels] input.
// Cropping is ((top, bottom), (left, right)).
type Cropping2D struct {
	base
	Cropping [2][2]int `json:"cropping"`
}

// NewCropping2D returns a Cropping2D layer.
func NewCropping2D(name string, top, bottom, left, right int) *Cropping2D {
	return &Cropping2D{base: base{LayerName: name}, Cropping: [2][2]int{{top, bottom}, {left, right}}}
}

func (l *Cropping2D) JSONTags() (string, string) { return "Cropping2D", nn.LayerInterfaceName }
func (l *Cropping2D) Kind() nn.Kind              { return nn.KindCropping2D }

func (l *Cropping2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectRank(l, inputs, 3); err != nil {
		return nil, err
	}
	c, in := l.Cropping, inputs[0]
	if c[0][0] < 0 || c[0][1] < 0 || c[1][0] < 0 || c[1][1] < 0 {
		return nil, shapeErrorf(l, "negative cropping %v", c)
	}
	height, width := in[0]-c[0][0]-c[0][1], in[1]-c[1][0]-c[1][1]
	if height < 0 || width < 0 {
		return nil, shapeErrorf(l, "cropping %v larger than the input %v", c, in)
	}
	return [][]int{{height, width, in[2]}}, nil
}

func (l *Cropping2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	d, c := inputs[0].Dims(), l.Cropping
	kernels.Crop2D(inputs[0].Data(), outputs[0].Data(), d[0], d[1], d[2], c[0][0], c[0][1], c[1][0], c[1][1])
	return nil
}

func (l *Cropping2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	in, out, d, c := inputs[0].Data, outputs[0].Data, inputs[0].Dims, l.Cropping
	e.Emit(func() { kernels.Crop2D(in, out, d[0], d[1], d[2], c[0][0], c[0][1], c[1][0], c[1][1]) })
	return nil
}

// UpSampling2D repeats rows and columns of a [height, width, channels] input (nearest neighbor).
type UpSampling2D struct {
	base
	Size [2]int `json:"size"`
}

// NewUpSampling2D returns an UpSampling2D layer.
func NewUpSampling2D(name string, sizeHeight, sizeWidth int) *UpSampling2D {
	return &UpSampling2D{base: base{LayerName: name}, Size: [2]int{sizeHeight, sizeWidth}}
}

func (l *UpSampling2D) JSONTags() (string, string) { return "UpSampling2D", nn.LayerInterfaceName }
func (l *UpSampling2D) Kind() nn.Kind              { return nn.KindUpSampling2D }

func (l *UpSampling2D) OutputDimensions(inputs [][]int) ([][]int, error) {
	if err := expectRank(l, inputs, 3); err != nil {
		return nil, err
	}
	if l.Size[0] <= 0 || l.Size[1] <= 0 {
		return nil, shapeErrorf(l, "invalid size %v", l.Size)
	}
	in := inputs[0]
	return [][]int{{in[0] * l.Size[0], in[1] * l.Size[1], in[2]}}, nil
}

func (l *UpSampling2D) Apply(inputs, outputs []*tensors.Tensor) error {
	if err := prepare(l, inputs, outputs); err != nil {
		return err
	}
	d := inputs[0].Dims()
	kernels.UpSample2D(inputs[0].Data(), outputs[0].Data(), d[0], d[1], d[2], l.Size[0], l.Size[1])
	return nil
}

func (l *UpSampling2D) Generate(e *jit.Emitter, inputs, outputs []jit.Operand) error {
	if err := checkOperands(l, inputs, outputs, 1); err != nil {
		return err
	}
	in, out, d, s := inputs[0].Data, outputs[0].Data, inputs[0].Dims, l.Size
	e.Emit(func() { kernels.UpSample2D(in, out, d[0], d[1], d[2], s[0], s[1]) })
	return nil
}
