// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package shapes defines Shape, the dtype and dimensions of a tensor or of a tensor slot in a
// neural network graph, and the helpers used by shape inference and buffer planning.
//
// Dimensions are given in row-major order, without a batch axis. Spatial tensors use the
// [height, width, channels] layout.
//
// Example: the tensor holding a 32x32 RGB image has shape `(float32)[32 32 3]`, created with
// `shapes.Make(dtypes.Float32, 32, 32, 3)`.
package shapes

import (
	"fmt"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Shape represents the dtype and dimensions of a tensor.
type Shape struct {
	DType      dtypes.DType
	Dimensions []int
}

// Make returns a Shape with the values given. Dimensions can be 0 (empty tensors), but not negative.
//
// It panics for negative dimensions. Use MakeChecked to get an error instead.
func Make(dtype dtypes.DType, dimensions ...int) Shape {
	s, err := MakeChecked(dtype, dimensions...)
	if err != nil {
		exceptions.Panicf("shapes.Make: %v", err)
	}
	return s
}

// MakeChecked is like Make, but returns an error for negative dimensions.
func MakeChecked(dtype dtypes.DType, dimensions ...int) (Shape, error) {
	for axis, dim := range dimensions {
		if dim < 0 {
			return Shape{}, errors.Errorf("cannot create shape %v: axis %d has negative dimension %d", dimensions, axis, dim)
		}
	}
	return Shape{DType: dtype, Dimensions: slices.Clone(dimensions)}, nil
}

// Ok returns whether this is a valid Shape. A "zero" shape, that is just instantiating it with Shape{} will be invalid.
func (s Shape) Ok() bool { return s.DType != dtypes.InvalidDType }

// Rank of the shape, that is, the number of axes.
func (s Shape) Rank() int { return len(s.Dimensions) }

// String implements fmt.Stringer, pretty-prints the shape.
func (s Shape) String() string {
	if s.Rank() == 0 {
		return fmt.Sprintf("(%s)", s.DType)
	}
	return fmt.Sprintf("(%s)%v", s.DType, s.Dimensions)
}

// Size returns the number of elements of DType needed for this shape. It's the product of all dimensions.
func (s Shape) Size() int {
	return Size(s.Dimensions)
}

// Memory returns the number of bytes used to store an array of the given shape.
func (s Shape) Memory() uintptr {
	return s.DType.Memory() * uintptr(s.Size())
}

// Size returns the product of the dimensions given. It is 1 for an empty list (a scalar).
func Size(dimensions []int) int {
	size := 1
	for _, d := range dimensions {
		size *= d
	}
	return size
}

// CloneDimensions returns a deep copy of a list of dimensions lists, as used by nodes with
// multiple inputs or outputs.
func CloneDimensions(dims [][]int) [][]int {
	if dims == nil {
		return nil
	}
	out := make([][]int, len(dims))
	for ii, d := range dims {
		out[ii] = slices.Clone(d)
	}
	return out
}
