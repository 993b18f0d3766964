// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors implement a `Tensor`, a dense multidimensional array of float32 values.
//
// Tensors are used as inputs and outputs of compiled networks and of the interpreter, and to
// hold the learned weights of layers.
//
// A Tensor owns its storage: a contiguous slice of float32 with Size() elements, plus an optional
// padding of spare elements at the end, that allows kernels to read a little past the last element.
// The storage is reused by Reshape whenever its capacity suffices.
//
// Tensors can be constructed with:
//
//   - New(dims ...int): zero-valued tensor with the given dimensions.
//   - NewPadded(dims, padding): same, with extra spare elements at the end of the storage.
//   - FromData(dims, data): tensor holding a copy of the flat data given.
//   - FromValues(values...): rank-1 tensor with the values given.
package tensors

import (
	"iter"
	"slices"
	"unsafe"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/gomlx/compilednn/pkg/core/shapes"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
)

// Tensor represents a multidimensional array of float32, stored in row-major order.
//
// It is not safe for concurrent modification.
type Tensor struct {
	dims    []int
	size    int
	padding int

	// storage has length size+padding, and may have a larger capacity.
	storage []float32
}

// New creates a zero-valued tensor with the given dimensions. A tensor with no dimensions is a scalar.
//
// It panics for negative dimensions. Use NewPadded to get an error instead.
func New(dims ...int) *Tensor {
	t, err := NewPadded(dims, 0)
	if err != nil {
		exceptions.Panicf("tensors.New: %v", err)
	}
	return t
}

// NewPadded creates a zero-valued tensor with the given dimensions, and padding extra spare elements at the end
// of its storage.
//
// It fails with an ArgumentError if any dimension or the padding is negative.
func NewPadded(dims []int, padding int) (*Tensor, error) {
	t := &Tensor{}
	if err := t.Reshape(dims, padding); err != nil {
		return nil, err
	}
	return t, nil
}

// FromData creates a tensor with the given dimensions and a copy of data.
// It fails with an ArgumentError if len(data) doesn't match the size of dims.
func FromData(dims []int, data []float32) (*Tensor, error) {
	t, err := NewPadded(dims, 0)
	if err != nil {
		return nil, err
	}
	if len(data) != t.size {
		return nil, nnerrors.Argumentf("tensors.FromData: dimensions %v require %d values, got %d", dims, t.size, len(data))
	}
	copy(t.storage, data)
	return t, nil
}

// FromValues creates a rank-1 tensor with a copy of the values given.
func FromValues(values ...float32) *Tensor {
	t := New(len(values))
	copy(t.storage, values)
	return t
}

// Reshape changes the dimensions (and padding) of the tensor in place.
//
// The storage is kept if its capacity suffices, and reallocated otherwise. The contents of the tensor are
// preserved up to the minimum of the old and new sizes when the storage is kept; newly exposed elements are
// not cleared.
//
// It fails with an ArgumentError if any dimension or the padding is negative, in which case the tensor is unchanged.
func (t *Tensor) Reshape(dims []int, padding int) error {
	if padding < 0 {
		return nnerrors.Argumentf("tensor padding must be >= 0, got %d", padding)
	}
	shape, err := shapes.MakeChecked(dtypes.Float32, dims...)
	if err != nil {
		return nnerrors.Argumentf("invalid tensor dimensions: %v", err)
	}
	size := shape.Size()
	required := size + padding
	if cap(t.storage) >= required {
		t.storage = t.storage[:required]
	} else {
		newStorage := make([]float32, required)
		copy(newStorage, t.storage)
		t.storage = newStorage
	}
	t.dims = slices.Clone(dims)
	t.size = size
	t.padding = padding
	return nil
}

// Size returns the number of elements of the tensor, the product of its dimensions. It is 1 for a scalar.
func (t *Tensor) Size() int { return t.size }

// Rank returns the number of axes of the tensor.
func (t *Tensor) Rank() int { return len(t.dims) }

// Dims returns a copy of the dimensions of the tensor.
func (t *Tensor) Dims() []int { return slices.Clone(t.dims) }

// Dim returns the dimension of the given axis. Negative axes count from the end.
// It panics for an out-of-range axis.
func (t *Tensor) Dim(axis int) int {
	adjusted := axis
	if adjusted < 0 {
		adjusted += len(t.dims)
	}
	if adjusted < 0 || adjusted >= len(t.dims) {
		exceptions.Panicf("Tensor.Dim(%d) out-of-bounds for rank %d", axis, len(t.dims))
	}
	return t.dims[adjusted]
}

// Padding returns the number of spare elements at the end of the storage.
func (t *Tensor) Padding() int { return t.padding }

// Shape returns the shape of the tensor, with dtype Float32.
func (t *Tensor) Shape() shapes.Shape {
	return shapes.Shape{DType: dtypes.Float32, Dimensions: slices.Clone(t.dims)}
}

// Data returns the flat contents of the tensor, a slice of Size() elements sharing the tensor storage.
//
// The slice is valid until the tensor is reshaped to a larger size.
func (t *Tensor) Data() []float32 { return t.storage[:t.size] }

// PaddedData returns the full storage of the tensor, including the padding.
func (t *Tensor) PaddedData() []float32 { return t.storage }

// Uint8Data returns a view of the first Size() bytes of the tensor storage.
//
// It is used to feed 8-bit inputs: the caller writes one byte per element, and the values are
// converted to float32 in place before evaluation.
func (t *Tensor) Uint8Data() []byte {
	if t.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&t.storage[0])), shapes.Make(dtypes.Uint8, t.dims...).Memory())
}

// Memory returns the number of bytes used by the elements of the tensor, excluding the padding.
func (t *Tensor) Memory() uintptr { return t.Shape().Memory() }

// At returns the element at the flat index i.
// It fails with an ArgumentError if i is out of range.
func (t *Tensor) At(i int) (float32, error) {
	if i < 0 || i >= t.size {
		return 0, nnerrors.Argumentf("tensor index %d out of range for size %d", i, t.size)
	}
	return t.storage[i], nil
}

// SetAt sets the element at flat index i.
// It fails with an ArgumentError if i is out of range.
func (t *Tensor) SetAt(i int, value float32) error {
	if i < 0 || i >= t.size {
		return nnerrors.Argumentf("tensor index %d out of range for size %d", i, t.size)
	}
	t.storage[i] = value
	return nil
}

// All iterates sequentially over the flat index and value of every element.
func (t *Tensor) All() iter.Seq2[int, float32] {
	return func(yield func(int, float32) bool) {
		for i, v := range t.storage[:t.size] {
			if !yield(i, v) {
				return
			}
		}
	}
}

// Fill sets all elements to value.
func (t *Tensor) Fill(value float32) {
	data := t.Data()
	for i := range data {
		data[i] = value
	}
}

// CopyFrom reshapes t to the dimensions of other and copies its contents.
func (t *Tensor) CopyFrom(other *Tensor) {
	// Dimensions of other are always valid.
	_ = t.Reshape(other.dims, t.padding)
	copy(t.storage[:t.size], other.storage[:other.size])
}

// Clone returns a deep copy of the tensor, with the same padding.
func (t *Tensor) Clone() *Tensor {
	clone := &Tensor{
		dims:    slices.Clone(t.dims),
		size:    t.size,
		padding: t.padding,
		storage: make([]float32, t.size+t.padding),
	}
	copy(clone.storage, t.storage)
	return clone
}

// EqualDims returns whether the tensor has the dimensions given.
func (t *Tensor) EqualDims(dims []int) bool {
	return slices.Equal(t.dims, dims)
}

// FromScalar creates a rank-0 tensor holding value.
func FromScalar(value float32) *Tensor {
	t := New()
	t.storage[0] = value
	return t
}
