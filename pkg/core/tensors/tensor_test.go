// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"encoding/json"
	"testing"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	scalar := New()
	assert.Equal(t, 0, scalar.Rank())
	assert.Equal(t, 1, scalar.Size())

	x := New(2, 3)
	assert.Equal(t, 2, x.Rank())
	assert.Equal(t, 6, x.Size())
	assert.Equal(t, []int{2, 3}, x.Dims())
	assert.Equal(t, 3, x.Dim(-1))
	assert.Len(t, x.Data(), 6)
	assert.Equal(t, "(float32)[2 3]", x.Shape().String())
	require.Panics(t, func() { _ = x.Dim(2) })
	require.Panics(t, func() { _ = New(-1) })

	padded, err := NewPadded([]int{4}, 3)
	require.NoError(t, err)
	assert.Len(t, padded.Data(), 4)
	assert.Len(t, padded.PaddedData(), 7)

	_, err = NewPadded([]int{4}, -1)
	require.True(t, errors.Is(err, nnerrors.ErrArgument))

	// Dims returns a copy.
	dims := x.Dims()
	dims[0] = 10
	assert.Equal(t, 2, x.Dim(0))
}

func TestReshape(t *testing.T) {
	x := FromValues(1, 2, 3, 4, 5, 6)
	storage := &x.PaddedData()[0]
	require.NoError(t, x.Reshape([]int{2, 3}, 0))
	assert.Equal(t, 6, x.Size())
	assert.Same(t, storage, &x.PaddedData()[0], "same size reshape must keep storage")
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, x.Data())

	require.NoError(t, x.Reshape([]int{3, 1}, 0))
	assert.Equal(t, 3, x.Size())
	assert.Same(t, storage, &x.PaddedData()[0])

	require.NoError(t, x.Reshape([]int{5, 5}, 2))
	assert.Equal(t, 25, x.Size())
	assert.Len(t, x.PaddedData(), 27)
	assert.Equal(t, float32(1), x.Data()[0], "contents preserved on reallocation")

	err := x.Reshape([]int{2, -2}, 0)
	require.True(t, errors.Is(err, nnerrors.ErrArgument))
	assert.Equal(t, []int{5, 5}, x.Dims(), "failed reshape leaves the tensor unchanged")

	// Size is the product of dimensions.
	for _, dims := range [][]int{{}, {0}, {7}, {2, 3, 4}, {1, 1, 1, 1}} {
		require.NoError(t, x.Reshape(dims, 0))
		want := 1
		for _, d := range dims {
			want *= d
		}
		assert.Equal(t, want, x.Size())
	}
}

func TestAt(t *testing.T) {
	x := FromValues(1, 2, 3)
	v, err := x.At(2)
	require.NoError(t, err)
	assert.Equal(t, float32(3), v)
	require.NoError(t, x.SetAt(0, 7))
	assert.Equal(t, float32(7), x.Data()[0])

	// Out of range, even inside the padding.
	padded, err := NewPadded([]int{2}, 4)
	require.NoError(t, err)
	for _, i := range []int{-1, 2, 3, 100} {
		_, err = padded.At(i)
		assert.Truef(t, errors.Is(err, nnerrors.ErrArgument), "At(%d)", i)
		assert.Truef(t, errors.Is(padded.SetAt(i, 1), nnerrors.ErrArgument), "SetAt(%d)", i)
	}
	assert.Equal(t, make([]float32, 6), padded.PaddedData())
}

func TestAll(t *testing.T) {
	x := FromValues(1, 2, 3, 4)
	var sum float32
	var last int
	for i, v := range x.All() {
		sum += v
		last = i
	}
	assert.Equal(t, float32(10), sum)
	assert.Equal(t, 3, last)

	count := 0
	for range x.All() {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestUint8Data(t *testing.T) {
	x := New(2, 2)
	bytes := x.Uint8Data()
	require.Len(t, bytes, 4)
	bytes[0] = 0xFF
	assert.NotEqual(t, float32(0), x.Data()[0], "byte view shares the storage")
	assert.Nil(t, New(0).Uint8Data())

	// 1 byte per element in the view, 4 bytes per element in the tensor.
	y, err := NewPadded([]int{3, 5}, 7)
	require.NoError(t, err)
	assert.Len(t, y.Uint8Data(), 15)
	assert.Equal(t, uintptr(60), y.Memory())
	assert.Equal(t, uintptr(4), FromScalar(1).Memory())
}

func TestCloneAndCopy(t *testing.T) {
	x, err := FromData([]int{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	clone := x.Clone()
	clone.Data()[0] = 10
	assert.Equal(t, float32(1), x.Data()[0])

	y := New(7)
	y.CopyFrom(x)
	assert.Equal(t, []int{2, 2}, y.Dims())
	assert.Equal(t, []float32{1, 2, 3, 4}, y.Data())
	assert.True(t, y.EqualDims([]int{2, 2}))

	_, err = FromData([]int{3}, []float32{1})
	require.True(t, errors.Is(err, nnerrors.ErrArgument))

	y.Fill(0.5)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, y.Data())
}

func TestJSON(t *testing.T) {
	x, err := FromData([]int{2, 1}, []float32{1.5, -2})
	require.NoError(t, err)
	data, err := json.Marshal(x)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dims":[2,1],"data":[1.5,-2]}`, string(data))

	var y Tensor
	require.NoError(t, json.Unmarshal(data, &y))
	assert.Equal(t, x.Dims(), y.Dims())
	assert.Equal(t, x.Data(), y.Data())

	err = json.Unmarshal([]byte(`{"dims":[3],"data":[1]}`), &y)
	require.True(t, errors.Is(err, nnerrors.ErrLoad))
}

func TestString(t *testing.T) {
	x, err := FromData([]int{2, 2}, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, "[2][2]float32{{1, 2}, {3, 4}}", x.String())
	assert.Equal(t, "float32(3)", FromScalar(3).String())
	assert.Equal(t, "[8]float32{0, 1, 2, ..., 5, 6, 7}", FromValues(0, 1, 2, 3, 4, 5, 6, 7).String())
}
