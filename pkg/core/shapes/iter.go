// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import "iter"

// Strides returns the strides for each axis of the dimensions given, assuming a "row-major" layout
// in memory.
//
// Notice the strides are **not in bytes**, but in indices.
func Strides(dimensions []int) (strides []int) {
	rank := len(dimensions)
	if rank == 0 {
		return
	}
	strides = make([]int, rank)
	currentStride := 1
	for axis := rank - 1; axis >= 0; axis-- {
		strides[axis] = currentStride
		currentStride *= dimensions[axis]
	}
	return
}

// Iter iterates sequentially over all possible indices of the given shape, in row-major order.
//
// It yields the flat index (counter) and a slice of indices for each axis.
//
// To avoid allocating, the yielded indices slice is owned by the Iter() method:
// don't change it inside the loop.
func (s Shape) Iter() iter.Seq2[int, []int] {
	indices := make([]int, s.Rank())
	return func(yield func(int, []int) bool) {
		if !s.Ok() {
			return
		}
		rank := s.Rank()
		if rank == 0 {
			_ = yield(0, indices)
			return
		}
		for _, dim := range s.Dimensions {
			if dim <= 0 {
				return
			}
		}
		for i := range indices {
			indices[i] = 0
		}
		flatIdx := 0
	yielder:
		for {
			if !yield(flatIdx, indices) {
				return
			}
			flatIdx++
			// Row-major order: the last axis changes fastest.
			for axis := rank - 1; axis >= 0; axis-- {
				indices[axis]++
				if indices[axis] < s.Dimensions[axis] {
					continue yielder
				}
				indices[axis] = 0
			}
			break
		}
	}
}
