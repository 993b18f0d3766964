// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

// Dense computes output = input x weights + bias for every row of inSize elements of input, with
// weights in [inSize, units] layout. bias can be nil.
func Dense(input, weights, bias, output []float32, inSize, units int) {
	if inSize == 0 {
		for row := 0; row < len(output)/max(units, 1); row++ {
			out := output[row*units : (row+1)*units]
			if bias != nil {
				copy(out, bias)
			} else {
				clear(out)
			}
		}
		return
	}
	numRows := len(input) / inSize
	for row := range numRows {
		in := input[row*inSize : (row+1)*inSize]
		out := output[row*units : (row+1)*units]
		if bias != nil {
			copy(out, bias)
		} else {
			clear(out)
		}
		for i, x := range in {
			wRow := weights[i*units : (i+1)*units]
			for u, wv := range wRow {
				out[u] += x * wv
			}
		}
	}
}

// Transpose2D returns the transposed of a row-major [rows, cols] matrix.
func Transpose2D(m []float32, rows, cols int) []float32 {
	t := make([]float32, len(m))
	for r := range rows {
		for c := range cols {
			t[c*rows+r] = m[r*cols+c]
		}
	}
	return t
}

// DenseRange computes the flat output elements [start, end) of a dense layer, with the weights
// transposed to [units, inSize] layout. Output element i is row i/units, unit i%units.
func DenseRange(input, transposedWeights, bias, output []float32, inSize, units, width, start, end int) {
	for i := start; i < end; i++ {
		row, unit := i/units, i%units
		var sum float32
		if bias != nil {
			sum = bias[unit]
		}
		if inSize > 0 {
			sum += Dot(input[row*inSize:], transposedWeights[unit*inSize:], inSize, width)
		}
		output[i] = sum
	}
}
