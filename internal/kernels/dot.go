// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

// Dot returns the dot product of the first n elements of a and b, with the loop unrolled to the given width
// (1, 4, 8 or 16). Each unrolled lane keeps its own accumulator.
func Dot(a, b []float32, n, width int) float32 {
	a, b = a[:n], b[:n]
	switch width {
	case 4:
		return dot4(a, b)
	case 8:
		return dot8(a, b)
	case 16:
		return dot16(a, b)
	default:
		var sum float32
		for i, v := range a {
			sum += v * b[i]
		}
		return sum
	}
}

func dot4(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		aa, bb := a[i:i+4:i+4], b[i:i+4:i+4]
		s0 += aa[0] * bb[0]
		s1 += aa[1] * bb[1]
		s2 += aa[2] * bb[2]
		s3 += aa[3] * bb[3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

func dot8(a, b []float32) float32 {
	var s0, s1, s2, s3, s4, s5, s6, s7 float32
	n := len(a)
	i := 0
	for ; i+8 <= n; i += 8 {
		aa, bb := a[i:i+8:i+8], b[i:i+8:i+8]
		s0 += aa[0] * bb[0]
		s1 += aa[1] * bb[1]
		s2 += aa[2] * bb[2]
		s3 += aa[3] * bb[3]
		s4 += aa[4] * bb[4]
		s5 += aa[5] * bb[5]
		s6 += aa[6] * bb[6]
		s7 += aa[7] * bb[7]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return ((s0 + s1) + (s2 + s3)) + ((s4 + s5) + (s6 + s7))
}

func dot16(a, b []float32) float32 {
	var acc [16]float32
	n := len(a)
	i := 0
	for ; i+16 <= n; i += 16 {
		aa, bb := a[i:i+16:i+16], b[i:i+16:i+16]
		for j := range 16 {
			acc[j] += aa[j] * bb[j]
		}
	}
	for ; i < n; i++ {
		acc[0] += a[i] * b[i]
	}
	for step := 8; step > 0; step /= 2 {
		for j := range step {
			acc[j] += acc[j+step]
		}
	}
	return acc[0]
}

// Copy copies src into dst. It is a no-op if both share the same storage.
func Copy(dst, src []float32) {
	if len(dst) == 0 || &dst[0] == &src[0] {
		return
	}
	copy(dst, src)
}
