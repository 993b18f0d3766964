// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"math"
)

const (
	ln2Hi  = 0.693359375
	ln2Lo  = -2.12194440e-4
	log2e  = 1.4426950408889634
	expMax = 88.0
	expMin = -87.0

	seluAlpha = 1.6732632423543772848170429916717
	seluScale = 1.0507009873554804934193349852946
)

// Exp returns e^x, using ExpApprox if approx is set.
func Exp(x float32, approx bool) float32 {
	if approx {
		return ExpApprox(x)
	}
	return float32(math.Exp(float64(x)))
}

// ExpApprox is a fast approximation of e^x, with a relative error of a few float32 ulps for x in [-87, 88].
// Inputs outside that range are clamped.
//
// It splits x = n*ln(2) + r, with |r| <= ln(2)/2, and evaluates 2^n * p(r) where p is the
// degree 6 Taylor polynomial of e^r. ln(2) is split in two parts so that n*ln2Hi is exact.
func ExpApprox(x float32) float32 {
	if x > expMax {
		x = expMax
	} else if x < expMin {
		x = expMin
	}
	n := float32(math.Round(float64(x * log2e)))
	r := (x - n*ln2Hi) - n*ln2Lo
	p := 1 + r*(1+r*(1.0/2+r*(1.0/6+r*(1.0/24+r*(1.0/120+r*(1.0/720))))))
	bits := uint32(int32(n)+127) << 23
	return p * math.Float32frombits(bits)
}

// Relu applies max(x, 0) in place.
func Relu(data []float32) {
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
}

// ReluGeneral applies the parametrized rectifier in place:
// f(x) = maxValue for x >= maxValue; x for threshold <= x < maxValue; negativeSlope*(x-threshold) otherwise.
// A maxValue that is +Inf disables the upper bound.
func ReluGeneral(data []float32, maxValue, negativeSlope, threshold float32) {
	for i, v := range data {
		switch {
		case v >= maxValue:
			data[i] = maxValue
		case v >= threshold:
			// Unchanged.
		default:
			data[i] = negativeSlope * (v - threshold)
		}
	}
}

// LeakyRelu applies x for x >= 0, and alpha*x otherwise, in place.
func LeakyRelu(data []float32, alpha float32) {
	for i, v := range data {
		if v < 0 {
			data[i] = alpha * v
		}
	}
}

// ThresholdedRelu applies x for x > theta, and 0 otherwise, in place.
func ThresholdedRelu(data []float32, theta float32) {
	for i, v := range data {
		if v <= theta {
			data[i] = 0
		}
	}
}

// Elu applies x for x > 0, and alpha*(e^x-1) otherwise, in place.
func Elu(data []float32, alpha float32, approx bool) {
	for i, v := range data {
		if v <= 0 {
			data[i] = alpha * (Exp(v, approx) - 1)
		}
	}
}

// Selu applies the scaled exponential linear unit in place.
func Selu(data []float32, approx bool) {
	for i, v := range data {
		if v > 0 {
			data[i] = seluScale * v
		} else {
			data[i] = seluScale * seluAlpha * (Exp(v, approx) - 1)
		}
	}
}

// Sigmoid applies 1/(1+e^-x) in place.
func Sigmoid(data []float32, approx bool) {
	for i, v := range data {
		data[i] = 1 / (1 + Exp(-v, approx))
	}
}

// HardSigmoid applies the piecewise linear approximation of the sigmoid, clip(0.2*x+0.5, 0, 1), in place.
func HardSigmoid(data []float32) {
	for i, v := range data {
		data[i] = min(max(0.2*v+0.5, 0), 1)
	}
}

// Tanh applies the hyperbolic tangent in place.
func Tanh(data []float32, approx bool) {
	if !approx {
		for i, v := range data {
			data[i] = float32(math.Tanh(float64(v)))
		}
		return
	}
	for i, v := range data {
		data[i] = 2/(1+ExpApprox(-2*v)) - 1
	}
}

// Softsign applies x/(1+|x|) in place.
func Softsign(data []float32) {
	for i, v := range data {
		if v < 0 {
			data[i] = v / (1 - v)
		} else {
			data[i] = v / (1 + v)
		}
	}
}

// Softplus applies log(1+e^x) in place.
func Softplus(data []float32, approx bool) {
	for i, v := range data {
		if v > 20 {
			// log(1+e^x) == x within float32 precision.
			continue
		}
		data[i] = float32(math.Log1p(float64(Exp(v, approx))))
	}
}

// Exponential applies e^x in place.
func Exponential(data []float32, approx bool) {
	for i, v := range data {
		data[i] = Exp(v, approx)
	}
}

// Softmax normalizes in place every consecutive group of `channels` values with the softmax function.
// len(data) must be a multiple of channels.
func Softmax(data []float32, channels int, approx bool) {
	if channels <= 0 {
		return
	}
	for start := 0; start+channels <= len(data); start += channels {
		row := data[start : start+channels]
		maxValue := row[0]
		for _, v := range row[1:] {
			maxValue = max(maxValue, v)
		}
		var sum float32
		for i, v := range row {
			e := Exp(v-maxValue, approx)
			row[i] = e
			sum += e
		}
		inv := 1 / sum
		for i := range row {
			row[i] *= inv
		}
	}
}
