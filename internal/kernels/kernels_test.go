// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package kernels

import (
	"math"
	"math/rand/v2"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSlice(rng *rand.Rand, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}

func TestDot(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{0, 1, 3, 4, 7, 8, 15, 16, 17, 33, 100} {
		a, b := randomSlice(rng, n), randomSlice(rng, n)
		want := Dot(a, b, n, 1)
		for _, width := range []int{4, 8, 16} {
			assert.InDeltaf(t, want, Dot(a, b, n, width), 1e-4, "n=%d, width=%d", n, width)
		}
	}
	// Only the first n elements are used.
	assert.Equal(t, float32(2), Dot([]float32{1, 1, 5}, []float32{1, 1, 5}, 2, 8))
}

func TestExpApprox(t *testing.T) {
	for x := float32(-80); x <= 80; x += 0.37 {
		want := math.Exp(float64(x))
		got := float64(ExpApprox(x))
		require.InEpsilonf(t, want, got, 5e-6, "ExpApprox(%g)", x)
	}
	assert.False(t, math.IsInf(float64(ExpApprox(1000)), 0))
	assert.Greater(t, ExpApprox(-1000), float32(0))
}

func TestActivations(t *testing.T) {
	data := []float32{-2, -0.5, 0, 0.5, 2}

	relu := append([]float32(nil), data...)
	Relu(relu)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 2}, relu)

	leaky := append([]float32(nil), data...)
	LeakyRelu(leaky, 0.1)
	assert.InDeltaSlice(t, []float32{-0.2, -0.05, 0, 0.5, 2}, leaky, 1e-6)

	general := append([]float32(nil), data...)
	ReluGeneral(general, 1, 0, 0)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 1}, general)

	thresholded := append([]float32(nil), data...)
	ThresholdedRelu(thresholded, 0.5)
	assert.Equal(t, []float32{0, 0, 0, 0, 2}, thresholded)

	hard := append([]float32(nil), data...)
	HardSigmoid(hard)
	assert.InDeltaSlice(t, []float32{0.1, 0.4, 0.5, 0.6, 0.9}, hard, 1e-6)

	softsign := append([]float32(nil), data...)
	Softsign(softsign)
	assert.InDeltaSlice(t, []float32{-2.0 / 3, -1.0 / 3, 0, 1.0 / 3, 2.0 / 3}, softsign, 1e-6)

	for _, approx := range []bool{false, true} {
		sigmoid := append([]float32(nil), data...)
		Sigmoid(sigmoid, approx)
		tanh := append([]float32(nil), data...)
		Tanh(tanh, approx)
		elu := append([]float32(nil), data...)
		Elu(elu, 1, approx)
		selu := append([]float32(nil), data...)
		Selu(selu, approx)
		softplus := append([]float32(nil), data...)
		Softplus(softplus, approx)
		exponential := append([]float32(nil), data...)
		Exponential(exponential, approx)
		for i, x := range data {
			x64 := float64(x)
			assert.InDelta(t, 1/(1+math.Exp(-x64)), sigmoid[i], 1e-5)
			assert.InDelta(t, math.Tanh(x64), tanh[i], 1e-5)
			assert.InDelta(t, math.Log1p(math.Exp(x64)), softplus[i], 1e-5)
			assert.InDelta(t, math.Exp(x64), exponential[i], 1e-5)
			if x > 0 {
				assert.InDelta(t, x64, elu[i], 1e-6)
				assert.InDelta(t, seluScale*x64, selu[i], 1e-5)
			} else {
				assert.InDelta(t, math.Exp(x64)-1, elu[i], 1e-5)
				assert.InDelta(t, seluScale*seluAlpha*(math.Exp(x64)-1), selu[i], 1e-5)
			}
		}
	}
}

func TestSoftmax(t *testing.T) {
	data := []float32{1, 2, 3, 1000, 1000, 1000}
	Softmax(data, 3, false)
	var sum float32
	for _, v := range data[:3] {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Less(t, data[0], data[1])
	assert.InDeltaSlice(t, []float32{1.0 / 3, 1.0 / 3, 1.0 / 3}, data[3:], 1e-6)
}

func TestWindow(t *testing.T) {
	w, err := NewWindow(5, 5, 3, 3, 1, 1, 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 3, w.OutHeight)
	assert.Equal(t, 3, w.OutWidth)
	assert.Equal(t, 0, w.PadTop)

	w, err = NewWindow(5, 6, 3, 3, 2, 2, 1, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 3, w.OutHeight)
	assert.Equal(t, 3, w.OutWidth)
	assert.Equal(t, 1, w.PadTop)  // (3-1)*2+3-5 = 2
	assert.Equal(t, 0, w.PadLeft) // (3-1)*2+3-6 = 1

	w, err = NewWindow(7, 7, 3, 3, 1, 1, 2, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 3, w.OutHeight)

	_, err = NewWindow(2, 2, 3, 3, 1, 1, 1, 1, false)
	require.Error(t, err)
	_, err = NewWindow(5, 5, 3, 3, 0, 1, 1, 1, false)
	require.Error(t, err)
	_, err = NewWindow(9, 9, 3, 3, 2, 2, 2, 2, true)
	require.Error(t, err)
}

func TestConv2D(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for _, same := range []bool{false, true} {
		for _, stride := range []int{1, 2} {
			const height, width, inChannels, outChannels, kh, kw = 6, 5, 3, 4, 3, 2
			w, err := NewWindow(height, width, kh, kw, stride, stride, 1, 1, same)
			require.NoError(t, err)
			input := randomSlice(rng, height*width*inChannels)
			kernel := randomSlice(rng, kh*kw*inChannels*outChannels)
			bias := randomSlice(rng, outChannels)
			want := make([]float32, w.OutHeight*w.OutWidth*outChannels)
			Conv2D(input, kernel, bias, want, w, inChannels, outChannels)

			// Naive reference for one output element.
			var ref float32 = bias[1]
			for ky := range kh {
				for kx := range kw {
					iy, ix := ky-w.PadTop, kx-w.PadLeft
					if iy < 0 || ix < 0 {
						continue
					}
					for ci := range inChannels {
						ref += input[(iy*width+ix)*inChannels+ci] * kernel[((ky*kw+kx)*inChannels+ci)*outChannels+1]
					}
				}
			}
			assert.InDelta(t, ref, want[1], 1e-5)

			transposed := TransposeConvKernel(kernel, kh, kw, inChannels, outChannels)
			for _, width := range []int{1, 4, 8, 16} {
				got := make([]float32, len(want))
				Conv2DRows(input, transposed, bias, got, w, inChannels, outChannels, width, 0, 1)
				Conv2DRows(input, transposed, bias, got, w, inChannels, outChannels, width, 1, w.OutHeight)
				assert.InDeltaSlice(t, want, got, 1e-5)
			}
		}
	}
}

func TestDepthwiseConv2D(t *testing.T) {
	// 1 channel, multiplier 2, 2x2 kernel on a 2x2 input, valid padding: a single output pixel.
	w, err := NewWindow(2, 2, 2, 2, 1, 1, 1, 1, false)
	require.NoError(t, err)
	input := []float32{1, 2, 3, 4}
	kernel := []float32{1, 0, 1, 0, 1, 0, 1, 1} // [2,2,1,2]
	output := make([]float32, 2)
	DepthwiseConv2DRows(input, kernel, []float32{0.5, 0}, output, w, 1, 2, 0, 1)
	assert.Equal(t, []float32{10.5, 4}, output)
}

func TestDense(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	const rows, inSize, units = 3, 19, 5
	input := randomSlice(rng, rows*inSize)
	weights := randomSlice(rng, inSize*units)
	bias := randomSlice(rng, units)
	want := make([]float32, rows*units)
	Dense(input, weights, bias, want, inSize, units)
	var ref = bias[2]
	for i := range inSize {
		ref += input[inSize+i] * weights[i*units+2]
	}
	assert.InDelta(t, ref, want[units+2], 1e-5)

	transposed := Transpose2D(weights, inSize, units)
	got := make([]float32, len(want))
	DenseRange(input, transposed, bias, got, inSize, units, 8, 0, 7)
	DenseRange(input, transposed, bias, got, inSize, units, 8, 7, len(got))
	assert.InDeltaSlice(t, want, got, 1e-5)
}

func TestPooling(t *testing.T) {
	// 4x4 single channel input.
	input := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	w, err := NewWindow(4, 4, 2, 2, 2, 2, 1, 1, false)
	require.NoError(t, err)
	out := make([]float32, 4)
	MaxPool2DRows(input, out, w, 1, 0, w.OutHeight)
	assert.Equal(t, []float32{6, 8, 14, 16}, out)
	AveragePool2DRows(input, out, w, 1, 0, w.OutHeight)
	assert.Equal(t, []float32{3.5, 5.5, 11.5, 13.5}, out)

	// Same padding with 3x3 input, 2x2 window, stride 2: padded cells excluded.
	w, err = NewWindow(3, 3, 2, 2, 2, 2, 1, 1, true)
	require.NoError(t, err)
	small := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out = make([]float32, 4)
	AveragePool2DRows(small, out, w, 1, 0, w.OutHeight)
	assert.Equal(t, []float32{3, 4.5, 7.5, 9}, out)

	global := make([]float32, 2)
	GlobalMaxPool2D([]float32{1, -1, 3, -2, 2, -3}, global, 2)
	assert.Equal(t, []float32{3, -1}, global)
	GlobalAveragePool2D([]float32{1, -1, 3, -2, 2, -3}, global, 2)
	assert.Equal(t, []float32{2, -2}, global)
}

func TestMerge(t *testing.T) {
	a, b, c := []float32{1, 2}, []float32{3, -4}, []float32{2, 2}
	out := make([]float32, 2)
	Merge(MergeAdd, [][]float32{a, b, c}, out)
	assert.Equal(t, []float32{6, 0}, out)
	Merge(MergeSubtract, [][]float32{a, b}, out)
	assert.Equal(t, []float32{-2, 6}, out)
	Merge(MergeMultiply, [][]float32{a, b, c}, out)
	assert.Equal(t, []float32{6, -16}, out)
	Merge(MergeAverage, [][]float32{a, b}, out)
	assert.Equal(t, []float32{2, -1}, out)
	Merge(MergeMaximum, [][]float32{a, b}, out)
	assert.Equal(t, []float32{3, 2}, out)
	Merge(MergeMinimum, [][]float32{a, b}, out)
	assert.Equal(t, []float32{1, -4}, out)
}

func TestLayout(t *testing.T) {
	// 2x2x1 input.
	input := []float32{1, 2, 3, 4}
	padded := make([]float32, 4*3)
	Pad2D(input, padded, 2, 2, 1, 1, 1, 0, 1)
	assert.Equal(t, []float32{0, 0, 0, 1, 2, 0, 3, 4, 0, 0, 0, 0}, padded)

	cropped := make([]float32, 4)
	Crop2D(padded, cropped, 4, 3, 1, 1, 1, 0, 1)
	assert.Equal(t, input, cropped)

	up := make([]float32, 4*2)
	UpSample2D(input, up, 2, 2, 1, 2, 1)
	assert.Equal(t, []float32{1, 2, 1, 2, 3, 4, 3, 4}, up)

	concat := make([]float32, 6)
	Concatenate([][]float32{{1, 2, 3, 4}, {5, 6}}, [][]int{{2, 2}, {2, 1}}, concat, 1)
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, concat)
	Concatenate([][]float32{{1, 2, 3, 4}, {5, 6}}, [][]int{{2, 2}, {1, 2}}, concat, 0)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, concat)

	transposed := make([]float32, 6)
	Transpose([]float32{1, 2, 3, 4, 5, 6}, transposed, []int{2, 3}, []int{1, 0})
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, transposed)

	// [1,2,3] -> perm (2,0,1) -> [3,1,2]
	x := []float32{0, 1, 2, 3, 4, 5}
	Transpose(x, transposed, []int{1, 2, 3}, []int{2, 0, 1})
	assert.Equal(t, []float32{0, 3, 1, 4, 2, 5}, transposed)

	// Scalars are copied, empty tensors are a no-op.
	scalar := make([]float32, 1)
	Transpose([]float32{7}, scalar, nil, nil)
	assert.Equal(t, float32(7), scalar[0])
	Transpose(nil, nil, []int{0, 3}, []int{1, 0})
}

func TestConversions(t *testing.T) {
	data := make([]float32, 5)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data))
	copy(raw, []byte{0, 1, 127, 200, 255})
	Uint8ToFloat32(raw, data)
	assert.Equal(t, []float32{0, 1, 127, 200, 255}, data)

	half := []float32{1, 1.0001, 65504, 1e-8}
	RoundToHalf(half)
	assert.Equal(t, float32(1), half[0])
	assert.Equal(t, float32(1), half[1])
	assert.Equal(t, float32(65504), half[2])
	assert.Equal(t, float32(0), half[3])

	scaled := []float32{1, 2, 3, 4}
	ScaleShift(scaled, scaled, []float32{2, 3}, []float32{1, 0})
	assert.Equal(t, []float32{3, 6, 7, 12}, scaled)

	dst := []float32{0, 0}
	Copy(dst, []float32{1, 2})
	assert.Equal(t, []float32{1, 2}, dst)
}
