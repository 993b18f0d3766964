// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package jit

import (
	"sync"
	"testing"

	"github.com/gomlx/compilednn/pkg/core/nnerrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntime(t *testing.T) {
	rt := NewRuntime()
	e := rt.NewEmitter(Options{})
	assert.Equal(t, DefaultVectorWidth, e.VectorWidth())

	var calls []string
	e.SetLabel("a")
	e.Emit(func() { calls = append(calls, "a") })
	e.SetLabel("b")
	e.Emit(func() { calls = append(calls, "b") })
	assert.Equal(t, "a,b", e.Labels())

	r, err := rt.Register("test", e)
	require.NoError(t, err)
	assert.Equal(t, 2, r.NumSteps())
	assert.Equal(t, 1, rt.NumRoutines())
	assert.Same(t, r, rt.Lookup(r.ID()))

	r.Run()
	r.Run()
	assert.Equal(t, []string{"a", "b", "a", "b"}, calls)

	rt.Unregister(r)
	assert.Equal(t, 0, rt.NumRoutines())
	assert.Nil(t, rt.Lookup(r.ID()))
	rt.Unregister(r) // No-op.

	rt.Close()
	assert.True(t, rt.IsClosed())
	_, err = rt.Register("late", rt.NewEmitter(Options{}))
	require.True(t, errors.Is(err, nnerrors.ErrCompilation))
}

func TestConcurrentRegistration(t *testing.T) {
	rt := NewRuntime()
	var wg sync.WaitGroup
	const n = 32
	ids := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := rt.NewEmitter(Options{})
			e.Emit(func() {})
			r, err := rt.Register("r", e)
			if assert.NoError(t, err) {
				ids[i] = r.ID().String()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, n, rt.NumRoutines())
	unique := make(map[string]bool)
	for _, id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, n)
}

func TestRuntimeRef(t *testing.T) {
	owned := OwnedRuntime()
	require.NotNil(t, owned.Runtime())
	assert.True(t, owned.IsOwned())
	owned.Release()
	assert.True(t, owned.Runtime().IsClosed())

	rt := NewRuntime()
	shared := SharedRuntime(rt)
	assert.False(t, shared.IsOwned())
	shared.Release()
	assert.False(t, rt.IsClosed())

	var zero RuntimeRef
	assert.Nil(t, zero.Runtime())
	zero.Release()
}

func TestEmitRows(t *testing.T) {
	rt := NewRuntime()
	for _, parallelism := range []int{0, 1, 4} {
		e := rt.NewEmitter(Options{MaxParallelism: parallelism, Debug: true})
		data := make([]float32, 100)
		e.EmitRows(len(data), 4, func(start, end int) {
			for i := start; i < end; i++ {
				data[i] += float32(i)
			}
		})
		e.EmitRows(0, 1, func(start, end int) { t.Fatal("empty range should not be emitted") })
		r, err := rt.Register("rows", e)
		require.NoError(t, err)
		assert.Equal(t, 1, r.NumSteps())
		r.Run()
		for i, v := range data {
			require.Equal(t, float32(i), v)
		}
	}
}

func TestConstantAndOperands(t *testing.T) {
	rt := NewRuntime()
	e := rt.NewEmitter(Options{HalfPrecision: true})
	values := []float32{1.0001, 2}
	c := e.Constant(values)
	assert.Equal(t, []float32{1, 2}, c)
	assert.Equal(t, float32(1.0001), values[0], "original values are not modified")
	assert.Equal(t, 2, e.ConstantsSize())
	assert.Nil(t, e.Constant(nil))

	storage := make([]float32, 8)
	a := Operand{Dims: []int{2, 2}, Data: storage[:4]}
	b := Operand{Dims: []int{4}, Data: storage[:4]}
	c2 := Operand{Dims: []int{4}, Data: storage[4:8]}
	assert.True(t, SameStorage(a, b))
	assert.False(t, SameStorage(a, c2))
	assert.Equal(t, 4, a.Size())
	assert.Equal(t, "operand[2 2]", a.String())
}
