// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_StartIfAvailable(t *testing.T) {
	pool := New()
	pool.maxParallelism = 2

	release := make(chan struct{})
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		require.True(t, pool.StartIfAvailable(func() {
			defer wg.Done()
			<-release
		}))
	}
	// Pool is full.
	assert.False(t, pool.StartIfAvailable(func() {}))
	close(release)
	wg.Wait()

	// Eventually the finished goroutines are accounted for.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var ran atomic.Bool
		done := make(chan struct{})
		if pool.StartIfAvailable(func() { ran.Store(true); close(done) }) {
			<-done
			assert.True(t, ran.Load())
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Timeout waiting for the pool to free up.")
		}
		runtime.Gosched()
	}

	// Disabled pool never starts goroutines.
	pool.maxParallelism = 0
	assert.False(t, pool.StartIfAvailable(func() {}))
}

func TestPool_ParallelFor(t *testing.T) {
	pool := New()
	pool.maxParallelism = 4
	for _, n := range []int{0, 1, 7, 100, 1001} {
		for _, parallelism := range []int{0, 1, 3, 8} {
			visited := make([]int32, n)
			var chunks atomic.Int32
			pool.ParallelFor(n, parallelism, 2, func(start, end int) {
				chunks.Add(1)
				for i := start; i < end; i++ {
					atomic.AddInt32(&visited[i], 1)
				}
			})
			for i, v := range visited {
				require.Equalf(t, int32(1), v, "n=%d, parallelism=%d: index %d visited %d times", n, parallelism, i, v)
			}
			if parallelism <= 1 && n > 0 {
				assert.Equal(t, int32(1), chunks.Load())
			}
			if n > 0 {
				assert.LessOrEqual(t, int(chunks.Load()), max(parallelism, 1))
			}
		}
	}

	// Disabled pool runs everything inline.
	pool.maxParallelism = 0
	var calls int
	pool.ParallelFor(10, 4, 1, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}
