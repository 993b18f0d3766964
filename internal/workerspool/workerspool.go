// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool implements a soft-bounded pool of goroutines, used to split the rows of
// the heavier kernels (convolutions, dense, pooling) of a compiled routine.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool keeps tabs on the number of goroutines running row chunks, shared by all routines of a runtime.
type Pool struct {
	// maxParallelism is a soft target on the number of goroutines running chunks.
	// If 0 parallelism is disabled, if < 0 it is unlimited.
	maxParallelism int
	mu             sync.Mutex
	numRunning     int
}

// New returns a new Pool with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	return &Pool{maxParallelism: runtime.NumCPU()}
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0).
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// StartIfAvailable runs the task in a separate goroutine, if the pool is not full.
// It returns true if it started the task, false otherwise.
//
// It's up to the client to synchronize the end of the task.
func (w *Pool) StartIfAvailable(task func()) bool {
	if w.maxParallelism < 0 {
		go task()
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.maxParallelism == 0 || w.numRunning >= w.maxParallelism {
		return false
	}
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.mu.Unlock()
	}()
	return true
}

// ParallelFor splits the range [0, n) in at most `parallelism` contiguous chunks and calls fn(start, end)
// for each of them, returning only when all chunks are done.
//
// Chunks for which no goroutine is available are run inline by the caller, so ParallelFor never blocks
// waiting for the pool, and nested calls can't deadlock. Chunks are never smaller than minChunk (if minChunk > 0).
func (w *Pool) ParallelFor(n, parallelism, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if !w.IsEnabled() || parallelism <= 1 || n == 1 {
		fn(0, n)
		return
	}
	numChunks := min(parallelism, n)
	if minChunk > 0 {
		numChunks = min(numChunks, max(1, n/minChunk))
	}
	if numChunks <= 1 {
		fn(0, n)
		return
	}
	chunkSize := (n + numChunks - 1) / numChunks
	var wg sync.WaitGroup
	for start := chunkSize; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(start, end)
		}
		if !w.StartIfAvailable(task) {
			task()
		}
	}
	// The first chunk is always run by the caller.
	fn(0, min(chunkSize, n))
	wg.Wait()
}
