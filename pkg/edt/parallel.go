package edt

import (
	"runtime"
	"sync"
)

// NewParallelTransform creates a transform that fans each pass out
// across the given number of worker goroutines. A non-positive count
// selects one worker per available CPU core.
//
// Parallel and sequential transforms produce identical results: lines
// within a pass have no data dependency, every worker owns its scratch
// storage, and workers write disjoint ranges of the shared output
// buffer, so no locking is needed.
func NewParallelTransform(workers int) *Transform {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Transform{workers: workers}
}

// runPass executes pass over the half-open line range [0, n), either
// directly on the calling goroutine or chunked across workers.
func (t *Transform) runPass(n int, pass func(lo, hi int)) {
	if t.workers <= 1 || n < 2 {
		pass(0, n)
		return
	}

	var wg sync.WaitGroup

	// Split the lines into contiguous chunks, one per worker, using
	// ceiling division so every line is covered.
	linesPerWorker := (n + t.workers - 1) / t.workers
	for w := 0; w < t.workers; w++ {
		lo := w * linesPerWorker
		hi := lo + linesPerWorker
		if hi > n {
			hi = n
		}
		if lo >= n {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			pass(lo, hi)
		}(lo, hi)
	}

	wg.Wait()
}
