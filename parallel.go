package metrisca

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// ParallelFor runs body(i) for every i in [start, end) using a fork-join
// pool of goroutines that claim indices from a shared atomic counter —
// the same work-stealing scheme as parallel_for in parallel.hpp, adapted to
// goroutines the way the teacher dispatches one goroutine per key byte in
// cmd/attack_sbox_cpa.go. Worker count is bounded by GOMAXPROCS-1 (the
// caller goroutine participates as the last worker). Blocks until every
// index has been claimed and completed; there is no cross-item ordering
// guarantee and no early abort, matching spec.md §5.
func ParallelFor(start, end int, body func(i int)) {
	ParallelForLabel("", start, end, body)
}

// ProgressFunc is called under a mutex after each completed index, the way
// the original's progress bar update is guarded by a single lock.
type ProgressFunc func(done, total int)

// ParallelForLabel is ParallelFor with a progress label. The label is not
// used: no progress is reported. ParallelForProgress is the variant that
// takes a progress callback.
func ParallelForLabel(label string, start, end int, body func(i int)) {
	ParallelForProgress(start, end, body, nil)
}

// ParallelForProgress is the full-featured driver: an optional onProgress
// callback is invoked, guarded by a mutex, once per completed index.
func ParallelForProgress(start, end int, body func(i int), onProgress ProgressFunc) {
	if start >= end {
		return
	}
	total := end - start
	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	var next int64 = int64(start)
	var done int64
	var progressMu sync.Mutex

	work := func() {
		for {
			i := int(atomic.AddInt64(&next, 1) - 1)
			if i >= end {
				return
			}
			body(i)
			if onProgress != nil {
				progressMu.Lock()
				d := atomic.AddInt64(&done, 1)
				onProgress(int(d), total)
				progressMu.Unlock()
			}
		}
	}

	var wg sync.WaitGroup
	wg.Add(workers - 1)
	for w := 0; w < workers-1; w++ {
		go func() {
			defer wg.Done()
			work()
		}()
	}
	work()
	wg.Wait()
}
