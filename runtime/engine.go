// Package runtime implements the strided execution engine and memory management.
//
// This package provides the two stateful pieces of the module: Arena, a fixed
// bump allocator that can back array storage, and Engine, which executes a
// kernels.Plan over an output buffer using worker goroutines.
//
// Key components:
//   - Arena: Monotonic allocator over one cache-aligned region
//   - LockedArena: Mutex-serialised Arena for concurrent allocation
//   - Engine: Data-parallel elementwise fill with configurable workers
//   - ExecutionStats: Per-engine execution counters
//
// Execution model:
//  1. Validate the operator and output size on the calling goroutine
//  2. Split the output index space into contiguous, cache-line rounded ranges
//  3. Fill each range on its own worker; inputs are only read
//  4. Wait for every worker before returning
//
// Small outputs skip step 2 and run on the calling goroutine.
package runtime

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
)

// DefaultMinParallel is the smallest output size split across workers.
const DefaultMinParallel = 1 << 14

// EngineOptions configures engine behavior
type EngineOptions struct {
	Workers     int  // Worker goroutines per fill; <= 0 selects runtime.NumCPU()
	MinParallel int  // Outputs smaller than this run on the caller; <= 0 selects DefaultMinParallel
	EnableStats bool // Track ExecutionStats
}

// ExecutionStats tracks engine activity
type ExecutionStats struct {
	TotalExecutions    int64
	ParallelExecutions int64
	ElementsProcessed  int64
	KernelExecutions   map[kernels.Op]int64
}

// Engine runs elementwise plans. An Engine is safe for concurrent use; each
// Run call owns its output buffer.
type Engine struct {
	workers     atomic.Int64
	minParallel int
	batch       int
	enableStats bool

	totalExecutions    atomic.Int64
	parallelExecutions atomic.Int64
	elementsProcessed  atomic.Int64
	kernelExecutions   [256]atomic.Int64
}

// DefaultEngineOptions provides sensible runtime defaults
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		Workers:     runtime.NumCPU(),
		MinParallel: DefaultMinParallel,
		EnableStats: false,
	}
}

var defaultEngine = NewEngine(nil)

// Default returns the shared engine configured with DefaultEngineOptions.
func Default() *Engine {
	return defaultEngine
}

// NewEngine creates an engine. A nil opts selects DefaultEngineOptions.
func NewEngine(opts *EngineOptions) *Engine {
	o := DefaultEngineOptions()
	if opts != nil {
		o = *opts
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.MinParallel <= 0 {
		o.MinParallel = DefaultMinParallel
	}

	e := &Engine{
		minParallel: o.MinParallel,
		batch:       core.OptimalBatchSize(core.Float32Size),
		enableStats: o.EnableStats,
	}
	e.workers.Store(int64(o.Workers))
	return e
}

// SetWorkers configures the number of worker goroutines for parallel execution
func (e *Engine) SetWorkers(n int) {
	if n > 0 {
		e.workers.Store(int64(n))
	}
}

// Workers returns the configured number of worker goroutines.
func (e *Engine) Workers() int {
	return int(e.workers.Load())
}

// Run fills dst with op applied over plan. All checks happen before any
// element is written: an invalid op fails with core.ErrInvalidOperation and a
// dst that does not hold plan.Size() elements with core.ErrInvalidDimension.
func (e *Engine) Run(op kernels.Op, plan *kernels.Plan, dst []float32) error {
	if plan == nil {
		return fmt.Errorf("engine: nil plan: %w", core.ErrNullPointer)
	}
	if !op.Valid() {
		return fmt.Errorf("engine: %w: %v", core.ErrInvalidOperation, op)
	}
	n := plan.Size()
	if len(dst) != n {
		return fmt.Errorf("engine: %w: destination holds %d elements, plan needs %d", core.ErrInvalidDimension, len(dst), n)
	}

	ranges := e.partition(n)
	if len(ranges) <= 1 {
		plan.Run(op, dst, 0, n)
	} else {
		var wg sync.WaitGroup
		for _, r := range ranges {
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				plan.Run(op, dst, lo, hi)
			}(r[0], r[1])
		}
		wg.Wait()
	}

	e.updateStats(op, n, len(ranges) > 1)
	return nil
}

// partition splits [0, n) into at most Workers() contiguous ranges whose
// boundaries fall on whole cache lines of float32.
func (e *Engine) partition(n int) [][2]int {
	workers := e.Workers()
	if n < e.minParallel || workers <= 1 {
		return [][2]int{{0, n}}
	}

	chunk := (n + workers - 1) / workers
	chunk = (chunk + e.batch - 1) / e.batch * e.batch

	ranges := make([][2]int, 0, workers)
	for lo := 0; lo < n; lo += chunk {
		ranges = append(ranges, [2]int{lo, min(lo+chunk, n)})
	}
	return ranges
}

func (e *Engine) updateStats(op kernels.Op, n int, parallel bool) {
	if !e.enableStats {
		return
	}
	e.totalExecutions.Add(1)
	if parallel {
		e.parallelExecutions.Add(1)
	}
	e.elementsProcessed.Add(int64(n))
	e.kernelExecutions[op].Add(1)
}

// Stats returns a snapshot of execution statistics. Counters stay at zero
// unless EnableStats was set.
func (e *Engine) Stats() ExecutionStats {
	stats := ExecutionStats{
		TotalExecutions:    e.totalExecutions.Load(),
		ParallelExecutions: e.parallelExecutions.Load(),
		ElementsProcessed:  e.elementsProcessed.Load(),
		KernelExecutions:   make(map[kernels.Op]int64),
	}
	for i := range e.kernelExecutions {
		if c := e.kernelExecutions[i].Load(); c > 0 {
			stats.KernelExecutions[kernels.Op(i)] = c
		}
	}
	return stats
}
