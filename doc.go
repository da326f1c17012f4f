// Package strided implements N-dimensional float32 arrays with row-major
// strides, NumPy-style broadcasting and a bump-pointer arena for storage.
//
// An array is a flat buffer plus a shape. Strides are derived from the shape
// at creation, and elementwise operations map every index of the broadcast
// result back onto both operands, stretching missing and size-1 dimensions.
//
// # Architecture Overview
//
//   - core: Shape, Strides, the broadcast rule and the error taxonomy
//   - kernels: Closed operator set, contiguous vector kernels, broadcast index plans
//   - runtime: Arena allocator and the data-parallel Engine
//   - array: NDArray lifecycle and the Add / Multiply API
//   - cmd: Command-line tools (ndrun, ndperf)
//
// # Basic Usage
//
//	a, _ := array.FromSlice(core.Shape{2, 1}, []float32{1, 2})
//	b, _ := array.FromSlice(core.Shape{1, 3}, []float32{2, 4, 6})
//
//	sum, err := array.Add(nil, a, b)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sum) // [[3, 5, 7], [4, 6, 8]]
//
// Arrays can also draw storage from a fixed region:
//
//	arena, _ := runtime.NewArena(1 << 16)
//	defer arena.Destroy()
//	x, err := array.NewFromArena(arena, core.Shape{64, 64})
//
// # Concurrency
//
// Elementwise fills above runtime.DefaultMinParallel elements are split into
// disjoint, cache-line aligned ranges and run on worker goroutines. Inputs are
// only read. An Arena must not be shared between goroutines; use
// runtime.LockedArena for that.
package strided
