package runtime

import (
	"errors"
	"fmt"
	"math"

	"github.com/sbl8/strided/core"
)

// Arena errors
var (
	ErrOutOfMemory    = errors.New("arena: out of memory")
	ErrNotInitialized = errors.New("arena: not initialized")
	ErrInvalidSize    = errors.New("arena: invalid allocation size")
)

// Arena manages a single pre-allocated byte slice handed out by a bump
// allocator. Allocations only ever advance the cursor; there is no way to free
// one allocation. Destroy drops the whole region at once.
// Not thread-safe without external locking, see LockedArena.
type Arena struct {
	buffer []byte // The underlying raw memory buffer, cache-line aligned
	cursor int    // Offset of the next free byte
	allocs int    // Number of successful allocations
	live   bool
}

// ArenaMetrics is a snapshot of arena usage.
type ArenaMetrics struct {
	Capacity    int     // Total bytes in the region
	Used        int     // Bytes handed out, including alignment padding
	Remaining   int     // Bytes still available
	Allocations int     // Successful allocations
	Utilization float64 // Used / Capacity (0.0-1.0)
}

// NewArena allocates one contiguous region of capacity bytes.
func NewArena(capacity int) (*Arena, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("arena: negative capacity %d: %w", capacity, core.ErrMemoryAllocation)
	}
	buf, err := allocRegion(capacity)
	if err != nil {
		return nil, err
	}
	return &Arena{buffer: buf, live: true}, nil
}

// allocRegion turns a failed make into an error instead of a panic.
func allocRegion(capacity int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("arena: failed to allocate buffer of size %d: %v: %w", capacity, r, core.ErrMemoryAllocation)
		}
	}()
	return core.AlignedBytes(capacity), nil
}

// Alloc returns the next n bytes of the region and advances the cursor.
// When fewer than n bytes remain it fails with ErrOutOfMemory and the cursor
// is left untouched. The returned slice has capacity n, so appending to it
// never spills into a neighbouring allocation.
func (a *Arena) Alloc(n int) ([]byte, error) {
	return a.AllocAligned(n, 1)
}

// AllocAligned rounds the cursor up to align before allocating n bytes.
// align must be a power of two no larger than core.CacheLineSize.
func (a *Arena) AllocAligned(n, align int) ([]byte, error) {
	if a == nil || !a.live {
		return nil, ErrNotInitialized
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, n)
	}
	if !core.IsPowerOfTwo(align) || align > core.CacheLineSize {
		return nil, fmt.Errorf("%w: alignment %d", ErrInvalidSize, align)
	}

	start := core.AlignSize(a.cursor, align)
	if start > len(a.buffer) || n > len(a.buffer)-start {
		return nil, fmt.Errorf("%w: requested %d bytes at offset %d, capacity %d", ErrOutOfMemory, n, start, len(a.buffer))
	}

	end := start + n
	a.cursor = end
	a.allocs++
	return a.buffer[start:end:end], nil
}

// AllocFloat32s carves a 4-byte aligned []float32 of n elements from a.
// The elements are zeroed.
func AllocFloat32s(a *Arena, n int) ([]float32, error) {
	if n < 0 || n > math.MaxInt/core.Float32Size {
		return nil, fmt.Errorf("%w: %d float32 elements", ErrInvalidSize, n)
	}
	b, err := a.AllocAligned(n*core.Float32Size, core.Float32Size)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []float32{}, nil
	}
	clear(b)
	return core.Float32s(b), nil
}

// Destroy releases the whole region. Every slice returned by Alloc becomes
// invalid at once and further allocations fail with ErrNotInitialized.
// Destroying a nil or already destroyed arena does nothing.
func (a *Arena) Destroy() {
	if a == nil {
		return
	}
	a.buffer = nil
	a.cursor = 0
	a.live = false
}

// Live reports whether the arena can still allocate.
func (a *Arena) Live() bool {
	return a != nil && a.live
}

// Capacity returns the total size of the region in bytes.
func (a *Arena) Capacity() int {
	if a == nil {
		return 0
	}
	return len(a.buffer)
}

// Used returns the cursor position, i.e. bytes handed out including padding.
func (a *Arena) Used() int {
	if a == nil {
		return 0
	}
	return a.cursor
}

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int {
	return a.Capacity() - a.Used()
}

// Allocations returns the number of successful allocations.
func (a *Arena) Allocations() int {
	if a == nil {
		return 0
	}
	return a.allocs
}

// Utilization returns the ratio of used bytes to capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	capacity := a.Capacity()
	if capacity == 0 {
		return 0
	}
	return float64(a.Used()) / float64(capacity)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		Capacity:    a.Capacity(),
		Used:        a.Used(),
		Remaining:   a.Remaining(),
		Allocations: a.Allocations(),
		Utilization: a.Utilization(),
	}
}
