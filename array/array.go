// Package array implements NDArray, an owned N-dimensional float32 buffer,
// and the broadcasting elementwise operations over it.
//
// An NDArray is created by New (heap storage) or NewFromArena (storage carved
// from a runtime.Arena) and released with Destroy. Its shape and strides are
// fixed at creation; only the data buffer is mutable.
//
// Elementwise operations take an optional destination. When the destination
// already has the broadcast shape it is filled in place; otherwise a fresh
// array is allocated and returned, and the caller owns whatever array the call
// returns:
//
//	sum, err := array.Add(nil, a, b)   // allocates
//	sum, err = array.Multiply(sum, sum, b) // reuses sum
package array

import (
	"fmt"
	"math"

	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
	"github.com/sbl8/strided/runtime"
)

// ItemSize is the width of one element in bytes.
const ItemSize = core.Float32Size

// MaxElements bounds the element count of a single array.
const MaxElements = math.MaxInt / ItemSize

// NDArray is a dense row-major array of float32.
type NDArray struct {
	data    []float32
	shape   core.Shape
	strides core.Strides
	size    int
	arena   *runtime.Arena // non-nil when data lives in an arena
}

// New creates a zero-filled array of the given shape. An empty shape creates a
// scalar. Negative dimensions fail with core.ErrInvalidDimension; a shape
// whose element count cannot be allocated fails with core.ErrMemoryAllocation.
func New(shape core.Shape) (*NDArray, error) {
	size, err := shape.CheckedSize(MaxElements)
	if err != nil {
		return nil, err
	}
	data, err := makeData(size)
	if err != nil {
		return nil, err
	}
	return wrap(data, shape, size, nil), nil
}

// Create is New with an explicit rank: the first ndim entries of shape are
// used. ndim must be between 0 and len(shape).
func Create(shape []int, ndim int) (*NDArray, error) {
	if ndim < 0 || ndim > len(shape) {
		return nil, fmt.Errorf("%w: ndim %d for %d dimensions", core.ErrInvalidDimension, ndim, len(shape))
	}
	return New(core.Shape(shape[:ndim]))
}

// FromSlice creates an array of the given shape holding a copy of data.
func FromSlice(shape core.Shape, data []float32) (*NDArray, error) {
	arr, err := New(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != arr.size {
		return nil, fmt.Errorf("%w: %d values for shape %v of size %d", core.ErrInvalidDimension, len(data), shape, arr.size)
	}
	copy(arr.data, data)
	return arr, nil
}

// NewFromArena creates a zero-filled array whose data is carved from a.
// The data stays valid until a is destroyed. Arena failures are reported as
// core.ErrMemoryAllocation wrapping the arena error; nothing is allocated from
// a on failure.
func NewFromArena(a *runtime.Arena, shape core.Shape) (*NDArray, error) {
	size, err := shape.CheckedSize(MaxElements)
	if err != nil {
		return nil, err
	}
	data, err := runtime.AllocFloat32s(a, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v from arena: %w", core.ErrMemoryAllocation, shape, err)
	}
	return wrap(data, shape, size, a), nil
}

func wrap(data []float32, shape core.Shape, size int, a *runtime.Arena) *NDArray {
	return &NDArray{
		data:    data,
		shape:   shape.Clone(),
		strides: core.StridesOf(shape),
		size:    size,
		arena:   a,
	}
}

// makeData turns a failed make into an error instead of a panic.
func makeData(n int) (data []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %d elements: %v", core.ErrMemoryAllocation, n, r)
		}
	}()
	return make([]float32, n), nil
}

// Destroy releases the data, shape and strides of arr. Destroying nil is a
// no-op. Arena-backed data is returned to nobody: the arena frees it when it
// is itself destroyed. A destroyed array is rejected by every operation with
// core.ErrNullPointer.
func (arr *NDArray) Destroy() {
	if arr == nil {
		return
	}
	arr.data = nil
	arr.shape = nil
	arr.strides = nil
	arr.size = 0
	arr.arena = nil
}

// live reports whether arr is non-nil and not destroyed.
func (arr *NDArray) live() bool {
	return arr != nil && arr.shape != nil
}

// Shape returns a copy of the array's shape.
func (arr *NDArray) Shape() core.Shape {
	if !arr.live() {
		return nil
	}
	return arr.shape.Clone()
}

// Strides returns a copy of the array's element strides.
func (arr *NDArray) Strides() core.Strides {
	if !arr.live() {
		return nil
	}
	out := make(core.Strides, len(arr.strides))
	copy(out, arr.strides)
	return out
}

// NDim returns the rank; 0 for a scalar.
func (arr *NDArray) NDim() int {
	if !arr.live() {
		return 0
	}
	return len(arr.shape)
}

// Size returns the number of elements.
func (arr *NDArray) Size() int {
	if !arr.live() {
		return 0
	}
	return arr.size
}

// ItemSize returns the element width in bytes.
func (arr *NDArray) ItemSize() int {
	return ItemSize
}

// Data returns the live element buffer in row-major order. Writes through the
// returned slice modify the array.
func (arr *NDArray) Data() []float32 {
	if !arr.live() {
		return nil
	}
	return arr.data
}

// InArena reports whether the array's data was carved from an arena.
func (arr *NDArray) InArena() bool {
	return arr.live() && arr.arena != nil
}

// At returns the element at coord.
func (arr *NDArray) At(coord ...int) (float32, error) {
	off, err := arr.offset(coord)
	if err != nil {
		return 0, err
	}
	return arr.data[off], nil
}

// Set stores v at coord.
func (arr *NDArray) Set(v float32, coord ...int) error {
	off, err := arr.offset(coord)
	if err != nil {
		return err
	}
	arr.data[off] = v
	return nil
}

func (arr *NDArray) offset(coord []int) (int, error) {
	if !arr.live() {
		return 0, core.ErrNullPointer
	}
	off, ok := kernels.Offset(arr.shape, arr.strides, coord)
	if !ok {
		return 0, fmt.Errorf("%w: coordinate %v outside shape %v", core.ErrInvalidDimension, coord, arr.shape)
	}
	return off, nil
}

// operand exposes arr to the kernels without copying.
func (arr *NDArray) operand() kernels.Operand {
	return kernels.Operand{Data: arr.data, Shape: arr.shape, Strides: arr.strides}
}
