package array

import (
	"errors"
	"math"
	"testing"

	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
	"github.com/sbl8/strided/runtime"
)

func mustFromSlice(t *testing.T, shape core.Shape, data []float32) *NDArray {
	t.Helper()
	arr, err := FromSlice(shape, data)
	if err != nil {
		t.Fatalf("FromSlice(%v) failed: %v", shape, err)
	}
	return arr
}

func floatsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		shape       core.Shape
		wantSize    int
		wantStrides core.Strides
		wantErr     error
	}{
		{"matrix", core.Shape{2, 3}, 6, core.Strides{3, 1}, nil},
		{"scalar", core.Shape{}, 1, core.Strides{}, nil},
		{"rank3", core.Shape{4, 1, 5}, 20, core.Strides{5, 5, 1}, nil},
		{"zero dim", core.Shape{3, 0, 2}, 0, core.Strides{0, 2, 1}, nil},
		{"negative", core.Shape{2, -1}, 0, nil, core.ErrInvalidDimension},
		{"overflow", core.Shape{math.MaxInt / 2, 4}, 0, nil, core.ErrMemoryAllocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := New(tt.shape)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New(%v) error = %v, want %v", tt.shape, err, tt.wantErr)
				}
				if arr != nil {
					t.Error("failed New returned an array")
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%v) failed: %v", tt.shape, err)
			}
			if arr.NDim() != len(tt.shape) {
				t.Errorf("NDim() = %d, want %d", arr.NDim(), len(tt.shape))
			}
			if arr.Size() != tt.wantSize || len(arr.Data()) != tt.wantSize {
				t.Errorf("Size() = %d, len(Data()) = %d, want %d", arr.Size(), len(arr.Data()), tt.wantSize)
			}
			if got := arr.Strides(); len(got) != len(tt.wantStrides) {
				t.Errorf("Strides() = %v, want %v", got, tt.wantStrides)
			} else {
				for i := range got {
					if got[i] != tt.wantStrides[i] {
						t.Errorf("Strides() = %v, want %v", got, tt.wantStrides)
						break
					}
				}
			}
			if arr.ItemSize() != 4 {
				t.Errorf("ItemSize() = %d, want 4", arr.ItemSize())
			}
			for i, v := range arr.Data() {
				if v != 0 {
					t.Fatalf("element %d not zeroed: %v", i, v)
				}
			}
		})
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()
	arr, err := Create([]int{2, 3}, 2)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if arr.NDim() != 2 || arr.Size() != 6 {
		t.Errorf("Create([2 3], 2): ndim=%d size=%d, want 2 and 6", arr.NDim(), arr.Size())
	}

	scalar, err := Create(nil, 0)
	if err != nil {
		t.Fatalf("Create(nil, 0) failed: %v", err)
	}
	if scalar.NDim() != 0 || scalar.Size() != 1 {
		t.Errorf("scalar: ndim=%d size=%d", scalar.NDim(), scalar.Size())
	}

	prefix, err := Create([]int{4, 5, 6}, 1)
	if err != nil || prefix.Size() != 4 {
		t.Errorf("Create([4 5 6], 1) = size %d, %v", prefix.Size(), err)
	}

	for _, ndim := range []int{-1, 3} {
		if _, err := Create([]int{2, 3}, ndim); !errors.Is(err, core.ErrInvalidDimension) {
			t.Errorf("Create(ndim=%d) error = %v, want ErrInvalidDimension", ndim, err)
		}
	}
}

func TestShapeIsCopied(t *testing.T) {
	t.Parallel()
	shape := core.Shape{2, 3}
	arr, err := New(shape)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	shape[0] = 99
	got := arr.Shape()
	got[1] = 42
	if s := arr.Shape(); !s.Equal(core.Shape{2, 3}) {
		t.Errorf("array shape changed to %v", s)
	}
}

func TestFromSlice(t *testing.T) {
	t.Parallel()
	src := []float32{1, 2, 3, 4}
	arr := mustFromSlice(t, core.Shape{2, 2}, src)
	src[0] = 100
	if arr.Data()[0] != 1 {
		t.Error("FromSlice did not copy its input")
	}
	if _, err := FromSlice(core.Shape{3}, []float32{1, 2}); !errors.Is(err, core.ErrInvalidDimension) {
		t.Errorf("short data error = %v, want ErrInvalidDimension", err)
	}
}

func TestAtSet(t *testing.T) {
	t.Parallel()
	arr := mustFromSlice(t, core.Shape{2, 3}, []float32{0, 1, 2, 3, 4, 5})

	v, err := arr.At(1, 2)
	if err != nil || v != 5 {
		t.Errorf("At(1, 2) = %v, %v; want 5", v, err)
	}
	if err := arr.Set(-1, 0, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if arr.Data()[1] != -1 {
		t.Errorf("Set(0, 1) wrote %v", arr.Data())
	}

	for _, coord := range [][]int{{2, 0}, {0, 3}, {-1, 0}, {1}} {
		if _, err := arr.At(coord...); !errors.Is(err, core.ErrInvalidDimension) {
			t.Errorf("At(%v) error = %v, want ErrInvalidDimension", coord, err)
		}
	}

	scalar := mustFromSlice(t, core.Shape{}, []float32{7})
	if v, err := scalar.At(); err != nil || v != 7 {
		t.Errorf("scalar At() = %v, %v", v, err)
	}
}

func TestDestroy(t *testing.T) {
	t.Parallel()
	arr, err := New(core.Shape{2, 2})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	arr.Destroy()

	if arr.Data() != nil || arr.Shape() != nil || arr.Strides() != nil {
		t.Error("Destroy left data, shape or strides behind")
	}
	if arr.Size() != 0 || arr.NDim() != 0 {
		t.Errorf("destroyed array reports size %d ndim %d", arr.Size(), arr.NDim())
	}
	if _, err := arr.At(0, 0); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("At on destroyed array error = %v, want ErrNullPointer", err)
	}
	other := mustFromSlice(t, core.Shape{2}, []float32{1, 2})
	if _, err := Add(nil, arr, other); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("Add with destroyed input error = %v, want ErrNullPointer", err)
	}

	arr.Destroy()
	var nilArr *NDArray
	nilArr.Destroy()
}

// Scenario: column [2 1] plus row [1 3].
func TestAddBroadcastColumnRow(t *testing.T) {
	t.Parallel()
	a := mustFromSlice(t, core.Shape{2, 1}, []float32{1, 2})
	b := mustFromSlice(t, core.Shape{1, 3}, []float32{2, 4, 6})

	result, err := Add(nil, a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !result.Shape().Equal(core.Shape{2, 3}) {
		t.Errorf("result shape = %v, want [2 3]", result.Shape())
	}
	want := []float32{3, 5, 7, 4, 6, 8}
	if !floatsEqual(result.Data(), want) {
		t.Errorf("result = %v, want %v", result.Data(), want)
	}
}

// Scenario: scalar 2 times a [2 3] matrix.
func TestMultiplyScalar(t *testing.T) {
	t.Parallel()
	a := mustFromSlice(t, core.Shape{}, []float32{2})
	b := mustFromSlice(t, core.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	result, err := Multiply(nil, a, b)
	if err != nil {
		t.Fatalf("Multiply failed: %v", err)
	}
	want := []float32{2, 4, 6, 8, 10, 12}
	if !floatsEqual(result.Data(), want) {
		t.Errorf("result = %v, want %v", result.Data(), want)
	}

	swapped, err := Multiply(nil, b, a)
	if err != nil {
		t.Fatalf("Multiply swapped failed: %v", err)
	}
	if !floatsEqual(swapped.Data(), want) {
		t.Errorf("swapped result = %v, want %v", swapped.Data(), want)
	}
}

// Scenario: [2 3] and [3 2] do not broadcast.
func TestAddIncompatible(t *testing.T) {
	t.Parallel()
	a, _ := New(core.Shape{2, 3})
	b, _ := New(core.Shape{3, 2})
	dst, _ := New(core.Shape{2, 3})
	for i := range dst.Data() {
		dst.Data()[i] = 9
	}

	got, err := Add(dst, a, b)
	if !errors.Is(err, core.ErrInvalidDimension) {
		t.Fatalf("Add error = %v, want ErrInvalidDimension", err)
	}
	if !errors.Is(err, core.ErrIncompatibleShapes) {
		t.Errorf("Add error = %v, want ErrIncompatibleShapes", err)
	}
	if got != dst {
		t.Error("failed Add did not return dst")
	}
	for i, v := range dst.Data() {
		if v != 9 {
			t.Fatalf("failed Add wrote dst[%d] = %v", i, v)
		}
	}
	if _, err := BroadcastShape(a, b); !errors.Is(err, core.ErrIncompatibleShapes) {
		t.Errorf("BroadcastShape error = %v, want ErrIncompatibleShapes", err)
	}
}

func TestElementwiseMatchesLogicalValues(t *testing.T) {
	t.Parallel()
	pairs := [][2]core.Shape{
		{{3, 4}, {3, 4}},
		{{3, 4}, {4}},
		{{5, 1, 3}, {4, 1}},
		{{2, 1, 3, 1}, {1, 4, 1, 2}},
		{{1}, {6}},
		{{}, {}},
	}
	ops := []kernels.Op{kernels.OpAdd, kernels.OpMul, kernels.OpSub, kernels.OpDiv, kernels.OpMax, kernels.OpMin}

	for _, p := range pairs {
		a, _ := New(p[0])
		b, _ := New(p[1])
		for i := range a.Data() {
			a.Data()[i] = float32(i) + 1
		}
		for i := range b.Data() {
			b.Data()[i] = float32(2*i) - 3.5
		}
		shape, err := BroadcastShape(a, b)
		if err != nil {
			t.Fatalf("BroadcastShape(%v, %v) failed: %v", p[0], p[1], err)
		}

		for _, op := range ops {
			result, err := Elementwise(op, nil, a, b)
			if err != nil {
				t.Fatalf("%v %v %v failed: %v", p[0], op, p[1], err)
			}
			if !result.Shape().Equal(shape) {
				t.Fatalf("result shape %v, want %v", result.Shape(), shape)
			}
			fn := kernels.Catalog[op]
			forEachCoord(shape, func(coord []int) {
				x, _ := a.At(alignCoord(coord, p[0])...)
				y, _ := b.At(alignCoord(coord, p[1])...)
				got, _ := result.At(coord...)
				if got != fn(x, y) {
					t.Errorf("%v %v %v at %v: got %v, want %v", p[0], op, p[1], coord, got, fn(x, y))
				}
			})
		}
	}
}

// forEachCoord visits every coordinate of shape in row-major order.
func forEachCoord(shape core.Shape, visit func([]int)) {
	coord := make([]int, len(shape))
	for n := shape.Size(); n > 0; n-- {
		visit(coord)
		for j := len(coord) - 1; j >= 0; j-- {
			coord[j]++
			if coord[j] < shape[j] {
				break
			}
			coord[j] = 0
		}
	}
}

// alignCoord projects an output coordinate onto an operand of the given shape.
func alignCoord(coord []int, shape core.Shape) []int {
	pad := len(coord) - len(shape)
	out := make([]int, len(shape))
	for j, d := range shape {
		if d != 1 {
			out[j] = coord[pad+j]
		}
	}
	return out
}

func TestElementwiseDestination(t *testing.T) {
	t.Parallel()
	a := mustFromSlice(t, core.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	b := mustFromSlice(t, core.Shape{3}, []float32{10, 20, 30})

	t.Run("reuse", func(t *testing.T) {
		dst, _ := New(core.Shape{2, 3})
		for i := range dst.Data() {
			dst.Data()[i] = -7
		}
		got, err := Add(dst, a, b)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if got != dst {
			t.Error("matching dst was not reused")
		}
		if !floatsEqual(dst.Data(), []float32{11, 22, 33, 14, 25, 36}) {
			t.Errorf("dst = %v", dst.Data())
		}
	})

	t.Run("reallocate", func(t *testing.T) {
		dst := mustFromSlice(t, core.Shape{4}, []float32{1, 1, 1, 1})
		got, err := Add(dst, a, b)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if got == dst {
			t.Fatal("mismatched dst was reused")
		}
		if !got.Shape().Equal(core.Shape{2, 3}) {
			t.Errorf("result shape = %v", got.Shape())
		}
		if !floatsEqual(dst.Data(), []float32{1, 1, 1, 1}) {
			t.Errorf("old dst modified: %v", dst.Data())
		}
	})

	t.Run("destroyed", func(t *testing.T) {
		dst, _ := New(core.Shape{2, 3})
		dst.Destroy()
		got, err := Add(dst, a, b)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if got == dst || got.Size() != 6 {
			t.Error("destroyed dst was not replaced")
		}
	})

	t.Run("alias", func(t *testing.T) {
		x := mustFromSlice(t, core.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		got, err := Multiply(x, x, b)
		if err != nil {
			t.Fatalf("Multiply failed: %v", err)
		}
		if got != x {
			t.Error("aliased dst was not reused")
		}
		if !floatsEqual(x.Data(), []float32{10, 40, 90, 40, 100, 180}) {
			t.Errorf("x = %v", x.Data())
		}

		y := mustFromSlice(t, core.Shape{2, 2}, []float32{1, 2, 3, 4})
		if _, err := Add(y, y, y); err != nil || !floatsEqual(y.Data(), []float32{2, 4, 6, 8}) {
			t.Errorf("y + y = %v, %v", y.Data(), err)
		}
	})
}

func TestElementwiseErrors(t *testing.T) {
	t.Parallel()
	a, _ := New(core.Shape{2})
	b, _ := New(core.Shape{2})

	if _, err := Add(nil, nil, b); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("nil a error = %v, want ErrNullPointer", err)
	}
	if _, err := Multiply(nil, a, nil); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("nil b error = %v, want ErrNullPointer", err)
	}
	if _, err := ElementwiseWith(nil, kernels.OpAdd, nil, a, b); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("nil engine error = %v, want ErrNullPointer", err)
	}
	for _, op := range []kernels.Op{kernels.OpNoop, kernels.Op(200)} {
		if got, err := Elementwise(op, nil, a, b); !errors.Is(err, core.ErrInvalidOperation) || got != nil {
			t.Errorf("op %v: got %v, %v; want nil, ErrInvalidOperation", op, got, err)
		}
	}
	if _, err := BroadcastShape(nil, b); !errors.Is(err, core.ErrNullPointer) {
		t.Errorf("BroadcastShape(nil) error = %v, want ErrNullPointer", err)
	}
}

func TestElementwiseZeroSize(t *testing.T) {
	t.Parallel()
	a, _ := New(core.Shape{0, 3})
	b, _ := New(core.Shape{3})
	result, err := Add(nil, a, b)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if !result.Shape().Equal(core.Shape{0, 3}) || result.Size() != 0 {
		t.Errorf("result shape %v size %d", result.Shape(), result.Size())
	}
	if _, err := Add(nil, a, mustFromSlice(t, core.Shape{2}, []float32{1, 2})); !errors.Is(err, core.ErrIncompatibleShapes) {
		t.Errorf("[0 3] + [2] error = %v, want ErrIncompatibleShapes", err)
	}
}

func TestElementwiseParallelEngine(t *testing.T) {
	t.Parallel()
	e := runtime.NewEngine(&runtime.EngineOptions{Workers: 4, MinParallel: 16, EnableStats: true})
	a, _ := New(core.Shape{64, 1})
	b, _ := New(core.Shape{1, 48})
	for i := range a.Data() {
		a.Data()[i] = float32(i)
	}
	for i := range b.Data() {
		b.Data()[i] = float32(i) * 0.25
	}

	par, err := ElementwiseWith(e, kernels.OpAdd, nil, a, b)
	if err != nil {
		t.Fatalf("parallel Add failed: %v", err)
	}
	seq, err := ElementwiseWith(runtime.NewEngine(&runtime.EngineOptions{Workers: 1}), kernels.OpAdd, nil, a, b)
	if err != nil {
		t.Fatalf("sequential Add failed: %v", err)
	}
	if !floatsEqual(par.Data(), seq.Data()) {
		t.Error("parallel and sequential results differ")
	}
	if s := e.Stats(); s.ParallelExecutions != 1 || s.ElementsProcessed != 64*48 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestNewFromArena(t *testing.T) {
	t.Parallel()
	arena, err := runtime.NewArena(64)
	if err != nil {
		t.Fatalf("NewArena failed: %v", err)
	}

	arr, err := NewFromArena(arena, core.Shape{2, 3})
	if err != nil {
		t.Fatalf("NewFromArena failed: %v", err)
	}
	if !arr.InArena() || arr.Size() != 6 {
		t.Errorf("InArena=%v Size=%d", arr.InArena(), arr.Size())
	}
	if arena.Used() != 24 {
		t.Errorf("arena Used() = %d, want 24", arena.Used())
	}

	_, err = NewFromArena(arena, core.Shape{4, 4})
	if !errors.Is(err, core.ErrMemoryAllocation) || !errors.Is(err, runtime.ErrOutOfMemory) {
		t.Errorf("oversized NewFromArena error = %v, want ErrMemoryAllocation and ErrOutOfMemory", err)
	}
	if arena.Used() != 24 {
		t.Errorf("failed NewFromArena moved the cursor to %d", arena.Used())
	}

	b := mustFromSlice(t, core.Shape{3}, []float32{1, 2, 3})
	if _, err := Add(arr, arr, b); err != nil {
		t.Fatalf("Add into arena array failed: %v", err)
	}
	if !floatsEqual(arr.Data(), []float32{1, 2, 3, 1, 2, 3}) {
		t.Errorf("arena array = %v", arr.Data())
	}

	arr.Destroy()
	if arr.InArena() {
		t.Error("destroyed array still reports arena storage")
	}
	arena.Destroy()
	if _, err := NewFromArena(arena, core.Shape{1}); !errors.Is(err, runtime.ErrNotInitialized) {
		t.Errorf("NewFromArena on destroyed arena error = %v, want ErrNotInitialized", err)
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		shape core.Shape
		data  []float32
		want  string
	}{
		{core.Shape{}, []float32{2.5}, "2.5"},
		{core.Shape{3}, []float32{1, 2, 3}, "[1, 2, 3]"},
		{core.Shape{2, 3}, []float32{3, 5, 7, 4, 6, 8}, "[[3, 5, 7], [4, 6, 8]]"},
		{core.Shape{2, 1, 2}, []float32{1, 2, 3, 4}, "[[[1, 2]], [[3, 4]]]"},
		{core.Shape{0}, nil, "[]"},
		{core.Shape{2, 0}, nil, "[[], []]"},
	}
	for _, tt := range tests {
		arr := mustFromSlice(t, tt.shape, tt.data)
		if got := arr.String(); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", tt.shape, got, tt.want)
		}
	}

	var destroyed *NDArray
	if destroyed.String() != "<nil>" {
		t.Errorf("nil String() = %q", destroyed.String())
	}
}

func BenchmarkAdd(b *testing.B) {
	x, _ := New(core.Shape{256, 256})
	y, _ := New(core.Shape{256})
	dst, _ := New(core.Shape{256, 256})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Add(dst, x, y); err != nil {
			b.Fatal(err)
		}
	}
}
