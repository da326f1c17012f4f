package array

import (
	"fmt"

	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
	"github.com/sbl8/strided/runtime"
)

// BroadcastShape returns the shape an elementwise operation over a and b
// produces. It fails with core.ErrIncompatibleShapes when some aligned pair of
// dimensions differs and neither is 1.
func BroadcastShape(a, b *NDArray) (core.Shape, error) {
	if !a.live() || !b.live() {
		return nil, core.ErrNullPointer
	}
	return core.Broadcast(a.shape, b.shape)
}

// Add stores a + b, broadcast, into dst or a newly allocated array.
func Add(dst, a, b *NDArray) (*NDArray, error) {
	return Elementwise(kernels.OpAdd, dst, a, b)
}

// Multiply stores a * b, broadcast, into dst or a newly allocated array.
func Multiply(dst, a, b *NDArray) (*NDArray, error) {
	return Elementwise(kernels.OpMul, dst, a, b)
}

// Elementwise applies op to every broadcast pair of elements of a and b on the
// default engine.
func Elementwise(op kernels.Op, dst, a, b *NDArray) (*NDArray, error) {
	return ElementwiseWith(runtime.Default(), op, dst, a, b)
}

// ElementwiseWith is Elementwise on a caller-configured engine.
//
// If dst already has the broadcast shape it is overwritten and returned.
// Otherwise a new heap array is allocated and returned; dst is left alone and
// stays owned by the caller. dst may be a or b.
//
// Every check happens before the first write. On error dst is returned as
// passed in, together with an error matching one of core.ErrNullPointer,
// core.ErrInvalidOperation, core.ErrIncompatibleShapes or
// core.ErrMemoryAllocation.
func ElementwiseWith(e *runtime.Engine, op kernels.Op, dst, a, b *NDArray) (*NDArray, error) {
	if e == nil || !a.live() || !b.live() {
		return dst, core.ErrNullPointer
	}
	if !op.Valid() {
		return dst, fmt.Errorf("%w: %v", core.ErrInvalidOperation, op)
	}
	shape, err := core.Broadcast(a.shape, b.shape)
	if err != nil {
		return dst, err
	}
	plan, err := kernels.NewPlan(shape, a.operand(), b.operand())
	if err != nil {
		return dst, err
	}

	out := dst
	if !out.live() || !out.shape.Equal(shape) {
		if out, err = New(shape); err != nil {
			return dst, err
		}
	}
	if err := e.Run(op, plan, out.data); err != nil {
		return dst, err
	}
	return out, nil
}
