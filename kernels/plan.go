package kernels

import (
	"fmt"

	"github.com/sbl8/strided/core"
)

// Operand is a read-only view of one input array.
type Operand struct {
	Data    []float32
	Shape   core.Shape
	Strides core.Strides
}

// layout classifies how an operand relates to the output index space.
type layout uint8

const (
	layoutStrided layout = iota // needs per-index coordinate mapping
	layoutSame                  // same shape as the output, offset == index
	layoutSingle                // one element, offset is always 0
)

// Plan maps linear output indices to offsets in two broadcast operands.
//
// For output index i the coordinate along dimension j is
// (i / strides[j]) % shape[j]. An operand dimension that is missing (lower
// rank) or has size 1 contributes coordinate 0; every other dimension uses the
// output coordinate. The operand offset is the dot product of that coordinate
// with the operand's own strides, precomputed here as bstrides (0 on
// broadcast dimensions).
type Plan struct {
	shape    core.Shape
	strides  core.Strides
	size     int
	a, b     []float32
	aStrides []int
	bStrides []int
	aLayout  layout
	bLayout  layout
}

// NewPlan prepares the index mapping of a and b onto out, which must be the
// broadcast of their shapes.
func NewPlan(out core.Shape, a, b Operand) (*Plan, error) {
	if err := checkOperand("a", out, a); err != nil {
		return nil, err
	}
	if err := checkOperand("b", out, b); err != nil {
		return nil, err
	}

	p := &Plan{
		shape:    out.Clone(),
		strides:  core.StridesOf(out),
		size:     out.Size(),
		a:        a.Data,
		b:        b.Data,
		aStrides: BroadcastStrides(a.Shape, a.Strides, len(out)),
		bStrides: BroadcastStrides(b.Shape, b.Strides, len(out)),
	}
	p.aLayout = classify(out, a)
	p.bLayout = classify(out, b)
	return p, nil
}

// checkOperand verifies that op broadcasts onto out and that its buffer is
// large enough for its shape.
func checkOperand(name string, out core.Shape, op Operand) error {
	if len(op.Shape) > len(out) || len(op.Strides) != len(op.Shape) {
		return fmt.Errorf("%w: operand %s rank %d does not fit output rank %d", core.ErrIncompatibleShapes, name, len(op.Shape), len(out))
	}
	pad := len(out) - len(op.Shape)
	for j, d := range op.Shape {
		if d != 1 && d != out[pad+j] {
			return fmt.Errorf("%w: operand %s shape %v does not broadcast to %v", core.ErrIncompatibleShapes, name, op.Shape, out)
		}
	}
	if len(op.Data) < op.Shape.Size() {
		return fmt.Errorf("%w: operand %s holds %d elements, shape %v needs %d", core.ErrInvalidDimension, name, len(op.Data), op.Shape, op.Shape.Size())
	}
	return nil
}

func classify(out core.Shape, op Operand) layout {
	switch {
	case op.Shape.Equal(out):
		return layoutSame
	case op.Shape.Size() == 1:
		return layoutSingle
	default:
		return layoutStrided
	}
}

// BroadcastStrides aligns strides of shape to the right of a rank-n output and
// zeroes every missing or size-1 dimension.
func BroadcastStrides(shape core.Shape, strides core.Strides, rank int) []int {
	out := make([]int, rank)
	pad := rank - len(shape)
	for j, d := range shape {
		if d != 1 {
			out[pad+j] = strides[j]
		}
	}
	return out
}

// Size returns the number of output elements.
func (p *Plan) Size() int {
	return p.size
}

// Shape returns a copy of the output shape.
func (p *Plan) Shape() core.Shape {
	return p.shape.Clone()
}

// Contiguous reports whether both operands share the output shape, in which
// case Run uses the vector kernels directly.
func (p *Plan) Contiguous() bool {
	return p.aLayout == layoutSame && p.bLayout == layoutSame
}

// Offsets maps output index i to offsets into a and b.
func (p *Plan) Offsets(i int) (int, int) {
	ao, bo := 0, 0
	for j, s := range p.strides {
		c := (i / s) % p.shape[j]
		ao += c * p.aStrides[j]
		bo += c * p.bStrides[j]
	}
	return ao, bo
}

// Run fills dst[lo:hi] with op applied to the mapped operand elements.
// dst must hold Size() elements and op must be Valid. Run only writes
// dst[lo:hi] and never writes a or b, so disjoint ranges may run concurrently.
func (p *Plan) Run(op Op, dst []float32, lo, hi int) {
	if lo >= hi {
		return
	}
	if len(dst) != p.size {
		panic("plan: destination length mismatch")
	}
	fn := Catalog[op]

	switch {
	case p.Contiguous():
		VectorCatalog[op](dst[lo:hi], p.a[lo:hi], p.b[lo:hi])
	case p.aLayout == layoutSame && p.bLayout == layoutSingle:
		y := p.b[0]
		for i := lo; i < hi; i++ {
			dst[i] = fn(p.a[i], y)
		}
	case p.aLayout == layoutSingle && p.bLayout == layoutSame:
		x := p.a[0]
		for i := lo; i < hi; i++ {
			dst[i] = fn(x, p.b[i])
		}
	default:
		for i := lo; i < hi; i++ {
			ao, bo := p.Offsets(i)
			dst[i] = fn(p.a[ao], p.b[bo])
		}
	}
}

// Offset computes the linear index of coord under strides.
// It reports false when coord does not address an element of shape.
func Offset(shape core.Shape, strides core.Strides, coord []int) (int, bool) {
	if len(coord) != len(shape) {
		return 0, false
	}
	off := 0
	for j, c := range coord {
		if c < 0 || c >= shape[j] {
			return 0, false
		}
		off += c * strides[j]
	}
	return off, true
}
