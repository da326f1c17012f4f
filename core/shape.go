// Package core provides the shape algebra shared by every other package in strided.
//
// A Shape lists the extent of each dimension of an array; its length is the
// array's rank. The empty shape describes a scalar holding exactly one element.
// Strides are derived from a shape, never supplied, and count elements rather
// than bytes: the last dimension always has stride 1 (row-major, C order).
//
// Key components:
//   - StridesOf: row-major stride calculation
//   - Broadcast: NumPy-style shape compatibility
//   - Sentinel errors used across the module
//   - Alignment helpers and byte/float32 views for arena-backed storage
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape is the dimension sizes of an array, e.g. [2, 3, 4].
type Shape []int

// Strides are element offsets per axis (row-major).
type Strides []int

// StridesOf computes row-major strides for a shape.
// Last axis stride = 1; strides[i] = strides[i+1] * shape[i+1].
// A scalar shape has no strides.
func StridesOf(shape Shape) Strides {
	if len(shape) == 0 {
		return Strides{}
	}
	strides := make(Strides, len(shape))
	strides[len(shape)-1] = 1
	for i := len(shape) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * shape[i+1]
	}
	return strides
}

// NDim returns the rank of the shape.
func (s Shape) NDim() int {
	return len(s)
}

// Size returns the product of all dimensions; the empty product is 1.
// It does not check for negative dimensions or overflow, see CheckedSize.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// CheckedSize validates s and returns its element count.
// Negative dimensions fail with ErrInvalidDimension. A product that
// overflows or exceeds limit fails with ErrMemoryAllocation.
func (s Shape) CheckedSize(limit int) (int, error) {
	zero := false
	for i, d := range s {
		if d < 0 {
			return 0, fmt.Errorf("%w: dimension %d has size %d", ErrInvalidDimension, i, d)
		}
		if d == 0 {
			zero = true
		}
	}
	if zero {
		return 0, nil
	}

	n := 1
	for _, d := range s {
		if n > limit/d {
			return 0, fmt.Errorf("%w: shape %v exceeds %d elements", ErrMemoryAllocation, s, limit)
		}
		n *= d
	}
	return n, nil
}

// Equal reports whether s and o describe the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s. The copy of a scalar shape is empty but non-nil.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// String formats the shape as "[2 3]"; a scalar prints as "[]".
func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(d))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseShape reads a comma separated shape such as "2,1,3".
// The empty string is the scalar shape.
func ParseShape(text string) (Shape, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Shape{}, nil
	}
	parts := strings.Split(text, ",")
	shape := make(Shape, len(parts))
	for i, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidDimension, p, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("%w: dimension %d has size %d", ErrInvalidDimension, i, d)
		}
		shape[i] = d
	}
	return shape, nil
}

// Broadcast applies NumPy-style broadcasting: pad the shorter shape with 1s on
// the left, then compare dimension by dimension. Equal dims stay, a 1 stretches
// to the other side, anything else is ErrIncompatibleShapes.
// A scalar is compatible with every shape.
func Broadcast(a, b Shape) (Shape, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	for i := 0; i < n; i++ {
		da, db := paddedDim(a, i, n), paddedDim(b, i, n)
		switch {
		case da == db:
			out[i] = da
		case da == 1:
			out[i] = db
		case db == 1:
			out[i] = da
		default:
			return nil, fmt.Errorf("%w: %v and %v differ at dimension %d (%d vs %d)", ErrIncompatibleShapes, a, b, i, da, db)
		}
	}
	return out, nil
}

// paddedDim returns dimension i of s viewed as a rank-n shape left-padded with 1s.
func paddedDim(s Shape, i, n int) int {
	if j := i - (n - len(s)); j >= 0 {
		return s[j]
	}
	return 1
}
