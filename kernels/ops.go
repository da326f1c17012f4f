// Package kernels provides the elementwise operators and index mapping used by strided.
//
// Operators form a closed set of opcodes. Each opcode has a scalar BinaryFn in
// Catalog and a contiguous VectorFn in VectorCatalog; callers validate an
// opcode once and then run the looked-up function over a whole index range,
// so the inner loops never branch on the operator.
//
// Available operations:
//   - Arithmetic: add, subtract, multiply, divide
//   - Comparison: max, min
//
// Plan maps every linear index of a broadcast result back into the two input
// buffers. Plans are immutable once built and may be shared by any number of
// goroutines filling disjoint ranges of the same output.
package kernels

import "fmt"

// Op identifies an elementwise binary operator.
type Op uint8

// BinaryFn combines one element of each operand.
type BinaryFn func(x, y float32) float32

// VectorFn writes fn(a[i], b[i]) into dst[i] for equal-length slices.
type VectorFn func(dst, a, b []float32)

// Operator codes
const (
	OpNoop Op = 0x00
	OpAdd  Op = 0x01
	OpMul  Op = 0x02
	OpSub  Op = 0x03
	OpDiv  Op = 0x04
	OpMax  Op = 0x05
	OpMin  Op = 0x06
)

// Catalog maps opcodes to scalar implementations. OpNoop and unassigned
// codes are nil and rejected by Valid.
var Catalog = [256]BinaryFn{
	OpAdd: add,
	OpMul: mul,
	OpSub: sub,
	OpDiv: div,
	OpMax: maxOf,
	OpMin: minOf,
}

// VectorCatalog maps opcodes to contiguous implementations.
var VectorCatalog = [256]VectorFn{
	OpAdd: VectorAdd,
	OpMul: VectorMul,
	OpSub: vectorOf(sub),
	OpDiv: vectorOf(div),
	OpMax: vectorOf(maxOf),
	OpMin: vectorOf(minOf),
}

var opNames = [256]string{
	OpNoop: "noop",
	OpAdd:  "add",
	OpMul:  "mul",
	OpSub:  "sub",
	OpDiv:  "div",
	OpMax:  "max",
	OpMin:  "min",
}

// Valid reports whether op has an implementation.
func (op Op) Valid() bool {
	return Catalog[op] != nil && VectorCatalog[op] != nil
}

// String returns the operator name, or its hex code when unnamed.
func (op Op) String() string {
	if name := opNames[op]; name != "" {
		return name
	}
	return fmt.Sprintf("op(0x%02x)", uint8(op))
}

// ParseOp looks an operator up by name; "multiply" is accepted for mul.
func ParseOp(name string) (Op, bool) {
	if name == "multiply" {
		return OpMul, true
	}
	for code, n := range opNames {
		if n != "" && n == name && Op(code) != OpNoop {
			return Op(code), true
		}
	}
	return OpNoop, false
}

// -------- Scalar operators ----------

func add(x, y float32) float32 { return x + y }

func mul(x, y float32) float32 { return x * y }

func sub(x, y float32) float32 { return x - y }

func div(x, y float32) float32 { return x / y }

func maxOf(x, y float32) float32 {
	if x > y {
		return x
	}
	return y
}

func minOf(x, y float32) float32 {
	if x < y {
		return x
	}
	return y
}

// vectorOf lifts a scalar operator to a contiguous kernel.
func vectorOf(fn BinaryFn) VectorFn {
	return func(dst, a, b []float32) {
		checkLengths(dst, a, b)
		for i := range dst {
			dst[i] = fn(a[i], b[i])
		}
	}
}
