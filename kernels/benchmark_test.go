package kernels

import (
	"math/rand"
	"testing"

	"github.com/sbl8/strided/core"
)

// Helper function to generate random float32 slices
func generateRandomFloat32(size int) []float32 {
	data := make([]float32, size)
	for i := range data {
		data[i] = rand.Float32()*200 - 100 // Range: -100 to 100
	}
	return data
}

// Benchmark vector addition
func BenchmarkVectorAdd_Pure_16K(b *testing.B) {
	a := generateRandomFloat32(16384)
	v := generateRandomFloat32(16384)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range a {
			a[j] += v[j]
		}
	}
}

func BenchmarkVectorAdd_Optimized_16K(b *testing.B) {
	a := generateRandomFloat32(16384)
	v := generateRandomFloat32(16384)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VectorAddInPlace(a, v)
	}
}

func BenchmarkVectorMul_Optimized_16K(b *testing.B) {
	a := generateRandomFloat32(16384)
	v := generateRandomFloat32(16384)
	dst := make([]float32, len(a))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VectorMul(dst, a, v)
	}
}

func benchmarkPlan(b *testing.B, as, bs core.Shape) {
	out, err := core.Broadcast(as, bs)
	if err != nil {
		b.Fatalf("Broadcast failed: %v", err)
	}
	x := Operand{Data: generateRandomFloat32(as.Size()), Shape: as, Strides: core.StridesOf(as)}
	y := Operand{Data: generateRandomFloat32(bs.Size()), Shape: bs, Strides: core.StridesOf(bs)}
	plan, err := NewPlan(out, x, y)
	if err != nil {
		b.Fatalf("NewPlan failed: %v", err)
	}
	dst := make([]float32, plan.Size())

	b.SetBytes(int64(plan.Size() * core.Float32Size))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		plan.Run(OpAdd, dst, 0, plan.Size())
	}
}

func BenchmarkPlan_Contiguous_128x128(b *testing.B) {
	benchmarkPlan(b, core.Shape{128, 128}, core.Shape{128, 128})
}

func BenchmarkPlan_Scalar_128x128(b *testing.B) {
	benchmarkPlan(b, core.Shape{128, 128}, core.Shape{})
}

func BenchmarkPlan_ColumnRow_128x128(b *testing.B) {
	benchmarkPlan(b, core.Shape{128, 1}, core.Shape{1, 128})
}

func BenchmarkPlan_Rank4_16x8x8x16(b *testing.B) {
	benchmarkPlan(b, core.Shape{16, 1, 8, 16}, core.Shape{8, 1, 16})
}
