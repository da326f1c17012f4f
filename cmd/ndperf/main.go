package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	goruntime "runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sbl8/strided/array"
	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
	"github.com/sbl8/strided/runtime"
)

var (
	testType = flag.String("test", "all", "Test type: all, vector, same, broadcast, arena")
	size     = flag.Int("size", 512, "Edge length of the square test arrays")
	iter     = flag.Int("iter", 200, "Number of iterations")
	workers  = flag.String("workers", "", "Comma separated worker counts (default 1 and NumCPU)")
	verbose  = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	counts, err := workerCounts(*workers)
	if err != nil {
		log.Fatalf("Invalid -workers: %v", err)
	}

	fmt.Printf("Strided Performance Analysis Tool\n")
	fmt.Printf("=================================\n")
	fmt.Printf("Go Version: %s\n", goruntime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", goruntime.GOOS, goruntime.GOARCH)
	fmt.Printf("CPUs: %d\n", goruntime.NumCPU())
	fmt.Printf("Test Size: %dx%d elements\n", *size, *size)
	fmt.Printf("Iterations: %d\n", *iter)
	fmt.Printf("\n")

	switch *testType {
	case "all":
		runVectorTests()
		runElementwiseTests("Same-shape", core.Shape{*size, *size}, core.Shape{*size, *size}, counts)
		runElementwiseTests("Broadcast", core.Shape{*size, 1}, core.Shape{1, *size}, counts)
		runArenaTests()
	case "vector":
		runVectorTests()
	case "same":
		runElementwiseTests("Same-shape", core.Shape{*size, *size}, core.Shape{*size, *size}, counts)
	case "broadcast":
		runElementwiseTests("Broadcast", core.Shape{*size, 1}, core.Shape{1, *size}, counts)
	case "arena":
		runArenaTests()
	default:
		fmt.Printf("Unknown test type: %s\n", *testType)
		os.Exit(1)
	}
}

func workerCounts(text string) ([]int, error) {
	if text == "" {
		return []int{1, goruntime.NumCPU()}, nil
	}
	var counts []int
	for _, p := range strings.Split(text, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("worker count %q", p)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func elementsPerSecond(n int, d time.Duration) float64 {
	return float64(n*(*iter)) / d.Seconds()
}

func runVectorTests() {
	fmt.Printf("Vector Kernels Performance\n")
	fmt.Printf("--------------------------\n")

	n := *size * *size
	a := generateFloat32(n)
	b := generateFloat32(n)
	dst := make([]float32, n)

	tests := []struct {
		name string
		fn   kernels.VectorFn
	}{
		{"Vector Add", kernels.VectorAdd},
		{"Vector Multiply", kernels.VectorMul},
		{"Vector Max", kernels.VectorCatalog[kernels.OpMax]},
	}
	for _, test := range tests {
		start := time.Now()
		for i := 0; i < *iter; i++ {
			test.fn(dst, a, b)
		}
		d := time.Since(start)
		fmt.Printf("%-20s %v (%.2f Mops/s)\n", test.name+":", d, elementsPerSecond(n, d)/1e6)
	}
	fmt.Printf("\n")
}

func runElementwiseTests(name string, as, bs core.Shape, counts []int) {
	fmt.Printf("%s Elementwise Performance %v x %v\n", name, as, bs)
	fmt.Printf("----------------------------------------\n")

	a := randomArray(as)
	b := randomArray(bs)
	shape, err := array.BroadcastShape(a, b)
	if err != nil {
		log.Fatalf("Broadcast failed: %v", err)
	}
	dst, err := array.New(shape)
	if err != nil {
		log.Fatalf("Failed to allocate result: %v", err)
	}

	var base time.Duration
	for _, w := range counts {
		engine := runtime.NewEngine(&runtime.EngineOptions{Workers: w, EnableStats: *verbose})
		for _, op := range []kernels.Op{kernels.OpAdd, kernels.OpMul} {
			start := time.Now()
			for i := 0; i < *iter; i++ {
				if _, err := array.ElementwiseWith(engine, op, dst, a, b); err != nil {
					log.Fatalf("%v failed: %v", op, err)
				}
			}
			d := time.Since(start)
			if base == 0 {
				base = d
			}
			fmt.Printf("%-4v workers=%-3d %v (%.2f Mops/s, %.2fx)\n",
				op, w, d, elementsPerSecond(dst.Size(), d)/1e6, float64(base)/float64(d))
		}
		if *verbose {
			s := engine.Stats()
			fmt.Printf("  executions=%d parallel=%d elements=%d\n",
				s.TotalExecutions, s.ParallelExecutions, s.ElementsProcessed)
		}
	}
	fmt.Printf("\n")
}

func runArenaTests() {
	fmt.Printf("Allocation Performance\n")
	fmt.Printf("----------------------\n")

	shape := core.Shape{16, 16}
	const perRound = 64
	capacity := perRound * shape.Size() * array.ItemSize

	start := time.Now()
	for i := 0; i < *iter; i++ {
		for j := 0; j < perRound; j++ {
			if _, err := array.New(shape); err != nil {
				log.Fatalf("New failed: %v", err)
			}
		}
	}
	heap := time.Since(start)

	start = time.Now()
	for i := 0; i < *iter; i++ {
		arena, err := runtime.NewArena(capacity)
		if err != nil {
			log.Fatalf("NewArena failed: %v", err)
		}
		for j := 0; j < perRound; j++ {
			if _, err := array.NewFromArena(arena, shape); err != nil {
				log.Fatalf("NewFromArena failed: %v", err)
			}
		}
		arena.Destroy()
	}
	arenaTime := time.Since(start)

	fmt.Printf("Heap arrays:  %v\n", heap)
	fmt.Printf("Arena arrays: %v (%.2fx)\n", arenaTime, float64(heap)/float64(arenaTime))
	fmt.Printf("\n")
}

func randomArray(shape core.Shape) *array.NDArray {
	arr, err := array.FromSlice(shape, generateFloat32(shape.Size()))
	if err != nil {
		log.Fatalf("Failed to build %v array: %v", shape, err)
	}
	return arr
}

func generateFloat32(size int) []float32 {
	data := make([]float32, size)
	for i := range data {
		data[i] = rand.Float32()*200 - 100 // Range: -100 to 100
	}
	return data
}
