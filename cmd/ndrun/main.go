package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	goruntime "runtime"
	"strconv"
	"strings"

	"github.com/sbl8/strided/array"
	"github.com/sbl8/strided/core"
	"github.com/sbl8/strided/kernels"
	"github.com/sbl8/strided/runtime"
)

func main() {
	var (
		opName  = flag.String("op", "add", "Operation: add, mul, sub, div, max, min")
		aShape  = flag.String("a", "2,1", "Shape of the first operand, comma separated (empty for a scalar)")
		bShape  = flag.String("b", "1,3", "Shape of the second operand")
		aData   = flag.String("adata", "", "Values of the first operand; defaults to 1, 2, 3, ...")
		bData   = flag.String("bdata", "", "Values of the second operand; defaults to 1, 2, 3, ...")
		arenaSz = flag.Int("arena", 0, "Carve operands and result from an arena of this many bytes (0 uses the heap)")
		workers = flag.Int("workers", goruntime.NumCPU(), "Number of worker goroutines")
		verbose = flag.Bool("verbose", false, "Enable verbose output")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("ndrun - strided array runner v1.0.0")
		fmt.Printf("Built with Go %s\n", goruntime.Version())
		return
	}

	op, ok := kernels.ParseOp(*opName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown operation: %s\n", *opName)
		flag.PrintDefaults()
		os.Exit(1)
	}

	var arena *runtime.Arena
	if *arenaSz > 0 {
		var err error
		arena, err = runtime.NewArena(*arenaSz)
		if err != nil {
			log.Fatalf("Failed to create arena: %v", err)
		}
		defer arena.Destroy()
	}

	a, err := build(arena, *aShape, *aData)
	if err != nil {
		log.Fatalf("Failed to build first operand: %v", err)
	}
	b, err := build(arena, *bShape, *bData)
	if err != nil {
		log.Fatalf("Failed to build second operand: %v", err)
	}

	var dst *array.NDArray
	if arena != nil {
		shape, err := array.BroadcastShape(a, b)
		if err != nil {
			log.Fatalf("Operands do not broadcast: %v", err)
		}
		if dst, err = array.NewFromArena(arena, shape); err != nil {
			log.Fatalf("Failed to allocate result: %v", err)
		}
	}

	engine := runtime.NewEngine(&runtime.EngineOptions{
		Workers:     *workers,
		EnableStats: *verbose,
	})
	result, err := array.ElementwiseWith(engine, op, dst, a, b)
	if err != nil {
		log.Fatalf("Error applying %v: %v", op, err)
	}
	defer result.Destroy()

	fmt.Printf("a %v:\n%v\n", a.Shape(), a)
	fmt.Printf("b %v:\n%v\n", b.Shape(), b)
	fmt.Printf("Result of %v %v:\n%v\n", op, result.Shape(), result)

	if *verbose {
		stats := engine.Stats()
		fmt.Printf("Engine: %d workers, %d executions (%d parallel), %d elements\n",
			engine.Workers(), stats.TotalExecutions, stats.ParallelExecutions, stats.ElementsProcessed)
		if arena != nil {
			m := arena.Metrics()
			fmt.Printf("Arena: %d/%d bytes in %d allocations (%.1f%%)\n",
				m.Used, m.Capacity, m.Allocations, m.Utilization*100)
		}
	}
}

// build creates an operand from a shape and an optional value list.
func build(arena *runtime.Arena, shapeText, dataText string) (*array.NDArray, error) {
	shape, err := core.ParseShape(shapeText)
	if err != nil {
		return nil, err
	}

	var arr *array.NDArray
	if arena != nil {
		arr, err = array.NewFromArena(arena, shape)
	} else {
		arr, err = array.New(shape)
	}
	if err != nil {
		return nil, err
	}

	data := arr.Data()
	if dataText == "" {
		for i := range data {
			data[i] = float32(i + 1)
		}
		return arr, nil
	}

	values, err := parseValues(dataText)
	if err != nil {
		return nil, err
	}
	if len(values) != len(data) {
		return nil, fmt.Errorf("%w: %d values for shape %v", core.ErrInvalidDimension, len(values), shape)
	}
	copy(data, values)
	return arr, nil
}

func parseValues(text string) ([]float32, error) {
	parts := strings.Split(text, ",")
	values := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", p, err)
		}
		values[i] = float32(v)
	}
	return values, nil
}
