package kernels

// VectorAdd performs dst = a + b for equal-length slices.
// dst may alias a or b.
func VectorAdd(dst, a, b []float32) {
	checkLengths(dst, a, b)

	n := len(dst)
	i := 0
	// Unrolled by four to let the compiler drop bounds checks.
	for ; i+4 <= n; i += 4 {
		d, x, y := dst[i:i+4:i+4], a[i:i+4:i+4], b[i:i+4:i+4]
		d[0] = x[0] + y[0]
		d[1] = x[1] + y[1]
		d[2] = x[2] + y[2]
		d[3] = x[3] + y[3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}

// VectorMul performs dst = a * b for equal-length slices.
// dst may alias a or b.
func VectorMul(dst, a, b []float32) {
	checkLengths(dst, a, b)

	n := len(dst)
	i := 0
	for ; i+4 <= n; i += 4 {
		d, x, y := dst[i:i+4:i+4], a[i:i+4:i+4], b[i:i+4:i+4]
		d[0] = x[0] * y[0]
		d[1] = x[1] * y[1]
		d[2] = x[2] * y[2]
		d[3] = x[3] * y[3]
	}
	for ; i < n; i++ {
		dst[i] = a[i] * b[i]
	}
}

// VectorAddInPlace performs in-place vector addition (a = a + b)
func VectorAddInPlace(a, b []float32) {
	VectorAdd(a, a, b)
}

// VectorMulInPlace performs in-place vector multiplication (a = a * b)
func VectorMulInPlace(a, b []float32) {
	VectorMul(a, a, b)
}

func checkLengths(dst, a, b []float32) {
	if len(a) != len(dst) || len(b) != len(dst) {
		panic("vector length mismatch")
	}
}
