package core

import "unsafe"

const (
	// CacheLineSize is a common cache line size, typically 64 bytes.
	// Adjust if targeting specific architectures with different cache line sizes.
	CacheLineSize = 64

	// Float32Size is the width of one array element in bytes.
	Float32Size = 4
)

// IsAligned checks if addr is a multiple of align. align must be a power of two.
func IsAligned(addr uintptr, align uintptr) bool {
	return addr&(align-1) == 0
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// AlignSize rounds size up to the specified alignment boundary
func AlignSize(size, align int) int {
	return (size + align - 1) &^ (align - 1)
}

// AlignCacheLine rounds size up to cache line boundary
func AlignCacheLine(size int) int {
	return AlignSize(size, CacheLineSize)
}

// AlignedBytes allocates a byte slice with its underlying array aligned to CacheLineSize.
// Offsets into the returned slice that are multiples of a power of two up to
// CacheLineSize are therefore aligned addresses as well.
// Returns an empty, non-nil slice for size 0.
func AlignedBytes(size int) []byte {
	if size == 0 {
		return []byte{}
	}
	// Allocate extra space to allow for alignment.
	buf := make([]byte, size+CacheLineSize-1)

	ptr := uintptr(unsafe.Pointer(&buf[0]))
	offset := uintptr(0)
	if mod := ptr % CacheLineSize; mod != 0 {
		offset = CacheLineSize - mod
	}

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// OptimalBatchSize returns how many elements of elementSize fill one cache line.
func OptimalBatchSize(elementSize int) int {
	elementsPerLine := CacheLineSize / elementSize
	if elementsPerLine < 1 {
		return 1
	}
	return elementsPerLine
}
