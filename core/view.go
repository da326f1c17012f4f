package core

import "unsafe"

// Float32s returns a float32 slice sharing memory with b.
// Returns nil when b is empty, its length is not a multiple of 4, or its
// first byte is not 4-byte aligned.
func Float32s(b []byte) []float32 {
	if len(b) == 0 || len(b)%Float32Size != 0 {
		return nil
	}
	if !IsAligned(uintptr(unsafe.Pointer(&b[0])), Float32Size) {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/Float32Size)
}

// Float32Bytes returns a byte slice sharing memory with f.
func Float32Bytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*Float32Size)
}
