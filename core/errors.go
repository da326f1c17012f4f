package core

import (
	"errors"
	"fmt"
)

// Errors reported by array creation and elementwise operations.
// Callers match them with errors.Is; returned errors carry extra context.
var (
	ErrNullPointer      = errors.New("array is nil or destroyed")
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrMemoryAllocation = errors.New("memory allocation failed")
	ErrInvalidOperation = errors.New("unknown elementwise operation")

	// ErrIncompatibleShapes also matches ErrInvalidDimension.
	ErrIncompatibleShapes = fmt.Errorf("incompatible shapes: %w", ErrInvalidDimension)
)
