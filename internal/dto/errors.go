package dto

import (
	"errors"
	"fmt"

	"ticksession/internal/fixed"
)

var (
	// ErrPrecisionMismatch matches any *PrecisionMismatchError.
	ErrPrecisionMismatch = fixed.ErrPrecisionMismatch

	ErrUnsupportedPriceKind = errors.New("unsupported price kind")
)

// PrecisionMismatchError names the pair of fields that were required to share a precision.
type PrecisionMismatchError struct {
	Left           string
	Right          string
	LeftPrecision  uint8
	RightPrecision uint8
}

func (e *PrecisionMismatchError) Error() string {
	return fmt.Sprintf("precision mismatch: %s=%d, %s=%d", e.Left, e.LeftPrecision, e.Right, e.RightPrecision)
}

func (e *PrecisionMismatchError) Is(target error) bool {
	return target == ErrPrecisionMismatch
}
