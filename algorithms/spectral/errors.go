package spectral

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a kernel or bank build attempted before the
	// sample rate is known, or extraction against a missing bank.
	ErrConfiguration = errors.New("spectral: configuration error")

	// ErrDimensionMismatch reports a spectrum frame whose length differs from
	// the filter bank's kernel length.
	ErrDimensionMismatch = errors.New("spectral: dimension mismatch")

	// ErrInvalidKernel reports non-positive kernel design parameters.
	ErrInvalidKernel = errors.New("spectral: invalid kernel parameters")
)

// DimensionMismatchError carries both lengths of a rejected frame.
type DimensionMismatchError struct {
	FrameLen  int
	KernelLen int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("spectral: dimension mismatch: frame has %d bins, kernels have %d", e.FrameLen, e.KernelLen)
}

// Is makes errors.Is(err, ErrDimensionMismatch) hold.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
