package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by Open once the controller has been shut down.
	ErrClosed = errors.New("stream: controller closed")

	// ErrAlreadyOpen is returned by Open while initialization is in progress
	// or after it has completed.
	ErrAlreadyOpen = errors.New("stream: controller already opened")
)

// InitializationError reports a failed Open. The controller does not retry;
// the caller decides whether to call Open again.
type InitializationError struct {
	Op  string
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("stream: initialization failed: %s: %v", e.Op, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}
