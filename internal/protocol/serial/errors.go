// internal/protocol/serial/errors.go
package serial

import (
	"errors"
	"fmt"
)

var (
	// ErrOpen matches every *OpenError
	ErrOpen = errors.New("unable to open serial port")
	// ErrWrite matches every *WriteError
	ErrWrite = errors.New("unable to write to serial port")
	// ErrClosed is returned for writes after Close
	ErrClosed = errors.New("serial port closed")
	// ErrUnsupported marks line parameters the selected driver cannot apply
	ErrUnsupported = errors.New("unsupported by serial driver")
)

// OpenError reports a device that could not be opened with the requested
// parameters
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open serial port %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrOpen }

// WriteError reports a failed or short write on an open port
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write to serial port %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }
