//go:build !linux

// internal/protocol/serial/termios_other.go
package serial

import (
	"fmt"
	"runtime"
)

// TermiosOpener is only available on Linux
type TermiosOpener struct{}

var _ Opener = TermiosOpener{}

func (TermiosOpener) Open(path string, cfg Config) (Port, error) {
	return nil, fmt.Errorf("termios driver on %s: %w", runtime.GOOS, ErrUnsupported)
}
