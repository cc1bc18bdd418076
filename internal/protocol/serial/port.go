// internal/protocol/serial/port.go
package serial

import (
	"fmt"
	"strings"
)

// Port is the subset of an OS serial handle a Connection needs
type Port interface {
	Write(p []byte) (int, error)
	Close() error
}

// Opener opens a device with the given line parameters
type Opener interface {
	Open(path string, cfg Config) (Port, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(path string, cfg Config) (Port, error)

func (f OpenerFunc) Open(path string, cfg Config) (Port, error) {
	return f(path, cfg)
}

// Driver names accepted by OpenerForDriver
const (
	DriverBugst   = "bugst"
	DriverTermios = "termios"
)

// OpenerForDriver resolves a driver name from configuration
func OpenerForDriver(name string) (Opener, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DriverBugst:
		return BugstOpener{}, nil
	case DriverTermios:
		return TermiosOpener{}, nil
	default:
		return nil, fmt.Errorf("unknown serial driver: %q", name)
	}
}
