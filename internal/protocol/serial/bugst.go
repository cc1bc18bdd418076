// internal/protocol/serial/bugst.go
package serial

import (
	"fmt"

	bugst "go.bug.st/serial"
)

// BugstOpener opens ports through go.bug.st/serial. The timeout is applied
// as the read timeout; the library has no write timeout or flow control
// setting, so any flow control other than none is rejected.
type BugstOpener struct{}

var _ Opener = BugstOpener{}

// Open opens the serial port
func (BugstOpener) Open(path string, cfg Config) (Port, error) {
	mode, err := bugstMode(cfg)
	if err != nil {
		return nil, err
	}

	port, err := bugst.Open(path, mode)
	if err != nil {
		return nil, err
	}

	// Set read timeout
	if err := port.SetReadTimeout(cfg.Timeout()); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return port, nil
}

func bugstMode(cfg Config) (*bugst.Mode, error) {
	if cfg.BaudRate() == 0 {
		return nil, fmt.Errorf("baud rate 0: %w", ErrUnsupported)
	}
	if cfg.FlowControl() != FlowControlNone {
		return nil, fmt.Errorf("%s flow control: %w", cfg.FlowControl(), ErrUnsupported)
	}

	mode := &bugst.Mode{
		BaudRate: int(cfg.BaudRate()),
		DataBits: int(cfg.DataBits()),
	}

	// Set parity
	switch cfg.Parity() {
	case ParityNone:
		mode.Parity = bugst.NoParity
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	default:
		return nil, fmt.Errorf("%s: %w", cfg.Parity(), ErrUnsupported)
	}

	switch cfg.StopBits() {
	case StopBitsOne:
		mode.StopBits = bugst.OneStopBit
	case StopBitsTwo:
		mode.StopBits = bugst.TwoStopBits
	default:
		return nil, fmt.Errorf("%s: %w", cfg.StopBits(), ErrUnsupported)
	}

	return mode, nil
}
