//go:build linux

// internal/protocol/serial/termios_linux.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// TermiosOpener configures the tty directly through termios ioctls. Unlike
// BugstOpener it applies flow control and bounds writes by the config
// timeout. A timeout of zero or less blocks until the write completes.
type TermiosOpener struct{}

var _ Opener = TermiosOpener{}

// Open opens the serial port in raw mode
func (TermiosOpener) Open(path string, cfg Config) (Port, error) {
	baud, ok := termiosBaudRates[cfg.BaudRate()]
	if !ok {
		return nil, fmt.Errorf("baud rate %d: %w", cfg.BaudRate(), ErrUnsupported)
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}

	if err := configureTermios(fd, baud, cfg); err != nil {
		unix.Close(fd)
		return nil, err
	}

	// No other process may open the tty while we hold it
	if err := unix.IoctlSetInt(fd, unix.TIOCEXCL, 0); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("acquire exclusive access: %w", err)
	}

	return &termiosPort{fd: fd, timeout: cfg.Timeout()}, nil
}

func configureTermios(fd int, baud uint32, cfg Config) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CLOCAL | unix.CREAD | baud

	switch cfg.DataBits() {
	case DataBits5:
		t.Cflag |= unix.CS5
	case DataBits6:
		t.Cflag |= unix.CS6
	case DataBits7:
		t.Cflag |= unix.CS7
	case DataBits8:
		t.Cflag |= unix.CS8
	default:
		return fmt.Errorf("%s data bits: %w", cfg.DataBits(), ErrUnsupported)
	}

	switch cfg.Parity() {
	case ParityNone:
	case ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
		t.Iflag |= unix.INPCK
	case ParityEven:
		t.Cflag |= unix.PARENB
		t.Iflag |= unix.INPCK
	default:
		return fmt.Errorf("%s: %w", cfg.Parity(), ErrUnsupported)
	}

	switch cfg.StopBits() {
	case StopBitsOne:
	case StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	default:
		return fmt.Errorf("%s: %w", cfg.StopBits(), ErrUnsupported)
	}

	switch cfg.FlowControl() {
	case FlowControlNone:
	case FlowControlSoftware:
		t.Iflag |= unix.IXON | unix.IXOFF
	case FlowControlHardware:
		t.Cflag |= unix.CRTSCTS
	default:
		return fmt.Errorf("%s: %w", cfg.FlowControl(), ErrUnsupported)
	}

	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

var termiosBaudRates = map[uint32]uint32{
	50:     unix.B50,
	75:     unix.B75,
	110:    unix.B110,
	134:    unix.B134,
	150:    unix.B150,
	200:    unix.B200,
	300:    unix.B300,
	600:    unix.B600,
	1200:   unix.B1200,
	1800:   unix.B1800,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

type termiosPort struct {
	fd        int
	timeout   time.Duration
	closeOnce sync.Once
}

// Write keeps writing until p is drained or the timeout elapses
func (p *termiosPort) Write(b []byte) (int, error) {
	var deadline time.Time
	if p.timeout > 0 {
		deadline = time.Now().Add(p.timeout)
	}

	written := 0
	for written < len(b) {
		n, err := unix.Write(p.fd, b[written:])
		if n > 0 {
			written += n
		}
		if err == nil {
			if n <= 0 {
				return written, io.ErrNoProgress
			}
			continue
		}
		if !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			return written, err
		}
		if err := p.waitWritable(deadline); err != nil {
			return written, err
		}
	}
	return written, nil
}

func (p *termiosPort) waitWritable(deadline time.Time) error {
	for {
		timeout := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return os.ErrDeadlineExceeded
			}
			timeout = int(remaining.Milliseconds())
			if timeout == 0 {
				timeout = 1
			}
		}

		fds := []unix.PollFd{{Fd: int32(p.fd), Events: unix.POLLOUT}}
		n, err := unix.Poll(fds, timeout)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return os.ErrDeadlineExceeded
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			return fmt.Errorf("poll revents 0x%x: %w", fds[0].Revents, unix.EIO)
		}
		return nil
	}
}

func (p *termiosPort) Close() error {
	err := os.ErrClosed
	p.closeOnce.Do(func() {
		err = unix.Close(p.fd)
	})
	return err
}
