// internal/protocol/serial/connection.go
package serial

import (
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
)

// Connection owns one open serial port together with the path and config it
// was opened with. It performs no locking; callers sharing a Connection
// between goroutines must serialise access themselves.
type Connection struct {
	port    Port
	path    string
	config  Config
	logger  *zap.Logger
	cleanup runtime.Cleanup
	closed  bool
}

// Option customises NewConnection
type Option func(*options)

type options struct {
	opener Opener
	logger *zap.Logger
}

// WithOpener replaces the driver used to open the device
func WithOpener(opener Opener) Option {
	return func(o *options) {
		o.opener = opener
	}
}

// WithLogger attaches a logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewConnection opens the device at path using every parameter in cfg.
// Any failure is returned as an *OpenError.
func NewConnection(path string, cfg Config, opts ...Option) (*Connection, error) {
	o := options{
		opener: BugstOpener{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With(
		zap.String("protocol", "serial"),
		zap.String("port", path),
	)

	logger.Info("Opening serial port",
		zap.Uint32("baud_rate", cfg.BaudRate()),
		zap.Stringer("config", cfg),
	)

	port, err := o.opener.Open(path, cfg)
	if err != nil {
		logger.Error("Failed to open serial port", zap.Error(err))
		return nil, &OpenError{Path: path, Err: err}
	}

	c := &Connection{
		port:   port,
		path:   path,
		config: cfg,
		logger: logger,
	}

	// Release the handle if the owner drops the connection without Close
	c.cleanup = runtime.AddCleanup(c, func(p Port) { p.Close() }, port)

	logger.Info("Serial port opened successfully")
	return c, nil
}

// Path returns the device the connection was opened on
func (c *Connection) Path() string {
	return c.path
}

// Config returns the parameters the connection was opened with
func (c *Connection) Config() Config {
	return c.config
}

// TerminateString returns s with terminator appended
func (c *Connection) TerminateString(s string, terminator byte) string {
	return TerminateString(s, terminator)
}

// WriteString writes the raw bytes of s to the port
func (c *Connection) WriteString(s string) error {
	if c.closed {
		return &WriteError{Path: c.path, Err: ErrClosed}
	}

	data := []byte(s)
	n, err := c.port.Write(data)
	if err != nil {
		c.logger.Error("Failed to write to serial port",
			zap.Error(err),
			zap.Int("bytes_to_write", len(data)),
			zap.Int("bytes_written", n),
		)
		return &WriteError{Path: c.path, Err: err}
	}

	if n != len(data) {
		return &WriteError{
			Path: c.path,
			Err:  fmt.Errorf("wrote %d of %d bytes: %w", n, len(data), io.ErrShortWrite),
		}
	}

	c.logger.Debug("Data written to serial port",
		zap.Int("bytes_written", n),
		zap.Binary("data", data),
	)

	return nil
}

// SendCommand writes command followed by terminator
func (c *Connection) SendCommand(command string, terminator byte) error {
	return c.WriteString(c.TerminateString(command, terminator))
}

// Close releases the port. Calling it more than once is a no-op.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.cleanup.Stop()

	if err := c.port.Close(); err != nil {
		c.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	c.logger.Info("Serial port closed")
	return nil
}
