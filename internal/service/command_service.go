// internal/service/command_service.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"serial-service/internal/protocol/serial"
	"serial-service/internal/utils"
)

// Commander is the part of a serial connection the service drives
type Commander interface {
	SendCommand(command string, terminator byte) error
	WriteString(s string) error
	Path() string
	Config() serial.Config
	Close() error
}

var _ Commander = (*serial.Connection)(nil)

// CommandStats provides line-level statistics
type CommandStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	CommandCount   int64         `json:"command_count"`
	WriteCount     int64         `json:"write_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
}

// ConnectionStatus describes the open connection
type ConnectionStatus struct {
	Path              string        `json:"path"`
	Config            serial.Config `json:"config"`
	DefaultTerminator string        `json:"default_terminator"`
	Stats             CommandStats  `json:"stats"`
}

// CommandResult is returned for every accepted write
type CommandResult struct {
	ID           uuid.UUID `json:"id" swaggertype:"string" format:"uuid"`
	BytesWritten int       `json:"bytes_written"`
	Terminator   string    `json:"terminator,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// CommandService serialises access to one serial connection so it can be
// shared by concurrent callers such as HTTP handlers
type CommandService struct {
	conn              Commander
	defaultTerminator byte
	logger            *utils.ServiceLogger

	mu           sync.Mutex
	stats        CommandStats
	totalLatency time.Duration
	succeeded    int64
	closed       bool
}

// NewCommandService wraps conn. defaultTerminator is used when a caller
// does not name one.
func NewCommandService(conn Commander, defaultTerminator byte, logger *zap.Logger) *CommandService {
	return &CommandService{
		conn:              conn,
		defaultTerminator: defaultTerminator,
		logger:            utils.NewServiceLogger(logger, "command-service"),
	}
}

// DefaultTerminator returns the terminator used when none is given
func (s *CommandService) DefaultTerminator() byte {
	return s.defaultTerminator
}

// SendCommand writes command followed by terminator
func (s *CommandService) SendCommand(ctx context.Context, command string, terminator byte) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	cl := utils.NewCommandLogger(s.logger.Logger, "command",
		zap.String("command_id", id.String()),
		zap.String("terminator", serial.FormatTerminator(terminator)),
	)

	err := s.conn.SendCommand(command, terminator)
	s.record(cl.Done(err), len(command)+1, err)
	if err != nil {
		return nil, fmt.Errorf("failed to send command: %w", err)
	}
	s.stats.CommandCount++

	return &CommandResult{
		ID:           id,
		BytesWritten: len(command) + 1,
		Terminator:   serial.FormatTerminator(terminator),
		SentAt:       s.stats.LastActivity,
	}, nil
}

// WriteString writes data with no terminator
func (s *CommandService) WriteString(ctx context.Context, data string) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	cl := utils.NewCommandLogger(s.logger.Logger, "write", zap.String("command_id", id.String()))

	err := s.conn.WriteString(data)
	s.record(cl.Done(err), len(data), err)
	if err != nil {
		return nil, fmt.Errorf("failed to write data: %w", err)
	}
	s.stats.WriteCount++

	return &CommandResult{
		ID:           id,
		BytesWritten: len(data),
		SentAt:       s.stats.LastActivity,
	}, nil
}

// record updates stats; AverageLatency is the mean over successful writes.
// Callers hold mu.
func (s *CommandService) record(latency time.Duration, n int, err error) {
	if err != nil {
		s.stats.ErrorCount++
		return
	}

	s.stats.BytesWritten += int64(n)
	s.stats.LastActivity = time.Now()
	s.succeeded++
	s.totalLatency += latency
	s.stats.AverageLatency = s.totalLatency / time.Duration(s.succeeded)
}

// Status returns the connection parameters and a stats snapshot
func (s *CommandService) Status() ConnectionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return ConnectionStatus{
		Path:              s.conn.Path(),
		Config:            s.conn.Config(),
		DefaultTerminator: serial.FormatTerminator(s.defaultTerminator),
		Stats:             s.stats,
	}
}

// Close releases the underlying connection
func (s *CommandService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Closing serial connection", zap.String("port", s.conn.Path()))
	s.closed = true
	return s.conn.Close()
}

// Closed reports whether Close has been called
func (s *CommandService) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}
