package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"serial-service/internal/protocol/serial"
)

type fakePort struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	writeErr error
	closed   bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.buf.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func newService(t *testing.T) (*CommandService, *fakePort) {
	t.Helper()
	port := &fakePort{}
	opener := serial.OpenerFunc(func(string, serial.Config) (serial.Port, error) {
		return port, nil
	})
	conn, err := serial.NewConnection("/dev/ttyFAKE0", serial.DefaultConfig(), serial.WithOpener(opener))
	require.NoError(t, err)

	svc := NewCommandService(conn, serial.CR, zap.NewNop())
	t.Cleanup(func() { svc.Close() })
	return svc, port
}

func TestSendCommand(t *testing.T) {
	svc, port := newService(t)

	res, err := svc.SendCommand(context.Background(), "AT", serial.CR)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.ID)
	assert.Equal(t, 3, res.BytesWritten)
	assert.Equal(t, "cr", res.Terminator)
	assert.Equal(t, "AT\r", port.String())

	status := svc.Status()
	assert.Equal(t, "/dev/ttyFAKE0", status.Path)
	assert.Equal(t, serial.DefaultConfig(), status.Config)
	assert.Equal(t, "cr", status.DefaultTerminator)
	assert.EqualValues(t, 3, status.Stats.BytesWritten)
	assert.EqualValues(t, 1, status.Stats.CommandCount)
	assert.False(t, status.Stats.LastActivity.IsZero())
}

func TestWriteString(t *testing.T) {
	svc, port := newService(t)

	res, err := svc.WriteString(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, 3, res.BytesWritten)
	assert.Empty(t, res.Terminator)
	assert.Equal(t, "raw", port.String())
	assert.EqualValues(t, 1, svc.Status().Stats.WriteCount)
}

func TestSendCommandWriteFailure(t *testing.T) {
	svc, port := newService(t)
	port.writeErr = errors.New("device unplugged")

	_, err := svc.SendCommand(context.Background(), "AT", serial.LF)
	require.Error(t, err)
	assert.ErrorIs(t, err, serial.ErrWrite)

	stats := svc.Status().Stats
	assert.EqualValues(t, 1, stats.ErrorCount)
	assert.EqualValues(t, 0, stats.CommandCount)
	assert.EqualValues(t, 0, stats.BytesWritten)
}

func TestSendCommandCancelledContext(t *testing.T) {
	svc, port := newService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SendCommand(ctx, "AT", serial.CR)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, port.String())
}

func TestConcurrentCommandsDoNotInterleave(t *testing.T) {
	svc, port := newService(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendCommand(context.Background(), "PING", serial.LF)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, bytes.Repeat([]byte("PING\n"), 50), []byte(port.String()))
	assert.EqualValues(t, 50, svc.Status().Stats.CommandCount)
}

func TestAverageLatencyIsMean(t *testing.T) {
	svc, _ := newService(t)

	svc.record(10*time.Millisecond, 1, nil)
	svc.record(20*time.Millisecond, 1, nil)
	svc.record(time.Second, 0, errors.New("ignored"))
	svc.record(30*time.Millisecond, 1, nil)

	stats := svc.Status().Stats
	assert.Equal(t, 20*time.Millisecond, stats.AverageLatency)
	assert.EqualValues(t, 3, stats.BytesWritten)
	assert.EqualValues(t, 1, stats.ErrorCount)
}

func TestClose(t *testing.T) {
	svc, port := newService(t)
	assert.False(t, svc.Closed())

	require.NoError(t, svc.Close())
	assert.True(t, port.closed)
	assert.True(t, svc.Closed())

	_, err := svc.SendCommand(context.Background(), "AT", serial.CR)
	assert.ErrorIs(t, err, serial.ErrClosed)
}
