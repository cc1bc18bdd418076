package serial

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// capturePort records every write so tests can check the bytes on the wire
type capturePort struct {
	buf      bytes.Buffer
	writes   int
	writeErr error
	short    int
	closed   int
}

func (p *capturePort) Write(b []byte) (int, error) {
	p.writes++
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.short > 0 && p.short < len(b) {
		p.buf.Write(b[:p.short])
		return p.short, nil
	}
	return p.buf.Write(b)
}

func (p *capturePort) Close() error {
	p.closed++
	return nil
}

func openCapture(t *testing.T, cfg Config, opts ...Option) (*Connection, *capturePort) {
	t.Helper()
	port := &capturePort{}
	opener := OpenerFunc(func(path string, got Config) (Port, error) {
		return port, nil
	})
	conn, err := NewConnection("/dev/ttyFAKE0", cfg, append([]Option{WithOpener(opener)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, port
}

func TestNewConnectionPassesPathAndConfig(t *testing.T) {
	cfg := NewConfig(9600, DataBits7, FlowControlHardware, ParityEven, StopBitsTwo, 0)

	var gotPath string
	var gotCfg Config
	opener := OpenerFunc(func(path string, c Config) (Port, error) {
		gotPath, gotCfg = path, c
		return &capturePort{}, nil
	})

	conn, err := NewConnection("/dev/ttyUSB3", cfg, WithOpener(opener))
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "/dev/ttyUSB3", gotPath)
	assert.Equal(t, cfg, gotCfg)
	assert.Equal(t, "/dev/ttyUSB3", conn.Path())
	assert.Equal(t, cfg, conn.Config())
}

func TestNewConnectionOpenFailure(t *testing.T) {
	cause := errors.New("device busy")
	opener := OpenerFunc(func(string, Config) (Port, error) {
		return nil, cause
	})

	conn, err := NewConnection("/dev/ttyS9", DefaultConfig(), WithOpener(opener))
	require.Error(t, err)
	assert.Nil(t, conn)
	assert.ErrorIs(t, err, ErrOpen)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrWrite)

	var openErr *OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "/dev/ttyS9", openErr.Path)
	assert.Contains(t, err.Error(), "/dev/ttyS9")
}

func TestSendCommandWritesTerminatedBytes(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())

	require.NoError(t, conn.SendCommand("AT", CR))
	assert.Equal(t, []byte{'A', 'T', 13}, port.buf.Bytes())
	assert.Equal(t, 1, port.writes)
}

func TestSendCommandMatchesTerminateString(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())

	for _, cmd := range []string{"", "AT+CSQ", "M104 S200"} {
		for _, term := range []byte{CR, LF, 0, 0xff} {
			port.buf.Reset()
			require.NoError(t, conn.SendCommand(cmd, term))
			assert.Equal(t, conn.TerminateString(cmd, term), port.buf.String())
		}
	}
}

func TestWriteStringIsRaw(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())

	require.NoError(t, conn.WriteString("ATZ"))
	require.NoError(t, conn.WriteString("\r\n"))
	assert.Equal(t, "ATZ\r\n", port.buf.String())
	assert.Equal(t, 2, port.writes)
}

func TestWriteStringFailure(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())
	port.writeErr = io.ErrClosedPipe

	err := conn.SendCommand("AT", CR)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.NotErrorIs(t, err, ErrOpen)

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "/dev/ttyFAKE0", writeErr.Path)
}

func TestWriteStringShortWrite(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())
	port.short = 1

	err := conn.WriteString("AT")
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestCloseIsIdempotent(t *testing.T) {
	conn, port := openCapture(t, DefaultConfig())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.Equal(t, 1, port.closed)

	err := conn.WriteString("AT")
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, port.writes)
}

func TestConnectionLogsWrites(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	conn, _ := openCapture(t, DefaultConfig(), WithLogger(zap.New(core)))

	require.NoError(t, conn.SendCommand("AT", CR))

	opened := logs.FilterMessage("Serial port opened successfully").All()
	require.Len(t, opened, 1)
	assert.Equal(t, "/dev/ttyFAKE0", opened[0].ContextMap()["port"])

	written := logs.FilterMessage("Data written to serial port").All()
	require.Len(t, written, 1)
	assert.EqualValues(t, 3, written[0].ContextMap()["bytes_written"])
}
