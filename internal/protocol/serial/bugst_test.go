package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bugst "go.bug.st/serial"
)

func TestOpenMissingDevice(t *testing.T) {
	for _, opener := range []Opener{BugstOpener{}, TermiosOpener{}} {
		conn, err := NewConnection("/dev/__does_not_exist__", DefaultConfig(), WithOpener(opener))
		require.Error(t, err)
		assert.Nil(t, conn)
		assert.ErrorIs(t, err, ErrOpen)
	}
}

func TestBugstMode(t *testing.T) {
	mode, err := bugstMode(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, &bugst.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}, mode)

	mode, err = bugstMode(NewConfig(9600, DataBits7, FlowControlNone, ParityOdd, StopBitsTwo, time.Second))
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, bugst.OddParity, mode.Parity)
	assert.Equal(t, bugst.TwoStopBits, mode.StopBits)

	mode, err = bugstMode(NewConfig(19200, DataBits8, FlowControlNone, ParityEven, StopBitsOne, 0))
	require.NoError(t, err)
	assert.Equal(t, bugst.EvenParity, mode.Parity)
}

func TestBugstModeRejectsUnsupported(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero baud", NewConfig(0, DataBits8, FlowControlNone, ParityNone, StopBitsOne, 0)},
		{"hardware flow", NewConfig(9600, DataBits8, FlowControlHardware, ParityNone, StopBitsOne, 0)},
		{"software flow", NewConfig(9600, DataBits8, FlowControlSoftware, ParityNone, StopBitsOne, 0)},
		{"unknown parity", NewConfig(9600, DataBits8, FlowControlNone, Parity(9), StopBitsOne, 0)},
		{"unknown stop bits", NewConfig(9600, DataBits8, FlowControlNone, ParityNone, StopBits(9), 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bugstMode(tt.cfg)
			assert.ErrorIs(t, err, ErrUnsupported)

			_, err = NewConnection("/dev/ttyS0", tt.cfg, WithOpener(BugstOpener{}))
			assert.ErrorIs(t, err, ErrOpen)
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestOpenerForDriver(t *testing.T) {
	o, err := OpenerForDriver("")
	require.NoError(t, err)
	assert.IsType(t, BugstOpener{}, o)

	o, err = OpenerForDriver("bugst")
	require.NoError(t, err)
	assert.IsType(t, BugstOpener{}, o)

	o, err = OpenerForDriver("Termios")
	require.NoError(t, err)
	assert.IsType(t, TermiosOpener{}, o)

	_, err = OpenerForDriver("ftdi")
	assert.Error(t, err)
}
