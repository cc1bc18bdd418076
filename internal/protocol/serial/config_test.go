package serial

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	for i := 0; i < 3; i++ {
		cfg := DefaultConfig()
		assert.Equal(t, uint32(115200), cfg.BaudRate())
		assert.Equal(t, DataBits8, cfg.DataBits())
		assert.Equal(t, FlowControlNone, cfg.FlowControl())
		assert.Equal(t, ParityNone, cfg.Parity())
		assert.Equal(t, StopBitsOne, cfg.StopBits())
		assert.Equal(t, 10*time.Millisecond, cfg.Timeout())
	}
	assert.Equal(t, DefaultConfig(), DefaultConfig())
}

func TestNewConfigStoresValuesVerbatim(t *testing.T) {
	tests := []struct {
		name     string
		baud     uint32
		dataBits DataBits
		flow     FlowControl
		parity   Parity
		stopBits StopBits
		timeout  time.Duration
	}{
		{"9600 7E2 hardware", 9600, DataBits7, FlowControlHardware, ParityEven, StopBitsTwo, time.Second},
		{"5 bits odd software", 300, DataBits5, FlowControlSoftware, ParityOdd, StopBitsOne, 0},
		{"zero baud", 0, DataBits6, FlowControlNone, ParityNone, StopBitsOne, 10 * time.Millisecond},
		{"max baud", ^uint32(0), DataBits8, FlowControlNone, ParityNone, StopBitsTwo, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(tt.baud, tt.dataBits, tt.flow, tt.parity, tt.stopBits, tt.timeout)
			assert.Equal(t, tt.baud, cfg.BaudRate())
			assert.Equal(t, tt.dataBits, cfg.DataBits())
			assert.Equal(t, tt.flow, cfg.FlowControl())
			assert.Equal(t, tt.parity, cfg.Parity())
			assert.Equal(t, tt.stopBits, cfg.StopBits())
			assert.Equal(t, tt.timeout, cfg.Timeout())
		})
	}
}

func TestConfigString(t *testing.T) {
	assert.Equal(t, "115200 8N1 flow=none timeout=10ms", DefaultConfig().String())

	cfg := NewConfig(9600, DataBits7, FlowControlHardware, ParityEven, StopBitsTwo, time.Second)
	assert.Equal(t, "9600 7E2 flow=hardware timeout=1s", cfg.String())
}

func TestConfigMarshalJSON(t *testing.T) {
	raw, err := json.Marshal(DefaultConfig())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"baud_rate": 115200,
		"data_bits": 8,
		"flow_control": "none",
		"parity": "none",
		"stop_bits": "1",
		"timeout_ms": 10
	}`, string(raw))
}

func TestParseEnums(t *testing.T) {
	d, err := ParseDataBits("7")
	require.NoError(t, err)
	assert.Equal(t, DataBits7, d)
	_, err = ParseDataBits("9")
	assert.Error(t, err)
	_, err = ParseDataBits("eight")
	assert.Error(t, err)

	f, err := ParseFlowControl("RTS/CTS")
	require.NoError(t, err)
	assert.Equal(t, FlowControlHardware, f)
	f, err = ParseFlowControl("software")
	require.NoError(t, err)
	assert.Equal(t, FlowControlSoftware, f)
	_, err = ParseFlowControl("dtr")
	assert.Error(t, err)

	p, err := ParseParity("Odd")
	require.NoError(t, err)
	assert.Equal(t, ParityOdd, p)
	p, err = ParseParity("")
	require.NoError(t, err)
	assert.Equal(t, ParityNone, p)
	_, err = ParseParity("mark")
	assert.Error(t, err)

	s, err := ParseStopBits("2")
	require.NoError(t, err)
	assert.Equal(t, StopBitsTwo, s)
	_, err = ParseStopBits("1.5")
	assert.Error(t, err)
}

func TestEnumStringRoundTrip(t *testing.T) {
	for _, f := range []FlowControl{FlowControlNone, FlowControlSoftware, FlowControlHardware} {
		got, err := ParseFlowControl(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	for _, p := range []Parity{ParityNone, ParityOdd, ParityEven} {
		got, err := ParseParity(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	for _, s := range []StopBits{StopBitsOne, StopBitsTwo} {
		got, err := ParseStopBits(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	assert.Equal(t, "parity(7)", Parity(7).String())
}
