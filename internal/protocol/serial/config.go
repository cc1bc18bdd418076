// internal/protocol/serial/config.go
package serial

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DataBits is the character size of the line
type DataBits int

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

func (d DataBits) String() string {
	return strconv.Itoa(int(d))
}

// FlowControl selects how either side may pause transmission
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlSoftware
	FlowControlHardware
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlNone:
		return "none"
	case FlowControlSoftware:
		return "software"
	case FlowControlHardware:
		return "hardware"
	default:
		return fmt.Sprintf("flow_control(%d)", int(f))
	}
}

// Parity is the per-character parity bit setting
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return fmt.Sprintf("parity(%d)", int(p))
	}
}

// StopBits is the number of stop bits per character
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsTwo
)

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsTwo:
		return "2"
	default:
		return fmt.Sprintf("stop_bits(%d)", int(s))
	}
}

// Factory defaults
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = DataBits8
	DefaultFlowControl = FlowControlNone
	DefaultParity      = ParityNone
	DefaultStopBits    = StopBitsOne
	DefaultTimeout     = 10 * time.Millisecond
)

// Config is an immutable set of serial line parameters.
//
// Values are stored exactly as given. Whether the operating system accepts
// them is only known when a Connection is opened.
type Config struct {
	baudRate    uint32
	dataBits    DataBits
	flowControl FlowControl
	parity      Parity
	stopBits    StopBits
	timeout     time.Duration
}

// DefaultConfig returns 115200 baud, 8N1, no flow control and a 10ms timeout
func DefaultConfig() Config {
	return Config{
		baudRate:    DefaultBaudRate,
		dataBits:    DefaultDataBits,
		flowControl: DefaultFlowControl,
		parity:      DefaultParity,
		stopBits:    DefaultStopBits,
		timeout:     DefaultTimeout,
	}
}

// NewConfig returns a config holding the given values verbatim
func NewConfig(baudRate uint32, dataBits DataBits, flowControl FlowControl, parity Parity, stopBits StopBits, timeout time.Duration) Config {
	return Config{
		baudRate:    baudRate,
		dataBits:    dataBits,
		flowControl: flowControl,
		parity:      parity,
		stopBits:    stopBits,
		timeout:     timeout,
	}
}

func (c Config) BaudRate() uint32         { return c.baudRate }
func (c Config) DataBits() DataBits       { return c.dataBits }
func (c Config) FlowControl() FlowControl { return c.flowControl }
func (c Config) Parity() Parity           { return c.parity }
func (c Config) StopBits() StopBits       { return c.stopBits }
func (c Config) Timeout() time.Duration   { return c.timeout }

// String renders the config as e.g. "115200 8N1 flow=none timeout=10ms"
func (c Config) String() string {
	parity := "?"
	switch c.parity {
	case ParityNone:
		parity = "N"
	case ParityOdd:
		parity = "O"
	case ParityEven:
		parity = "E"
	}
	return fmt.Sprintf("%d %s%s%s flow=%s timeout=%s",
		c.baudRate, c.dataBits, parity, c.stopBits, c.flowControl, c.timeout)
}

type configJSON struct {
	BaudRate    uint32 `json:"baud_rate"`
	DataBits    int    `json:"data_bits"`
	FlowControl string `json:"flow_control"`
	Parity      string `json:"parity"`
	StopBits    string `json:"stop_bits"`
	TimeoutMs   int64  `json:"timeout_ms"`
}

// MarshalJSON exposes the config with textual enums
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(configJSON{
		BaudRate:    c.baudRate,
		DataBits:    int(c.dataBits),
		FlowControl: c.flowControl.String(),
		Parity:      c.parity.String(),
		StopBits:    c.stopBits.String(),
		TimeoutMs:   c.timeout.Milliseconds(),
	})
}

// ParseDataBits accepts "5" through "8"
func ParseDataBits(s string) (DataBits, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 5 || n > 8 {
		return 0, fmt.Errorf("invalid data bits: %q", s)
	}
	return DataBits(n), nil
}

// ParseFlowControl accepts none, software (xon/xoff) and hardware (rts/cts)
func ParseFlowControl(s string) (FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FlowControlNone, nil
	case "software", "xon/xoff", "xonxoff":
		return FlowControlSoftware, nil
	case "hardware", "rts/cts", "rtscts":
		return FlowControlHardware, nil
	default:
		return 0, fmt.Errorf("invalid flow control: %q", s)
	}
}

// ParseParity accepts none, odd and even
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	default:
		return 0, fmt.Errorf("invalid parity: %q", s)
	}
}

// ParseStopBits accepts 1/one and 2/two
func ParseStopBits(s string) (StopBits, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "one":
		return StopBitsOne, nil
	case "2", "two":
		return StopBitsTwo, nil
	default:
		return 0, fmt.Errorf("invalid stop bits: %q", s)
	}
}
