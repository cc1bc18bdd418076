// cmd/sendcmd/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"serial-service/internal/config"
	"serial-service/internal/protocol/serial"
	"serial-service/internal/utils"
)

// Diagnostics the process exits with
const (
	openFailureMessage  = "Unable to Open Serial Port"
	writeFailureMessage = "Unable to Write String to Serial Port"
)

// invocation is a parsed command line
type invocation struct {
	config   *config.Config
	commands []string
}

func main() {
	inv, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sendcmd: %v\n", err)
		os.Exit(2)
	}

	logger, err := utils.NewLogger(&inv.config.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sendcmd: %v\n", err)
		os.Exit(2)
	}
	defer utils.CloseLogger(logger)

	if err := run(inv, nil, logger); err != nil {
		logger.Fatal(diagnostic(err), zap.String("port", inv.config.Serial.Port), zap.Error(err))
	}
}

// parseArgs reads flags, environment and the optional config file. Log
// output that would go to stdout is moved to stderr.
func parseArgs(args []string, usageOut io.Writer) (*invocation, error) {
	flags := pflag.NewFlagSet("sendcmd", pflag.ContinueOnError)
	flags.SetOutput(usageOut)
	flags.Usage = func() {
		fmt.Fprintf(usageOut, "Usage: sendcmd [flags] COMMAND...\n\nWrites each COMMAND followed by the terminator to a serial port.\n\n")
		flags.PrintDefaults()
	}

	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	flags.StringP("port", "p", "", "serial device path, e.g. /dev/ttyUSB0")
	flags.String("driver", "", "serial driver: bugst or termios")
	flags.Uint32P("baud", "b", serial.DefaultBaudRate, "baud rate")
	flags.String("data-bits", "", "data bits: 5, 6, 7 or 8")
	flags.String("flow-control", "", "flow control: none, software or hardware")
	flags.String("parity", "", "parity: none, odd or even")
	flags.String("stop-bits", "", "stop bits: 1 or 2")
	flags.Duration("timeout", serial.DefaultTimeout, "line timeout (read timeout on bugst, write timeout on termios)")
	flags.StringP("terminator", "t", "", "terminator: cr, lf, nul or a byte value")
	flags.String("log-level", "", "log level")
	flags.String("log-format", "", "log format: json or console")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return nil, errors.New("at least one COMMAND is required")
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return nil, err
	}
	// stdout stays free for scripting
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}

	return &invocation{config: cfg, commands: flags.Args()}, nil
}

// run opens the port and sends every command in order, stopping at the
// first failure. A nil opener selects the configured driver.
func run(inv *invocation, opener serial.Opener, logger *zap.Logger) error {
	lineConfig, err := inv.config.Serial.ConnectionConfig()
	if err != nil {
		return err
	}
	terminator, err := inv.config.Serial.DefaultTerminator()
	if err != nil {
		return err
	}
	if opener == nil {
		if opener, err = inv.config.Serial.Opener(); err != nil {
			return err
		}
	}

	conn, err := serial.NewConnection(inv.config.Serial.Port, lineConfig,
		serial.WithOpener(opener),
		serial.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	for _, command := range inv.commands {
		if err := conn.SendCommand(command, terminator); err != nil {
			return fmt.Errorf("failed to send %q: %w", command, err)
		}
	}
	return nil
}

// diagnostic picks the fatal message for err
func diagnostic(err error) string {
	switch {
	case errors.Is(err, serial.ErrOpen):
		return openFailureMessage
	case errors.Is(err, serial.ErrWrite):
		return writeFailureMessage
	default:
		return "sendcmd failed"
	}
}
