// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"serial-service/internal/protocol/serial"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Serial   SerialSettings `mapstructure:"serial"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// SerialSettings is the textual form of the serial line configuration
type SerialSettings struct {
	Port        string        `mapstructure:"port"`
	Driver      string        `mapstructure:"driver"`
	BaudRate    uint32        `mapstructure:"baud_rate"`
	DataBits    string        `mapstructure:"data_bits"`
	FlowControl string        `mapstructure:"flow_control"`
	Parity      string        `mapstructure:"parity"`
	StopBits    string        `mapstructure:"stop_bits"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Terminator  string        `mapstructure:"terminator"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from an optional YAML file, SERIAL_SERVICE_*
// environment variables and, when flags is non-nil, command line flags.
// An empty path searches ./config.yaml and /etc/serial-service/config.yaml.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/serial-service")
	}

	// Environment variable support
	v.SetEnvPrefix("SERIAL_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Flag names bound onto configuration keys
var flagKeys = map[string]string{
	"port":         "serial.port",
	"driver":       "serial.driver",
	"baud":         "serial.baud_rate",
	"data-bits":    "serial.data_bits",
	"flow-control": "serial.flow_control",
	"parity":       "serial.parity",
	"stop-bits":    "serial.stop_bits",
	"timeout":      "serial.timeout",
	"terminator":   "serial.terminator",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"listen":       "server.port",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Security defaults
	v.SetDefault("security.allowed_origins", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Serial defaults
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.driver", serial.DriverBugst)
	v.SetDefault("serial.baud_rate", serial.DefaultBaudRate)
	v.SetDefault("serial.data_bits", serial.DefaultDataBits.String())
	v.SetDefault("serial.flow_control", serial.DefaultFlowControl.String())
	v.SetDefault("serial.parity", serial.DefaultParity.String())
	v.SetDefault("serial.stop_bits", serial.DefaultStopBits.String())
	v.SetDefault("serial.timeout", serial.DefaultTimeout.String())
	v.SetDefault("serial.terminator", serial.FormatTerminator(serial.CR))

	// App defaults
	v.SetDefault("app.name", "serial-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if _, err := config.Serial.ConnectionConfig(); err != nil {
		return err
	}
	if _, err := config.Serial.DefaultTerminator(); err != nil {
		return fmt.Errorf("serial.terminator: %w", err)
	}
	if _, err := serial.OpenerForDriver(config.Serial.Driver); err != nil {
		return fmt.Errorf("serial.driver: %w", err)
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// ConnectionConfig converts the textual settings into a serial.Config.
// Unknown enum words are rejected here; numeric values such as the baud
// rate are passed through for the driver to judge.
func (s SerialSettings) ConnectionConfig() (serial.Config, error) {
	dataBits, err := serial.ParseDataBits(s.DataBits)
	if err != nil {
		return serial.Config{}, fmt.Errorf("serial.data_bits: %w", err)
	}
	flow, err := serial.ParseFlowControl(s.FlowControl)
	if err != nil {
		return serial.Config{}, fmt.Errorf("serial.flow_control: %w", err)
	}
	parity, err := serial.ParseParity(s.Parity)
	if err != nil {
		return serial.Config{}, fmt.Errorf("serial.parity: %w", err)
	}
	stopBits, err := serial.ParseStopBits(s.StopBits)
	if err != nil {
		return serial.Config{}, fmt.Errorf("serial.stop_bits: %w", err)
	}

	return serial.NewConfig(s.BaudRate, dataBits, flow, parity, stopBits, s.Timeout), nil
}

// DefaultTerminator parses the configured terminator byte
func (s SerialSettings) DefaultTerminator() (byte, error) {
	return serial.ParseTerminator(s.Terminator)
}

// Opener resolves the configured serial driver
func (s SerialSettings) Opener() (serial.Opener, error) {
	return serial.OpenerForDriver(s.Driver)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
