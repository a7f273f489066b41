package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the radio's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate of the radio's serial link (e.g. 57600)
	BaudRate int `yaml:"baud_rate"`
	// BindAddress is the address the HTTP API listens on (e.g. "127.0.0.1:8080")
	BindAddress string `yaml:"bind_address"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// LogFile, when set, sends logs to a rotated file instead of stderr
	LogFile string `yaml:"log_file"`
	// DefaultMode is the mode the radio is left in after each operation
	// ("normal" or "command")
	DefaultMode string `yaml:"default_mode"`
	// Simulate runs against an in-memory radio instead of SerialPort
	Simulate bool `yaml:"simulate"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 57600
		c.BindAddress = "127.0.0.1:8080"
		c.LogLevel = "info"
		c.DefaultMode = "normal"
		return nil
	}
}

// WithFile loads configuration from a YAML file. Fields missing from the
// file keep their current value. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if file := os.Getenv("LOG_FILE"); file != "" {
			c.LogFile = file
		}

		if mode := os.Getenv("DEFAULT_MODE"); mode != "" {
			c.DefaultMode = mode
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "log-file":
				c.LogFile = f.Value.String()
			case "default-mode":
				c.DefaultMode = f.Value.String()
			case "simulate":
				if b, err := strconv.ParseBool(f.Value.String()); err == nil {
					c.Simulate = b
				}
			}
		})
		return nil
	}
}
