package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	config, err := LoadConfig(WithDefaults())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", config.SerialPort)
	assert.Equal(t, 57600, config.BaudRate)
	assert.Equal(t, "127.0.0.1:8080", config.BindAddress)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "normal", config.DefaultMode)
	assert.Empty(t, config.LogFile)
	assert.False(t, config.Simulate)
}

func TestWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sikradio.yaml")
	content := "serial_port: /dev/ttyACM0\nbaud_rate: 115200\ndefault_mode: command\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(WithDefaults(), WithFile(path))
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", config.SerialPort)
	assert.Equal(t, 115200, config.BaudRate)
	assert.Equal(t, "command", config.DefaultMode)
	// untouched by the file
	assert.Equal(t, "info", config.LogLevel)
}

func TestWithFileErrors(t *testing.T) {
	_, err := LoadConfig(WithFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baud_rate: [fast"), 0o600))
	_, err = LoadConfig(WithFile(path))
	assert.Error(t, err)

	config, err := LoadConfig(WithDefaults(), WithFile(""))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", config.SerialPort)
}

func TestWithEnv(t *testing.T) {
	t.Setenv("SERIAL_PORT", "/dev/ttyS1")
	t.Setenv("BAUD_RATE", "9600")
	t.Setenv("BIND_ADDRESS", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/var/log/sikradio.log")
	t.Setenv("DEFAULT_MODE", "command")

	config, err := LoadConfig(WithDefaults(), WithEnv())
	require.NoError(t, err)

	assert.Equal(t, &Config{
		SerialPort:  "/dev/ttyS1",
		BaudRate:    9600,
		BindAddress: ":9090",
		LogLevel:    "debug",
		LogFile:     "/var/log/sikradio.log",
		DefaultMode: "command",
	}, config)
}

func TestWithEnvIgnoresBadBaudRate(t *testing.T) {
	t.Setenv("BAUD_RATE", "fast")

	config, err := LoadConfig(WithDefaults(), WithEnv())
	require.NoError(t, err)
	assert.Equal(t, 57600, config.BaudRate)
}

func TestWithFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("serial-port", "/dev/ttyUSB0", "")
	fs.Int("baud-rate", 57600, "")
	fs.String("bind-address", "", "")
	fs.String("log-level", "info", "")
	fs.String("log-file", "", "")
	fs.String("default-mode", "normal", "")
	fs.Bool("simulate", false, "")
	require.NoError(t, fs.Parse([]string{"-baud-rate", "19200", "-simulate", "-log-file", "radio.log"}))

	t.Setenv("BAUD_RATE", "9600")
	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(fs))
	require.NoError(t, err)

	// flags win over the environment, unset flags keep earlier values
	assert.Equal(t, 19200, config.BaudRate)
	assert.True(t, config.Simulate)
	assert.Equal(t, "radio.log", config.LogFile)
	assert.Equal(t, "/dev/ttyUSB0", config.SerialPort)
	assert.Equal(t, "normal", config.DefaultMode)
}
