package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"i4.energy/across/sikradio/sik"
	"i4.energy/across/sikradio/sik/siktest"
)

const usage = `Usage: sikradio [flags] <command> [args]

Commands:
  info                              show radio and board identification
  report                            show timing and signal reports
  params                            list all parameters
  get KEY                           show one parameter
  set [-save] [-reboot] KEY=VALUE...  change parameters
  save                              write parameters to EEPROM
  reboot                            restart the radio
  exit                              leave command mode
  echo                              echo received data back to the sender
  ping [-duration D] [-count N]     measure round trip delay against an echoing peer
  serve                             run the HTTP API

Flags:
`

func main() {
	configFile := flag.String("config", "", "Path to a YAML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the radio is attached to")
	flag.Int("baud-rate", sik.DefaultBaudRate, "Baud rate of the radio's serial link")
	flag.String("bind-address", "127.0.0.1:8080", "Bind address for the HTTP API")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("log-file", "", "Write logs to this file, rotated, instead of stderr")
	flag.String("default-mode", "normal", "Mode to leave the radio in after each operation (normal, command)")
	flag.Bool("simulate", false, "Use an in-memory radio instead of the serial port")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithFile(*configFile), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := newLogger(config)
	defer closeLog()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, unit, err := newRadio(ctx, config, logger)
	if err != nil {
		logger.Error("Failed to open radio", "error", err, "port", config.SerialPort)
		closeLog()
		os.Exit(1)
	}

	a := &app{
		radio:       r,
		logger:      logger,
		out:         os.Stdout,
		unit:        unit,
		bindAddress: config.BindAddress,
	}
	runErr := a.run(ctx, flag.Args())

	if err := r.Close(); err != nil {
		logger.Error("Failed to close radio", "error", err)
	}
	if runErr != nil {
		logger.Error("Command failed", "command", flag.Arg(0), "error", runErr)
		closeLog()
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger returns a JSON logger writing to stderr, or to a rotated file
// when LogFile is set. The returned function closes the file.
func newLogger(config *Config) (*slog.Logger, func() error) {
	var w io.Writer = os.Stderr
	closeFn := func() error { return nil }

	if config.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		w, closeFn = lj, lj.Close
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)})
	return slog.New(handler), closeFn
}

// newRadio opens the configured radio and returns it together with the
// protocol time unit in use.
func newRadio(ctx context.Context, config *Config, logger *slog.Logger) (*sik.Radio, time.Duration, error) {
	mode, err := sik.ParseMode(config.DefaultMode)
	if err != nil {
		return nil, 0, err
	}

	unit := time.Second
	var dialer sik.Dialer = sik.SerialDialer{
		PortName: config.SerialPort,
		BaudRate: config.BaudRate,
	}
	if config.Simulate {
		fw := siktest.New()
		fw.Loopback = true
		dialer = fw
		unit = 10 * time.Millisecond
		logger.Info("Using simulated radio")
	}

	radioConfig, err := sik.NewConfigBuilder().
		WithDialer(dialer).
		WithDefaultMode(mode).
		WithTimeUnit(unit).
		WithLogger(logger.With("component", "radio")).
		Build()
	if err != nil {
		return nil, 0, err
	}

	r, err := sik.New(ctx, radioConfig)
	if err != nil {
		return nil, 0, err
	}
	return r, unit, nil
}
