package sik

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"i4.energy/across/sikradio/at"
)

// Radio controls a SiK radio through its AT command interface.
//
// Every operation enters command mode if needed, runs its commands and then
// leaves the radio in the configured default mode. Operations are serialized
// by an internal mutex, so a Radio may be shared between goroutines.
type Radio struct {
	mu sync.Mutex

	// transport provides the physical connection to the radio
	transport Transport
	// cm performs the escape and resume handshakes
	cm commandMode
	// defaultMode is the mode each operation settles in
	defaultMode Mode
	// mode tracks how the radio currently interprets the line. It only
	// changes through withCommandMode.
	mode   Mode
	timing timing
	sleep  SleepFunc
	logger *slog.Logger
	closed bool
}

// New creates a new Radio with the given configuration. It opens the
// transport with the configured Dialer but does not talk to the radio yet;
// the radio is assumed to be in transparent mode.
func New(ctx context.Context, config Config) (*Radio, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial radio: %w", err)
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	t := newTiming(config.timeUnit)
	return &Radio{
		transport: transport,
		cm: commandMode{
			transport: transport,
			timing:    t,
			sleep:     config.sleep,
			logger:    config.logger,
		},
		defaultMode: config.defaultMode,
		mode:        ModeNormal,
		timing:      t,
		sleep:       config.sleep,
		logger:      config.logger,
	}, nil
}

// Mode reports the mode the radio was left in by the last operation.
func (r *Radio) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// DefaultMode reports the mode every operation settles in.
func (r *Radio) DefaultMode() Mode {
	return r.defaultMode
}

// Close releases the transport. The radio is not returned to transparent
// mode; call ExitCommandMode first when the default mode is ModeCommand.
func (r *Radio) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrAlreadyClosed
	}
	r.closed = true

	return r.transport.Close()
}

func (r *Radio) ready(ctx context.Context) error {
	if r.closed {
		return ErrAlreadyClosed
	}
	if r.transport == nil {
		return ErrNotInitialized
	}
	return ctx.Err()
}

func (r *Radio) setMode(m Mode) {
	if r.mode != m {
		r.logger.Debug("Radio mode changed", "from", r.mode, "to", m)
	}
	r.mode = m
}

// withCommandMode runs body with the radio in command mode and leaves it in
// final afterwards. When entering fails body is not run. Once entered, the
// exit handshake always runs, even if body fails or ctx is cancelled.
func (r *Radio) withCommandMode(ctx context.Context, final Mode, body func() error) (err error) {
	if err := r.cm.enter(ctx, r.mode); err != nil {
		return fmt.Errorf("enter command mode: %w", err)
	}
	r.setMode(ModeCommand)

	defer func() {
		if exitErr := r.cm.exit(context.WithoutCancel(ctx), final); exitErr != nil {
			err = errors.Join(err, fmt.Errorf("exit command mode: %w", exitErr))
			return
		}
		r.setMode(final)
	}()

	return body()
}

// request runs a single AT command in command mode and returns the raw
// response with the echo removed.
func (r *Radio) request(ctx context.Context, cmd string) (string, error) {
	if err := r.ready(ctx); err != nil {
		return "", err
	}

	var raw []byte
	err := r.withCommandMode(ctx, r.defaultMode, func() error {
		var err error
		raw, err = r.sendCommand(cmd)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}

	resp, err := decodeASCII(raw)
	if err != nil {
		return "", &ParseError{Command: cmd, Response: string(raw), Err: err}
	}
	return resp, nil
}

// sendCommand writes cmd and collects response lines until a read comes
// back empty. The firmware sends no terminator for multi-line responses,
// so a slow radio yields a truncated response rather than an error.
func (r *Radio) sendCommand(cmd string) ([]byte, error) {
	var resp []byte
	err := withTimeout(r.transport, r.timing.command, func() error {
		wire := strings.TrimSpace(cmd) + at.CR
		r.logger.Debug("TX", "data", wire)
		if _, err := r.transport.Write([]byte(wire)); err != nil {
			return fmt.Errorf("write command %q: %w", cmd, err)
		}

		// local echo
		if _, err := r.transport.ReadLine(); err != nil {
			return fmt.Errorf("read echo: %w", err)
		}

		for {
			line, err := r.transport.ReadLine()
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			if len(line) == 0 {
				return nil
			}
			resp = append(resp, line...)
		}
	})
	if len(resp) > 0 {
		r.logger.Debug("RX", "command", cmd, "data", string(resp))
	}
	return resp, err
}

// expectOK runs cmd and fails with a ProtocolError unless the trimmed
// response is exactly OK.
func (r *Radio) expectOK(ctx context.Context, cmd string) error {
	resp, err := r.request(ctx, cmd)
	if err != nil {
		return err
	}
	if resp = strings.TrimSpace(resp); resp != at.OK {
		// ERROR is an ordinary rejection; anything else means the line is
		// out of step with the firmware.
		if at.Classify(resp) == at.TypeData {
			r.logger.Warn("Unexpected response to command", "command", cmd, "response", resp)
		}
		return &ProtocolError{Command: cmd, Response: resp}
	}
	return nil
}

// ExitCommandMode forces the radio back to transparent mode regardless of
// the default mode.
func (r *Radio) ExitCommandMode(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ready(ctx); err != nil {
		return err
	}
	return r.withCommandMode(ctx, ModeNormal, func() error { return nil })
}
