package sik

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"i4.energy/across/sikradio/at"
)

// commandMode performs the handshakes that move the serial line between
// transparent and AT command semantics.
type commandMode struct {
	transport Transport
	timing    timing
	sleep     SleepFunc
	logger    *slog.Logger
}

// enter switches the radio into command mode. Nothing is written when the
// radio is already there.
//
// The firmware only recognises "+++" after a guard time of silence on the
// line and answers with OK once it has switched.
func (c *commandMode) enter(ctx context.Context, start Mode) error {
	if start == ModeCommand {
		return nil
	}

	return withTimeout(c.transport, c.timing.handshake, func() error {
		if err := c.sleep(ctx, c.timing.guard); err != nil {
			return fmt.Errorf("guard time: %w", err)
		}

		c.logger.Debug("TX", "data", at.EscapeSequence)
		if _, err := c.transport.Write([]byte(at.EscapeSequence)); err != nil {
			return fmt.Errorf("write escape sequence: %w", err)
		}

		line, err := c.transport.ReadLine()
		if err != nil {
			return fmt.Errorf("read escape response: %w", err)
		}
		c.logger.Debug("RX", "data", string(line))

		resp, err := decodeASCII(line)
		if err != nil {
			return &ParseError{Command: at.EscapeSequence, Response: string(line), Err: err}
		}
		if resp = strings.TrimSpace(resp); resp != at.OK {
			return &HandshakeError{Response: resp}
		}
		return nil
	})
}

// exit returns the radio to transparent mode with ATO unless final asks to
// stay in command mode. The ATO answer is not checked.
func (c *commandMode) exit(ctx context.Context, final Mode) error {
	if final == ModeCommand {
		return nil
	}

	return withTimeout(c.transport, c.timing.resume, func() error {
		wire := at.CmdResume + at.CR
		c.logger.Debug("TX", "data", wire)
		if _, err := c.transport.Write([]byte(wire)); err != nil {
			return fmt.Errorf("write %s: %w", at.CmdResume, err)
		}

		line, err := c.transport.ReadLine()
		if err != nil {
			return fmt.Errorf("read %s response: %w", at.CmdResume, err)
		}
		c.logger.Debug("RX", "data", string(line))

		if err := c.sleep(ctx, c.timing.guard); err != nil {
			return fmt.Errorf("guard time: %w", err)
		}
		return nil
	})
}

func decodeASCII(b []byte) (string, error) {
	for i, c := range b {
		if c > 0x7f {
			return "", fmt.Errorf("non-ASCII byte 0x%02x at offset %d", c, i)
		}
	}
	return string(b), nil
}
