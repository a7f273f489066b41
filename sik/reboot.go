package sik

import (
	"context"
	"fmt"

	"i4.energy/across/sikradio/at"
)

// Reboot restarts the radio so that changed parameters take effect.
//
// After ATZ the firmware comes back in transparent mode, so the escape
// sequence is sent again and the radio's OK is awaited byte by byte. A
// missing confirmation is logged but not reported as an error.
func (r *Radio) Reboot(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ready(ctx); err != nil {
		return err
	}

	err := r.withCommandMode(ctx, r.defaultMode, func() error {
		return withTimeout(r.transport, r.timing.reboot, func() error {
			wire := at.CmdReboot + at.CR
			r.logger.Debug("TX", "data", wire)
			if _, err := r.transport.Write([]byte(wire)); err != nil {
				return fmt.Errorf("write %s: %w", at.CmdReboot, err)
			}

			// echo of "ATZ"
			if _, err := r.transport.ReadN(len(at.CmdReboot)); err != nil {
				return fmt.Errorf("read echo: %w", err)
			}

			if err := r.sleep(ctx, r.timing.guard); err != nil {
				return fmt.Errorf("guard time: %w", err)
			}

			r.logger.Debug("TX", "data", at.EscapeSequence)
			if _, err := r.transport.Write([]byte(at.EscapeSequence)); err != nil {
				return fmt.Errorf("write escape sequence: %w", err)
			}

			confirmed, resp, err := r.awaitOK()
			if err != nil {
				return fmt.Errorf("read reboot confirmation: %w", err)
			}
			if !confirmed {
				// TODO: decide whether a missing confirmation should fail Reboot
				// once firmware behaviour after ATZ has been checked on all boards.
				r.logger.Warn("Radio did not confirm command mode after reboot", "response", string(resp))
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", at.CmdReboot, err)
	}
	return nil
}

// awaitOK reads single bytes until the accumulated response is exactly
// "OK\r\n" or a read times out.
func (r *Radio) awaitOK() (bool, []byte, error) {
	var resp []byte
	for {
		b, err := r.transport.ReadN(1)
		if err != nil {
			return false, resp, err
		}
		if len(b) == 0 {
			return false, resp, nil
		}
		resp = append(resp, b...)
		if string(resp) == at.OK+at.CRLF {
			return true, resp, nil
		}
	}
}
