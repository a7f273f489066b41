package sik

import (
	"context"
	"time"
)

// WriteData sends p over the air. It fails with ErrCommandMode while the
// radio is held in command mode, where p would be taken as AT commands.
func (r *Radio) WriteData(ctx context.Context, p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ready(ctx); err != nil {
		return 0, err
	}
	if r.mode == ModeCommand {
		return 0, ErrCommandMode
	}
	return r.transport.Write(p)
}

// ReadData reads one line of received data, waiting at most timeout. An
// empty result means nothing arrived in time.
func (r *Radio) ReadData(ctx context.Context, timeout time.Duration) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	if r.mode == ModeCommand {
		return nil, ErrCommandMode
	}

	var line []byte
	err := withTimeout(r.transport, timeout, func() error {
		var err error
		line, err = r.transport.ReadLine()
		return err
	})
	return line, err
}
