package sik

//go:generate go tool mockgen -source=transport.go -destination=transport_mock.go -package=sik

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Transport represents an established, bidirectional byte stream to a SiK radio.
//
// A Transport is assumed to be already connected and ready for use. Reads are
// bounded by a mutable timeout: a read that sees no data before the timeout
// elapses returns an empty result and a nil error. The command mode protocol
// relies on that empty result to detect the end of a response.
type Transport interface {
	io.Writer
	io.Closer

	// ReadLine reads up to and including the next '\n'. If the timeout
	// elapses first it returns whatever arrived, possibly nothing.
	ReadLine() ([]byte, error)

	// ReadN reads up to n bytes, returning fewer if the timeout elapses.
	ReadN(n int) ([]byte, error)

	// Timeout returns the current read timeout.
	Timeout() time.Duration

	// SetTimeout changes the read timeout for subsequent reads.
	SetTimeout(d time.Duration) error
}

// Dialer opens a Transport to a SiK radio.
//
// Dialer abstracts how the radio connection is created (for example, via a
// serial port or a simulated firmware) and is intended to be used during
// radio construction only. Once a Transport is obtained, the Dialer is
// no longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It
	// should respect cancellation provided by the context. Dial returns an
	// error if the transport cannot be established.
	Dial(ctx context.Context) (Transport, error)
}

// withTimeout runs fn with the transport read timeout set to d and restores
// the previous timeout afterwards, also when fn fails.
func withTimeout(t Transport, d time.Duration, fn func() error) (err error) {
	prev := t.Timeout()
	if err := t.SetTimeout(d); err != nil {
		return fmt.Errorf("set timeout: %w", err)
	}
	defer func() {
		if restoreErr := t.SetTimeout(prev); restoreErr != nil {
			err = errors.Join(err, fmt.Errorf("restore timeout: %w", restoreErr))
		}
	}()
	return fn()
}
