package sik

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the factory serial speed of SiK radios (SERIAL_SPEED=57).
const DefaultBaudRate = 57600

// SerialDialer opens a SiK radio over a local serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	PortName string
	// BaudRate is used when Mode is nil. Zero selects DefaultBaudRate.
	BaudRate int
	// Mode overrides the 8N1 line settings entirely.
	Mode *serial.Mode
	// Timeout is the initial read timeout. Zero selects one second.
	Timeout time.Duration
}

// Dial opens the serial port and discards anything already buffered on it.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, errors.New("sik: serial port name is required")
	}
	if ctx == nil {
		return nil, errors.New("sik: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("sik: open %s: %w", d.PortName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("sik: reset input buffer: %w", err)
	}

	timeout := d.Timeout
	if timeout == 0 {
		timeout = time.Second
	}
	t := newSerialTransport(port)
	if err := t.SetTimeout(timeout); err != nil {
		port.Close()
		return nil, err
	}
	return t, nil
}

// timeoutPort is the subset of serial.Port the transport needs.
type timeoutPort interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

var _ timeoutPort = serial.Port(nil)

// serialTransport adapts a serial port to Transport. The timeout bounds a
// whole ReadLine or ReadN call, not each underlying read.
type serialTransport struct {
	port    timeoutPort
	timeout time.Duration
	// pending holds bytes read past the end of the last returned line.
	pending []byte
	chunk   []byte
	now     func() time.Time
}

func newSerialTransport(port timeoutPort) *serialTransport {
	return &serialTransport{
		port:  port,
		chunk: make([]byte, 256),
		now:   time.Now,
	}
}

func (t *serialTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

func (t *serialTransport) Close() error {
	return t.port.Close()
}

func (t *serialTransport) Timeout() time.Duration {
	return t.timeout
}

// SetTimeout sets the read timeout. A non-positive timeout blocks until data
// arrives.
func (t *serialTransport) SetTimeout(d time.Duration) error {
	t.timeout = d
	return nil
}

func (t *serialTransport) ReadLine() ([]byte, error) {
	return t.readUntil(func(buf []byte) int {
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return i + 1
		}
		return -1
	})
}

func (t *serialTransport) ReadN(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	return t.readUntil(func(buf []byte) int {
		if len(buf) >= n {
			return n
		}
		return -1
	})
}

// readUntil fills pending until complete reports a cut position or the
// timeout elapses, then returns the bytes before the cut (or everything on
// timeout).
func (t *serialTransport) readUntil(complete func([]byte) int) ([]byte, error) {
	var deadline time.Time
	if t.timeout > 0 {
		deadline = t.now().Add(t.timeout)
	}

	for {
		if cut := complete(t.pending); cut >= 0 {
			return t.take(cut), nil
		}

		readTimeout := serial.NoTimeout
		if !deadline.IsZero() {
			readTimeout = deadline.Sub(t.now())
			if readTimeout <= 0 {
				return t.take(len(t.pending)), nil
			}
		}
		if err := t.port.SetReadTimeout(readTimeout); err != nil {
			return t.take(len(t.pending)), fmt.Errorf("set read timeout: %w", err)
		}

		n, err := t.port.Read(t.chunk)
		if err != nil {
			return t.take(len(t.pending)), err
		}
		if n == 0 {
			// go.bug.st/serial reports an expired read timeout as a zero-length read.
			return t.take(len(t.pending)), nil
		}
		t.pending = append(t.pending, t.chunk[:n]...)
	}
}

func (t *serialTransport) take(n int) []byte {
	out := make([]byte, n)
	copy(out, t.pending[:n])
	t.pending = t.pending[n:]
	return out
}
