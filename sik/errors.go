package sik

import (
	"errors"
	"fmt"

	"i4.energy/across/sikradio/at"
)

var (
	// ErrNoDialer is returned when a Radio is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the radio.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Radio
	// that has no transport, for example because the Dialer returned none.
	ErrNotInitialized = errors.New("radio not initialized")

	// ErrAlreadyClosed is returned when an operation or Close is attempted on
	// a Radio that has already been closed.
	ErrAlreadyClosed = errors.New("radio already closed")

	// ErrInvalidMode is returned when a Mode other than ModeNormal or
	// ModeCommand is configured or parsed.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrHandshake is returned when the radio does not answer the "+++"
	// escape sequence with OK. The line may be left in either mode; the
	// enclosing operation is abandoned without retrying.
	ErrHandshake = errors.New("command mode handshake rejected")

	// ErrUnknownParameter is returned when a parameter name has no register
	// index. It is detected before anything is written to the radio.
	ErrUnknownParameter = errors.New("unknown parameter")

	// ErrProtocol is returned when the firmware answers a command with
	// something other than the expected OK.
	ErrProtocol = errors.New("unexpected radio response")

	// ErrParse is returned when a response cannot be decoded, either because
	// it is not ASCII or because a numeric value was expected.
	ErrParse = errors.New("malformed radio response")

	// ErrCommandMode is returned when transparent data I/O is attempted
	// while the radio is held in command mode.
	ErrCommandMode = errors.New("radio is in command mode")
)

// HandshakeError carries the response that was received instead of OK
// after the escape sequence.
type HandshakeError struct {
	Response string
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("%v: got %q, expected %q", ErrHandshake, e.Response, at.OK)
}

func (e *HandshakeError) Unwrap() error { return ErrHandshake }

// UnknownParameterError names the parameter key that failed to resolve.
type UnknownParameterError struct {
	Key string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownParameter, e.Key)
}

func (e *UnknownParameterError) Unwrap() error { return ErrUnknownParameter }

// ProtocolError records the command and the trimmed response the firmware
// gave instead of OK.
type ProtocolError struct {
	Command  string
	Response string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v: got %q, expected %q", e.Command, ErrProtocol, e.Response, at.OK)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// ParseError records a response that could not be decoded.
type ParseError struct {
	Command  string
	Response string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v: %q", e.Command, ErrParse, e.Response)
	}
	return fmt.Sprintf("%s: %v: %q: %v", e.Command, ErrParse, e.Response, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}
