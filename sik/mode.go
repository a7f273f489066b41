package sik

import (
	"fmt"
	"strings"
)

// Mode is the interpretation the radio currently applies to bytes arriving
// on its serial line.
type Mode int

const (
	// ModeNormal passes bytes transparently over the air.
	ModeNormal Mode = iota
	// ModeCommand interprets bytes as AT commands.
	ModeCommand
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeCommand:
		return "command"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m == ModeNormal || m == ModeCommand
}

// ParseMode converts "normal" or "command" (any case) into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return ModeNormal, nil
	case "command":
		return ModeCommand, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
