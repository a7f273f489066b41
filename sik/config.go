package sik

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SleepFunc waits for d or until ctx is done. It is used for the line
// silence the firmware requires around the escape sequence.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the settings for a Radio. Build one with NewConfigBuilder.
type Config struct {
	dialer      Dialer
	defaultMode Mode
	timeUnit    time.Duration
	logger      *slog.Logger
	sleep       SleepFunc
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	if !c.defaultMode.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(c.defaultMode))
	}
	if c.timeUnit < 0 {
		return fmt.Errorf("time unit must not be negative: %s", c.timeUnit)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.timeUnit == 0 {
		c.timeUnit = time.Second
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets how the transport to the radio is opened. Required.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithDefaultMode sets the mode every operation leaves the radio in.
// ModeCommand keeps the radio in command mode between operations, which
// avoids repeating the escape handshake when issuing many commands.
func (b *ConfigBuilder) WithDefaultMode(m Mode) *ConfigBuilder {
	b.config.defaultMode = m
	return b
}

// WithTimeUnit scales every protocol timing. The firmware expects one
// second; tests use shorter units against simulated radios.
func (b *ConfigBuilder) WithTimeUnit(d time.Duration) *ConfigBuilder {
	b.config.timeUnit = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithSleeper(fn SleepFunc) *ConfigBuilder {
	b.config.sleep = fn
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}

// timing holds the protocol delays derived from the time unit.
type timing struct {
	guard     time.Duration // silence before "+++" and after ATO
	handshake time.Duration // read timeout for the "+++" answer
	resume    time.Duration // read timeout for the ATO answer
	command   time.Duration // read timeout ending a command response
	reboot    time.Duration // read timeout while the radio restarts
}

func newTiming(unit time.Duration) timing {
	return timing{
		guard:     unit,
		handshake: 2 * unit,
		resume:    unit,
		command:   unit / 10,
		reboot:    unit,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
