package sik

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"i4.energy/across/sikradio/at"
)

// Parameters returns every parameter reported by ATI5, in firmware order.
// Lines that do not have the form ":NAME=VALUE" are skipped.
func (r *Radio) Parameters(ctx context.Context) (Parameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp, err := r.request(ctx, at.CmdParameters)
	if err != nil {
		return nil, err
	}

	regs := at.ParseRegisters(resp)
	params := make(Parameters, len(regs))
	for i, reg := range regs {
		params[i] = Parameter{Name: reg.Name, Value: reg.Value}
	}
	return params, nil
}

// SetParameter writes value to the named parameter. The firmware validates
// the range; the change lives in RAM until WriteParameters is called and
// takes effect after Reboot.
func (r *Radio) SetParameter(ctx context.Context, key string, value int) error {
	k, err := LookupParameter(key)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expectOK(ctx, at.SetRegister(k.Index(), value))
}

// Parameter reads the current value of the named parameter.
func (r *Radio) Parameter(ctx context.Context, key string) (int, error) {
	k, err := LookupParameter(key)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := at.GetRegister(k.Index())
	resp, err := r.request(ctx, cmd)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(strings.TrimSpace(resp))
	if err != nil {
		return 0, &ParseError{Command: cmd, Response: strings.TrimSpace(resp), Err: err}
	}
	return v, nil
}

// WriteParameters persists the current parameters to EEPROM with AT&W.
func (r *Radio) WriteParameters(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expectOK(ctx, at.CmdWrite)
}

// Apply sets each parameter in order. All keys are resolved before the first
// command is sent; the first rejected setting stops the sequence.
func (r *Radio) Apply(ctx context.Context, settings []Setting) error {
	for _, s := range settings {
		if _, err := LookupParameter(s.Key); err != nil {
			return err
		}
	}

	for _, s := range settings {
		if err := r.SetParameter(ctx, s.Key, s.Value); err != nil {
			return fmt.Errorf("set %s=%d: %w", s.Key, s.Value, err)
		}
		r.logger.Info("Parameter set", "key", strings.ToUpper(s.Key), "value", s.Value)
	}
	return nil
}
