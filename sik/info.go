package sik

import (
	"context"
	"strings"

	"i4.energy/across/sikradio/at"
)

// Info is the identification reported by ATI..ATI4.
type Info struct {
	RadioVersion   string `json:"radio_version"`
	BoardType      string `json:"board_type"`
	BoardFrequency string `json:"board_frequency"`
	BoardVersion   string `json:"board_version"`
}

func (r *Radio) info(ctx context.Context, cmd string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resp, err := r.request(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func (r *Radio) report(ctx context.Context, cmd string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.request(ctx, cmd)
}

// RadioVersion returns the firmware banner, e.g. "SiK 2.0 on HM-TRP".
func (r *Radio) RadioVersion(ctx context.Context) (string, error) {
	return r.info(ctx, at.CmdRadioVersion)
}

// BoardType returns the board identifier.
func (r *Radio) BoardType(ctx context.Context) (string, error) {
	return r.info(ctx, at.CmdBoardType)
}

// BoardFrequency returns the frequency band the board was built for.
func (r *Radio) BoardFrequency(ctx context.Context) (string, error) {
	return r.info(ctx, at.CmdBoardFrequency)
}

// BoardVersion returns the bootloader version.
func (r *Radio) BoardVersion(ctx context.Context) (string, error) {
	return r.info(ctx, at.CmdBoardVersion)
}

// TimingReport returns the untrimmed ATI6 TDM timing report.
func (r *Radio) TimingReport(ctx context.Context) (string, error) {
	return r.report(ctx, at.CmdTimingReport)
}

// SignalReport returns the untrimmed ATI7 RSSI report.
func (r *Radio) SignalReport(ctx context.Context) (string, error) {
	return r.report(ctx, at.CmdSignalReport)
}

// Info collects ATI through ATI4. It stops at the first failing command.
func (r *Radio) Info(ctx context.Context) (Info, error) {
	var (
		info Info
		err  error
	)
	if info.RadioVersion, err = r.RadioVersion(ctx); err != nil {
		return Info{}, err
	}
	if info.BoardType, err = r.BoardType(ctx); err != nil {
		return Info{}, err
	}
	if info.BoardFrequency, err = r.BoardFrequency(ctx); err != nil {
		return Info{}, err
	}
	if info.BoardVersion, err = r.BoardVersion(ctx); err != nil {
		return Info{}, err
	}
	return info, nil
}
