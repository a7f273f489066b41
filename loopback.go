package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// echo writes every received line back over the air until ctx is done.
func (a *app) echo(ctx context.Context) error {
	a.logger.Info("Echoing received data")

	for {
		line, err := a.radio.ReadData(ctx, a.unit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(line) == 0 {
			continue
		}
		if _, err := a.radio.WriteData(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// pingStats accumulates the results of a ping run.
type pingStats struct {
	sent     int
	received int
	total    time.Duration
}

func (s *pingStats) ratio() float64 {
	if s.sent == 0 {
		return 0
	}
	return float64(s.received) / float64(s.sent) * 100
}

func (s *pingStats) average() time.Duration {
	if s.received == 0 {
		return 0
	}
	return s.total / time.Duration(s.received)
}

// ping sends timestamps to a peer running echo and reports the round trip
// delay of each one.
func (a *app) ping(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	duration := fs.Duration("duration", 60*a.unit, "how long to keep sending")
	count := fs.Int("count", 0, "stop after this many packets (0 for no limit)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	var stats pingStats
	start := time.Now()
	for time.Since(start) < *duration && ctx.Err() == nil {
		if *count > 0 && stats.sent >= *count {
			break
		}

		idx := stats.sent
		stats.sent++

		sent := time.Now()
		payload := sent.Format(time.RFC3339Nano) + "\r\n"
		if _, err := a.radio.WriteData(ctx, []byte(payload)); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		line, err := a.radio.ReadData(ctx, a.unit)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		echoed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(string(line)))
		if err != nil || !echoed.Equal(sent) {
			fmt.Fprintf(a.out, "%d: Failed to receive data\n", idx)
			continue
		}

		delay := time.Since(sent)
		stats.received++
		stats.total += delay
		fmt.Fprintf(a.out, "%d: Delay: %s\n", idx, delay)
	}

	fmt.Fprintf(a.out, "Received %d of %d packets (%.2f%%)\n", stats.received, stats.sent, stats.ratio())
	fmt.Fprintf(a.out, "Average delay of %s\n", stats.average())
	return nil
}
