package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"i4.energy/across/sikradio/sik"
)

var errUsage = errors.New("invalid arguments, see -help")

// app runs one CLI command against an open radio.
type app struct {
	radio  *sik.Radio
	logger *slog.Logger
	out    io.Writer
	// unit is the radio's protocol time unit, also used as the read timeout
	// for transparent data
	unit        time.Duration
	bindAddress string
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "info":
		return a.info(ctx)
	case "report":
		return a.report(ctx)
	case "params":
		return a.params(ctx)
	case "get":
		if len(args) != 1 {
			return errUsage
		}
		return a.get(ctx, args[0])
	case "set":
		return a.set(ctx, args)
	case "save":
		return a.radio.WriteParameters(ctx)
	case "reboot":
		return a.radio.Reboot(ctx)
	case "exit":
		return a.radio.ExitCommandMode(ctx)
	case "echo":
		return a.echo(ctx)
	case "ping":
		return a.ping(ctx, args)
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *app) info(ctx context.Context) error {
	info, err := a.radio.Info(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Radio version:\t%s\n", info.RadioVersion)
	fmt.Fprintf(tw, "Board type:\t%s\n", info.BoardType)
	fmt.Fprintf(tw, "Board frequency:\t%s\n", info.BoardFrequency)
	fmt.Fprintf(tw, "Board version:\t%s\n", info.BoardVersion)
	return tw.Flush()
}

func (a *app) report(ctx context.Context) error {
	timing, err := a.radio.TimingReport(ctx)
	if err != nil {
		return err
	}
	signal, err := a.radio.SignalReport(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, timing)
	fmt.Fprint(a.out, signal)
	return nil
}

// params prints KEY=VALUE lines that can be fed back to set.
func (a *app) params(ctx context.Context) error {
	params, err := a.radio.Parameters(ctx)
	if err != nil {
		return err
	}
	for _, p := range params {
		fmt.Fprintf(a.out, "%s=%d\n", p.Name, p.Value)
	}
	return nil
}

func (a *app) get(ctx context.Context, key string) error {
	v, err := a.radio.Parameter(ctx, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, v)
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	save := fs.Bool("save", false, "write parameters to EEPROM afterwards")
	reboot := fs.Bool("reboot", false, "reboot the radio afterwards")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	settings := make([]sik.Setting, 0, fs.NArg())
	for _, arg := range fs.Args() {
		s, err := sik.ParseSetting(arg)
		if err != nil {
			return err
		}
		settings = append(settings, s)
	}

	return a.configure(ctx, settings, *save, *reboot)
}

func (a *app) configure(ctx context.Context, settings []sik.Setting, save, reboot bool) error {
	if err := a.radio.Apply(ctx, settings); err != nil {
		return err
	}
	for _, s := range settings {
		fmt.Fprintf(a.out, "Set %s to %d\n", strings.ToUpper(s.Key), s.Value)
	}

	if save {
		if err := a.radio.WriteParameters(ctx); err != nil {
			return err
		}
		a.logger.Info("Parameters written to EEPROM")
	}
	if reboot {
		if err := a.radio.Reboot(ctx); err != nil {
			return err
		}
		a.logger.Info("Radio rebooted")
	}
	return nil
}
