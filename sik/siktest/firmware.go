// Package siktest provides an in-memory SiK radio for tests and dry runs.
package siktest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"i4.energy/across/sikradio/at"
	"i4.energy/across/sikradio/sik"
)

// paramRange is the range the simulated firmware accepts for a register.
type paramRange struct {
	min, max int
	readOnly bool
}

var ranges = map[sik.ParameterKey]paramRange{
	sik.Format:      {readOnly: true},
	sik.SerialSpeed: {min: 2, max: 115},
	sik.AirSpeed:    {min: 2, max: 250},
	sik.NetID:       {min: 0, max: 499},
	sik.TxPower:     {min: 0, max: 30},
	sik.ECC:         {min: 0, max: 1},
	sik.MAVLink:     {min: 0, max: 2},
	sik.OpResend:    {min: 0, max: 1},
	sik.MinFreq:     {min: 902000, max: 927000},
	sik.MaxFreq:     {min: 903000, max: 928000},
	sik.NumChannels: {min: 5, max: 50},
	sik.DutyCycle:   {min: 10, max: 100},
	sik.LBTRSSI:     {min: 0, max: 220},
	sik.Manchester:  {min: 0, max: 1},
	sik.RTSCTS:      {min: 0, max: 1},
	sik.MaxWindow:   {min: 20, max: 400},
}

// DefaultRegisters are the factory settings of a 915 MHz radio.
var DefaultRegisters = map[sik.ParameterKey]int{
	sik.Format:      25,
	sik.SerialSpeed: 57,
	sik.AirSpeed:    64,
	sik.NetID:       25,
	sik.TxPower:     20,
	sik.ECC:         1,
	sik.MAVLink:     1,
	sik.OpResend:    1,
	sik.MinFreq:     915000,
	sik.MaxFreq:     928000,
	sik.NumChannels: 50,
	sik.DutyCycle:   100,
	sik.LBTRSSI:     0,
	sik.Manchester:  0,
	sik.RTSCTS:      0,
	sik.MaxWindow:   131,
}

// Firmware simulates a SiK radio behind its serial port. It implements both
// sik.Transport and sik.Dialer, so it can be handed to a ConfigBuilder
// directly.
//
// Guard times are not enforced: "+++" written in transparent mode always
// switches to command mode. Reads never block; whatever output is pending
// is returned, and an empty result stands in for an expired timeout.
type Firmware struct {
	// Banner, BoardType, BoardFrequency and BoardVersion answer ATI..ATI4.
	Banner         string
	BoardType      string
	BoardFrequency string
	BoardVersion   string
	// TimingReport and SignalReport answer ATI6 and ATI7 verbatim.
	TimingReport string
	SignalReport string
	// HandshakeReply answers "+++". Anything but OK leaves the radio in
	// transparent mode.
	HandshakeReply string
	// Loopback echoes data written in transparent mode back to the reader,
	// as a remote radio running an echo server would.
	Loopback bool
	// SilentReboot suppresses the OK after the post-reboot escape sequence.
	SilentReboot bool

	mu        sync.Mutex
	command   bool
	registers map[sik.ParameterKey]int
	eeprom    map[sik.ParameterKey]int
	input     []byte
	output    []byte
	timeout   time.Duration
	commands  []string
	writes    int
	reboots   int
	silent    bool // next "+++" switches without answering
	closed    bool
}

var (
	_ sik.Transport = (*Firmware)(nil)
	_ sik.Dialer    = (*Firmware)(nil)
)

// New returns a radio in transparent mode with DefaultRegisters.
func New() *Firmware {
	f := &Firmware{
		Banner:         "SiK 2.0 on HM-TRP",
		BoardType:      "130",
		BoardFrequency: "915",
		BoardVersion:   "2",
		TimingReport:   "silence_period=1000\r\ntx_window_width=20000\r\nmax_data_packet_length=252\r\n",
		SignalReport:   "L/R RSSI: 180/175  L/R noise: 30/32 pkts: 12  txe=0 rxe=0 stx=0 srx=0 ecc=0/0 temp=41 dco=0\r\n",
		HandshakeReply: at.OK,
		registers:      make(map[sik.ParameterKey]int),
		eeprom:         make(map[sik.ParameterKey]int),
		timeout:        time.Second,
	}
	for k, v := range DefaultRegisters {
		f.registers[k] = v
		f.eeprom[k] = v
	}
	return f
}

// Dial returns the firmware itself.
func (f *Firmware) Dial(ctx context.Context) (sik.Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Firmware) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, io.ErrClosedPipe
	}
	f.writes++

	if !f.command {
		f.transparent(p)
		return len(p), nil
	}

	f.input = append(f.input, p...)
	for {
		i := bytes.IndexByte(f.input, '\r')
		if i < 0 {
			break
		}
		cmd := string(f.input[:i])
		f.input = f.input[i+1:]
		f.execute(cmd)
	}
	return len(p), nil
}

func (f *Firmware) transparent(p []byte) {
	if string(p) == at.EscapeSequence {
		if f.silent {
			f.silent = false
			f.command = true
			f.input = nil
			return
		}
		f.output = append(f.output, f.HandshakeReply+at.CRLF...)
		if f.HandshakeReply == at.OK {
			f.command = true
			f.input = nil
		}
		return
	}
	if f.Loopback {
		f.output = append(f.output, p...)
	}
}

func (f *Firmware) execute(cmd string) {
	cmd = strings.TrimSpace(cmd)
	f.commands = append(f.commands, cmd)

	upper := strings.ToUpper(cmd)
	if upper == at.CmdReboot {
		f.reboot()
		return
	}

	f.reply(cmd)
	switch {
	case upper == at.CmdResume:
		f.command = false
	case upper == at.CmdRadioVersion:
		f.reply(f.Banner)
	case upper == at.CmdBoardType:
		f.reply(f.BoardType)
	case upper == at.CmdBoardFrequency:
		f.reply(f.BoardFrequency)
	case upper == at.CmdBoardVersion:
		f.reply(f.BoardVersion)
	case upper == at.CmdParameters:
		for _, k := range sik.ParameterKeys() {
			f.reply(fmt.Sprintf("S%d:%s=%d", k.Index(), k, f.registers[k]))
		}
	case upper == at.CmdTimingReport:
		f.output = append(f.output, f.TimingReport...)
	case upper == at.CmdSignalReport:
		f.output = append(f.output, f.SignalReport...)
	case upper == at.CmdWrite:
		for k, v := range f.registers {
			f.eeprom[k] = v
		}
		f.reply(at.OK)
	case strings.HasPrefix(upper, "ATS"):
		f.reply(f.register(upper[len("ATS"):]))
	default:
		f.reply(at.ERROR)
	}
}

// register handles "n=v" and "n?".
func (f *Firmware) register(arg string) string {
	if idx, ok := strings.CutSuffix(arg, "?"); ok {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 || n >= len(sik.ParameterKeys()) {
			return at.ERROR
		}
		return strconv.Itoa(f.registers[sik.ParameterKey(n)])
	}

	idx, value, ok := strings.Cut(arg, "=")
	if !ok {
		return at.ERROR
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 || n >= len(sik.ParameterKeys()) {
		return at.ERROR
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return at.ERROR
	}
	k := sik.ParameterKey(n)
	r := ranges[k]
	if r.readOnly || v < r.min || v > r.max {
		return at.ERROR
	}
	f.registers[k] = v
	return at.OK
}

// reboot echoes the bare command, drops unsaved registers and restarts in
// transparent mode.
func (f *Firmware) reboot() {
	f.output = append(f.output, at.CmdReboot...)
	for k, v := range f.eeprom {
		f.registers[k] = v
	}
	f.command = false
	f.input = nil
	f.reboots++
	f.silent = f.SilentReboot
}

func (f *Firmware) reply(line string) {
	f.output = append(f.output, line+at.CRLF...)
}

func (f *Firmware) ReadLine() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.output)
	if i := bytes.IndexByte(f.output, '\n'); i >= 0 {
		n = i + 1
	}
	return f.take(n), nil
}

func (f *Firmware) ReadN(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.take(min(n, len(f.output))), nil
}

func (f *Firmware) take(n int) []byte {
	out := make([]byte, n)
	copy(out, f.output[:n])
	f.output = f.output[n:]
	return out
}

func (f *Firmware) Timeout() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timeout
}

func (f *Firmware) SetTimeout(d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = d
	return nil
}

func (f *Firmware) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// InCommandMode reports whether the simulated radio is interpreting AT
// commands.
func (f *Firmware) InCommandMode() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.command
}

// Register returns the live value of k.
func (f *Firmware) Register(k sik.ParameterKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registers[k]
}

// Persisted returns the value of k stored in EEPROM.
func (f *Firmware) Persisted(k sik.ParameterKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eeprom[k]
}

// Commands returns every AT command received so far.
func (f *Firmware) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// Writes returns the number of Write calls received.
func (f *Firmware) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Reboots returns the number of ATZ commands executed.
func (f *Firmware) Reboots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reboots
}

// Closed reports whether Close was called.
func (f *Firmware) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
