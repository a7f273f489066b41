package at

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// Splitter is used for tokenizing SiK command mode responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// SiK firmware terminates lines with CRLF, but responses assembled from
// partial reads can carry a bare LF or CR, so any of the three ends a line.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, CRLF); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[0:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + len(CRLF), data[0:i], nil
			}
			return i + 1, data[0:i], nil
		}
		// A trailing CR may be the first half of a CRLF still in flight.
		if atEOF {
			return i + 1, data[0:i], nil
		}
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of the radio output
func Classify(line string) ResponseType {
	switch strings.TrimSpace(line) {
	case OK, ERROR:
		return TypeFinal
	default:
		return TypeData
	}
}

// Register is a single name/value pair reported by ATI5.
type Register struct {
	Name  string
	Value int
}

// ParseRegisters extracts every ":NAME=VALUE" line of an ATI5 response in
// the order the firmware reported them. The register prefix before the
// colon (e.g. "S3") is ignored. Lines that do not match, or whose value is
// not an integer, are skipped.
func ParseRegisters(resp string) []Register {
	var regs []Register

	scanner := bufio.NewScanner(strings.NewReader(resp))
	scanner.Split(Splitter)
	for scanner.Scan() {
		line := scanner.Text()

		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name, value, ok := strings.Cut(line[colon+1:], "=")
		if !ok {
			continue
		}

		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			continue
		}
		regs = append(regs, Register{Name: name, Value: v})
	}

	return regs
}
