package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/sikradio/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Echo and single line response",
			input:    "ATI\r\nSiK 2.0 on HM-TRP\r\n",
			expected: []string{"ATI", "SiK 2.0 on HM-TRP"},
		},
		{
			name:     "Parameter dump",
			input:    "ATI5\r\nS0:FORMAT=25\r\nS1:SERIAL_SPEED=57\r\nS3:NETID=25\r\n",
			expected: []string{"ATI5", "S0:FORMAT=25", "S1:SERIAL_SPEED=57", "S3:NETID=25"},
		},
		{
			name:     "Register set",
			input:    "ATS3=30\r\nOK\r\n",
			expected: []string{"ATS3=30", "OK"},
		},
		{
			name:     "Bare LF line endings",
			input:    "ATI2\n130\n",
			expected: []string{"ATI2", "130"},
		},
		{
			name:     "Bare CR line endings",
			input:    "ATO\rOK\r\n",
			expected: []string{"ATO", "OK"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nOK\r\n",
			expected: []string{"", "", "OK"},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete line at EOF",
			input:    "ATS3?\r\n25",
			expected: []string{"ATS3?", "25"},
		},
		{
			name:     "Trailing CR at EOF",
			input:    "OK\r",
			expected: []string{"OK"},
		},
		{
			name:     "Command without terminator at EOF",
			input:    "+++",
			expected: []string{"+++"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestSplitterWaitsForLF(t *testing.T) {
	advance, token, err := at.Splitter([]byte("OK\r"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advance != 0 || token != nil {
		t.Errorf("expected splitter to request more data, got advance=%d token=%q", advance, token)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "OK with line ending", input: "OK\r\n", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "Register value", input: "25", expected: at.TypeData},
		{name: "Parameter line", input: "S3:NETID=25", expected: at.TypeData},
		{name: "Banner", input: "SiK 2.0 on HM-TRP", expected: at.TypeData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestParseRegisters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []at.Register
	}{
		{
			name:  "Bare names",
			input: ":NETID=25\r\n:TXPOWER=20\r\n",
			expected: []at.Register{
				{Name: "NETID", Value: 25},
				{Name: "TXPOWER", Value: 20},
			},
		},
		{
			name:  "Firmware register prefixes",
			input: "S0:FORMAT=25\r\nS1:SERIAL_SPEED=57\r\nS2:AIR_SPEED=64\r\n",
			expected: []at.Register{
				{Name: "FORMAT", Value: 25},
				{Name: "SERIAL_SPEED", Value: 57},
				{Name: "AIR_SPEED", Value: 64},
			},
		},
		{
			name:  "Non-matching lines skipped",
			input: "garbage\r\nS3:NETID=25\r\nOK\r\nS4:TXPOWER\r\n",
			expected: []at.Register{
				{Name: "NETID", Value: 25},
			},
		},
		{
			name:  "Non-integer value skipped",
			input: "S3:NETID=abc\r\nS4:TXPOWER=20\r\n",
			expected: []at.Register{
				{Name: "TXPOWER", Value: 20},
			},
		},
		{
			name:  "Negative value and padding",
			input: "S12:LBT_RSSI= -1 \r\n",
			expected: []at.Register{
				{Name: "LBT_RSSI", Value: -1},
			},
		},
		{
			name:     "Empty response",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regs := at.ParseRegisters(tt.input)
			if len(regs) != len(tt.expected) {
				t.Fatalf("expected %d registers, got %d: %v", len(tt.expected), len(regs), regs)
			}
			for i, want := range tt.expected {
				if regs[i] != want {
					t.Errorf("register %d: expected %+v, got %+v", i, want, regs[i])
				}
			}
		})
	}
}

func TestRegisterCommands(t *testing.T) {
	if got := at.SetRegister(3, 30); got != "ATS3=30" {
		t.Errorf("SetRegister: got %q", got)
	}
	if got := at.SetRegister(12, -1); got != "ATS12=-1" {
		t.Errorf("SetRegister negative: got %q", got)
	}
	if got := at.GetRegister(15); got != "ATS15?" {
		t.Errorf("GetRegister: got %q", got)
	}
}
