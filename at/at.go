package at

import "fmt"

const (
	// Terminal Control
	CR   = "\r"
	CRLF = "\r\n"

	// EscapeSequence switches a SiK radio from transparent mode into command
	// mode. It is only recognised after a period of silence on the line.
	EscapeSequence = "+++"

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"

	// Commands
	CmdResume         = "ATO"  // leave command mode
	CmdRadioVersion   = "ATI"  // firmware banner
	CmdBoardType      = "ATI2" // board ID
	CmdBoardFrequency = "ATI3" // board frequency band
	CmdBoardVersion   = "ATI4" // bootloader version
	CmdParameters     = "ATI5" // all EEPROM parameters
	CmdTimingReport   = "ATI6" // TDM timing report
	CmdSignalReport   = "ATI7" // RSSI report
	CmdWrite          = "AT&W" // persist parameters to EEPROM
	CmdReboot         = "ATZ"
)

// SetRegister builds the command writing value into register idx.
func SetRegister(idx, value int) string {
	return fmt.Sprintf("ATS%d=%d", idx, value)
}

// GetRegister builds the command querying register idx.
func GetRegister(idx int) string {
	return fmt.Sprintf("ATS%d?", idx)
}

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR
	TypeData                      // Intermediate command output (S3:NETID=25)
)
