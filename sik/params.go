package sik

import (
	"fmt"
	"strconv"
	"strings"
)

// ParameterKey identifies a SiK EEPROM parameter. Its numeric value is the
// register index used in ATSn commands.
type ParameterKey int

const (
	Format ParameterKey = iota
	SerialSpeed
	AirSpeed
	NetID
	TxPower
	ECC
	MAVLink
	OpResend
	MinFreq
	MaxFreq
	NumChannels
	DutyCycle
	LBTRSSI
	Manchester
	RTSCTS
	MaxWindow
)

var parameterNames = [...]string{
	Format:      "FORMAT",
	SerialSpeed: "SERIAL_SPEED",
	AirSpeed:    "AIR_SPEED",
	NetID:       "NETID",
	TxPower:     "TXPOWER",
	ECC:         "ECC",
	MAVLink:     "MAVLINK",
	OpResend:    "OP_RESEND",
	MinFreq:     "MIN_FREQ",
	MaxFreq:     "MAX_FREQ",
	NumChannels: "NUM_CHANNELS",
	DutyCycle:   "DUTY_CYCLE",
	LBTRSSI:     "LBT_RSSI",
	Manchester:  "MANCHESTER",
	RTSCTS:      "RTSCTS",
	MaxWindow:   "MAX_WINDOW",
}

var parameterIndex = func() map[string]ParameterKey {
	m := make(map[string]ParameterKey, len(parameterNames))
	for k, name := range parameterNames {
		m[name] = ParameterKey(k)
	}
	return m
}()

// String returns the firmware name of the parameter, e.g. "NETID".
func (k ParameterKey) String() string {
	if k < 0 || int(k) >= len(parameterNames) {
		return fmt.Sprintf("ParameterKey(%d)", int(k))
	}
	return parameterNames[k]
}

// Index returns the ATSn register number of the parameter.
func (k ParameterKey) Index() int {
	return int(k)
}

// ParameterKeys returns every known key in register order.
func ParameterKeys() []ParameterKey {
	keys := make([]ParameterKey, len(parameterNames))
	for i := range keys {
		keys[i] = ParameterKey(i)
	}
	return keys
}

// LookupParameter resolves a parameter name, ignoring case.
func LookupParameter(name string) (ParameterKey, error) {
	k, ok := parameterIndex[strings.ToUpper(name)]
	if !ok {
		return 0, &UnknownParameterError{Key: name}
	}
	return k, nil
}

// Parameter is one entry of the ATI5 parameter dump.
type Parameter struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Parameters holds the ATI5 dump in the order the firmware reported it.
type Parameters []Parameter

// Get returns the value of the named parameter, ignoring case.
func (p Parameters) Get(name string) (int, bool) {
	for _, param := range p {
		if strings.EqualFold(param.Name, name) {
			return param.Value, true
		}
	}
	return 0, false
}

// Names returns the parameter names in firmware order.
func (p Parameters) Names() []string {
	names := make([]string, len(p))
	for i, param := range p {
		names[i] = param.Name
	}
	return names
}

// Setting is a parameter assignment to be applied with Radio.Apply.
type Setting struct {
	Key   string
	Value int
}

// ParseSetting parses "KEY=VALUE", e.g. "netid=30".
func ParseSetting(s string) (Setting, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Setting{}, fmt.Errorf("setting %q: expected KEY=VALUE", s)
	}
	key = strings.TrimSpace(key)
	if _, err := LookupParameter(key); err != nil {
		return Setting{}, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Setting{}, fmt.Errorf("setting %q: %w", s, err)
	}
	return Setting{Key: key, Value: v}, nil
}
