package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ModeVal is the controller's dual-representation mode value. Depending on
// which command produced it, the firmware reports it either as an integer
// or as a hex string (e.g. RGB+W values from dimmer channels). It is a
// tagged union rather than an `any` so callers never have to type-inspect.
type ModeVal struct {
	hex   string
	num   int
	isHex bool
}

// ModeValInt builds an integer-tagged mode value.
func ModeValInt(v int) ModeVal {
	return ModeVal{num: v}
}

// ModeValHex builds a hex-string-tagged mode value.
func ModeValHex(s string) ModeVal {
	return ModeVal{hex: s, isHex: true}
}

// IsHex reports which representation the value carries.
func (m ModeVal) IsHex() bool {
	return m.isHex
}

// Int returns the numeric value. Hex-tagged values are converted; failure
// to parse reports ok=false.
func (m ModeVal) Int() (int, bool) {
	if !m.isHex {
		return m.num, true
	}
	v, err := strconv.ParseInt(m.hex, 16, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// Hex returns the hex-string value, converting integer-tagged values.
func (m ModeVal) Hex() string {
	if m.isHex {
		return m.hex
	}
	return strconv.FormatInt(int64(m.num), 16)
}

func (m ModeVal) String() string {
	if m.isHex {
		return m.hex
	}
	return strconv.Itoa(m.num)
}

// MarshalJSON emits the representation the value was tagged with, so a
// round-tripped payload keeps the shape the firmware sent.
func (m ModeVal) MarshalJSON() ([]byte, error) {
	if m.isHex {
		return json.Marshal(m.hex)
	}
	return json.Marshal(m.num)
}

// UnmarshalJSON accepts both wire shapes.
func (m *ModeVal) UnmarshalJSON(data []byte) error {
	var num int
	if err := json.Unmarshal(data, &num); err == nil {
		*m = ModeValInt(num)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*m = ModeValHex(str)
		return nil
	}
	return fmt.Errorf("mode_val is neither integer nor string: %s", data)
}
