package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string. Calibration
// values arrive either as strings or as bare JSON numbers depending on the
// client; numbers keep their literal text so no precision is lost.
// Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal json.Number
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal.String()
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleString is a string that also accepts JSON numbers, booleans and
// null on decode. It always encodes as a JSON string.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s FlexibleString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// String returns the underlying value.
func (s FlexibleString) String() string {
	return string(s)
}
