package netid

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// MaxSSIDLength is the 802.11 limit on SSID length in bytes
const MaxSSIDLength = 32

// SSID is an 802.11 service set identifier
type SSID struct {
	value string
}

// ParseSSID validates and wraps an SSID string. The empty SSID is
// rejected; the value must be valid UTF-8 of at most 32 bytes.
func ParseSSID(s string) (SSID, error) {
	if s == "" {
		return SSID{}, fmt.Errorf("parse ssid: empty value")
	}
	if len(s) > MaxSSIDLength {
		return SSID{}, fmt.Errorf("parse ssid %q: longer than %d bytes", s, MaxSSIDLength)
	}
	if !utf8.ValidString(s) {
		return SSID{}, fmt.Errorf("parse ssid: invalid UTF-8")
	}
	return SSID{value: s}, nil
}

// String returns the SSID text
func (s SSID) String() string {
	return s.value
}

// IsZero reports whether the SSID is unset
func (s SSID) IsZero() bool {
	return s.value == ""
}

// MarshalJSON renders the SSID text
func (s SSID) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.value)
}

// UnmarshalJSON parses the SSID text
func (s *SSID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSSID(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
