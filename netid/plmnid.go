package netid

import (
	"encoding/json"
	"fmt"
)

// PLMNID is a public land mobile network identifier: a 3-digit mobile
// country code followed by a 2 or 3 digit mobile network code.
type PLMNID struct {
	mcc string
	mnc string
}

// ParsePLMNID parses the concatenated MCC+MNC form, e.g. "00101"
func ParsePLMNID(s string) (PLMNID, error) {
	if len(s) < 5 || len(s) > 6 {
		return PLMNID{}, fmt.Errorf("parse plmnid %q: must be 5 or 6 digits", s)
	}
	if !isDigits(s) {
		return PLMNID{}, fmt.Errorf("parse plmnid %q: non-digit character", s)
	}
	return PLMNID{mcc: s[:3], mnc: s[3:]}, nil
}

// MCC returns the mobile country code
func (p PLMNID) MCC() string {
	return p.mcc
}

// MNC returns the mobile network code
func (p PLMNID) MNC() string {
	return p.mnc
}

// String returns the concatenated MCC+MNC form
func (p PLMNID) String() string {
	return p.mcc + p.mnc
}

// IsZero reports whether the PLMNID is unset
func (p PLMNID) IsZero() bool {
	return p.mcc == ""
}

// MarshalJSON renders the concatenated form
func (p PLMNID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses the concatenated form
func (p *PLMNID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePLMNID(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
