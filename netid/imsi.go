package netid

import (
	"encoding/json"
	"fmt"
)

// IMSI is an international mobile subscriber identity: a valid PLMNID
// followed by a subscriber number, 15 digits in total at most.
type IMSI struct {
	value string
}

// ParseIMSI validates and wraps an IMSI string
func ParseIMSI(s string) (IMSI, error) {
	if len(s) < 6 || len(s) > 15 {
		return IMSI{}, fmt.Errorf("parse imsi %q: must be 6 to 15 digits", s)
	}
	if !isDigits(s) {
		return IMSI{}, fmt.Errorf("parse imsi %q: non-digit character", s)
	}
	return IMSI{value: s}, nil
}

// PLMNID returns the leading network identifier, assuming a 3-digit MNC
func (i IMSI) PLMNID() PLMNID {
	plmnid, _ := ParsePLMNID(i.value[:6])
	return plmnid
}

// String returns the IMSI digits
func (i IMSI) String() string {
	return i.value
}

// IsZero reports whether the IMSI is unset
func (i IMSI) IsZero() bool {
	return i.value == ""
}

// MarshalJSON renders the IMSI digits
func (i IMSI) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.value)
}

// UnmarshalJSON parses the IMSI digits
func (i *IMSI) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseIMSI(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
