// Package netid provides the network identifier value types accepted by
// service parameter manifests: Ethernet addresses, SSIDs, PLMN identifiers
// and IMSIs. All types are immutable once parsed and render a canonical
// textual form in JSON.
package netid

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// EtherAddress is a 48-bit Ethernet MAC address in canonical
// colon-separated uppercase form.
type EtherAddress struct {
	addr net.HardwareAddr
}

// ParseEtherAddress parses a textual MAC address. Colon, dash and dot
// separated forms are accepted; only 48-bit addresses are valid.
func ParseEtherAddress(s string) (EtherAddress, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return EtherAddress{}, fmt.Errorf("parse ether address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return EtherAddress{}, fmt.Errorf("parse ether address %q: not a 48-bit address", s)
	}
	return EtherAddress{addr: hw}, nil
}

// String returns the canonical colon-separated uppercase form
func (e EtherAddress) String() string {
	return strings.ToUpper(e.addr.String())
}

// IsZero reports whether the address is unset
func (e EtherAddress) IsZero() bool {
	return len(e.addr) == 0
}

// MarshalJSON renders the canonical textual form
func (e EtherAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON parses the textual form
func (e *EtherAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEtherAddress(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
