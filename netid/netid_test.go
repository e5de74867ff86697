package netid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEtherAddress(t *testing.T) {
	addr, err := ParseEtherAddress("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", addr.String())
	assert.False(t, addr.IsZero())

	_, err = ParseEtherAddress("not-a-mac")
	assert.Error(t, err)

	// EUI-64 addresses are not valid here
	_, err = ParseEtherAddress("00:11:22:33:44:55:66:77")
	assert.Error(t, err)
}

func TestEtherAddressJSON(t *testing.T) {
	addr, err := ParseEtherAddress("00:0d:b9:2f:56:64")
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"00:0D:B9:2F:56:64"`, string(data))

	var decoded EtherAddress
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr.String(), decoded.String())

	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &decoded))
}

func TestParseSSID(t *testing.T) {
	ssid, err := ParseSSID("guest-net")
	require.NoError(t, err)
	assert.Equal(t, "guest-net", ssid.String())

	_, err = ParseSSID("")
	assert.Error(t, err)

	_, err = ParseSSID("0123456789012345678901234567890123")
	assert.Error(t, err)
}

func TestParsePLMNID(t *testing.T) {
	plmnid, err := ParsePLMNID("00101")
	require.NoError(t, err)
	assert.Equal(t, "001", plmnid.MCC())
	assert.Equal(t, "01", plmnid.MNC())
	assert.Equal(t, "00101", plmnid.String())

	plmnid, err = ParsePLMNID("222088")
	require.NoError(t, err)
	assert.Equal(t, "088", plmnid.MNC())

	for _, bad := range []string{"", "12", "1234567", "22x08"} {
		_, err := ParsePLMNID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseIMSI(t *testing.T) {
	imsi, err := ParseIMSI("222088001000001")
	require.NoError(t, err)
	assert.Equal(t, "222088001000001", imsi.String())
	assert.Equal(t, "222088", imsi.PLMNID().String())

	for _, bad := range []string{"", "12345", "1234567890123456", "22208800100000x"} {
		_, err := ParseIMSI(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestIMSIJSONRoundTrip(t *testing.T) {
	imsi, err := ParseIMSI("001011234567890")
	require.NoError(t, err)

	data, err := json.Marshal(imsi)
	require.NoError(t, err)

	var decoded IMSI
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, imsi, decoded)
}
