package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func txtRData(entries ...string) []byte {
	var b []byte
	for _, e := range entries {
		b = append(b, byte(len(e)))
		b = append(b, e...)
	}
	return b
}

func decodeSingle(t *testing.T, typ uint16, rdata []byte) (Record, error) {
	t.Helper()
	buf := append(wireHeader(0, 1), wireRecord(mustEncodeName(t, "device-1._smart_ip._tcp.local"), typ, rdata)...)
	rec, _, err := DecodeRecord(buf, HeaderSize)
	return rec, err
}

func TestDecodeTXT(t *testing.T) {
	tests := []struct {
		name     string
		rdata    []byte
		expected TXT
	}{
		{
			name:     "key value pairs",
			rdata:    txtRData("path=/", "srcvers=1D90645"),
			expected: TXT{"path": StringValue("/"), "srcvers": StringValue("1D90645")},
		},
		{
			name:     "bare key is boolean true",
			rdata:    txtRData("secure"),
			expected: TXT{"secure": FlagValue()},
		},
		{
			name:     "split on first equals only",
			rdata:    txtRData("url=http://x/?a=b"),
			expected: TXT{"url": StringValue("http://x/?a=b")},
		},
		{
			name:     "empty value is a string",
			rdata:    txtRData("name="),
			expected: TXT{"name": StringValue("")},
		},
		{
			name:     "empty strings skipped",
			rdata:    txtRData("", "a=1", ""),
			expected: TXT{"a": StringValue("1")},
		},
		{
			name:     "first occurrence wins",
			rdata:    txtRData("a=1", "a=2", "a"),
			expected: TXT{"a": StringValue("1")},
		},
		{
			name:     "zero length rdata",
			rdata:    []byte{},
			expected: TXT{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeSingle(t, TypeTXT, tt.rdata)
			require.NoError(t, err)

			txt, ok := rec.TXT()
			require.True(t, ok)
			assert.Equal(t, tt.expected, txt)
		})
	}
}

func TestDecodeTXT_Overrun(t *testing.T) {
	_, err := decodeSingle(t, TypeTXT, []byte{0x05, 'a', 'b'})
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
}

func TestDecodeA(t *testing.T) {
	tests := []struct {
		name     string
		rdata    []byte
		expected string
	}{
		{"four octets", []byte{192, 168, 1, 50}, "192.168.1.50"},
		{"two octets", []byte{10, 1}, "10.1"},
		{"no octets", []byte{}, ""},
		{"five octets", []byte{1, 2, 3, 4, 5}, "1.2.3.4.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := decodeSingle(t, TypeA, tt.rdata)
			require.NoError(t, err)

			addr, ok := rec.A()
			require.True(t, ok)
			assert.Equal(t, tt.expected, addr)
		})
	}
}

func TestDecodeSRV(t *testing.T) {
	rdata := []byte{0x00, 0x01, 0x00, 0x02, 0x14, 0xE9}
	rdata = append(rdata, mustEncodeName(t, "host.local")...)

	rec, err := decodeSingle(t, TypeSRV, rdata)
	require.NoError(t, err)

	srv, ok := rec.SRV()
	require.True(t, ok)
	assert.Equal(t, SRVData{Priority: 1, Weight: 2, Port: 5353, Target: "host.local"}, srv)

	_, isPTR := rec.PTR()
	assert.False(t, isPTR)
}

func TestDecodeSRV_TooShort(t *testing.T) {
	_, err := decodeSingle(t, TypeSRV, []byte{0x00, 0x01, 0x00})
	require.Error(t, err)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   RData
	}{
		{"ptr", Record{Type: TypePTR, Data: PTRData{Target: "x"}}, PTRData{Target: "x"}},
		{"a", Record{Type: TypeA, Data: AData{Address: "1.2.3.4"}}, AData{Address: "1.2.3.4"}},
		{"undecoded", Record{Type: 99}, OpaqueData{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.record))
		})
	}
}

func TestTXTValue_Marshal(t *testing.T) {
	props := TXT{"secure": FlagValue(), "model": StringValue("SIP-100")}

	data, err := json.Marshal(props)
	require.NoError(t, err)
	assert.JSONEq(t, `{"secure": true, "model": "SIP-100"}`, string(data))

	out, err := yaml.Marshal(props)
	require.NoError(t, err)

	var back map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, true, back["secure"])
	assert.Equal(t, "SIP-100", back["model"])
}

func TestTXT_Clone(t *testing.T) {
	var nilTXT TXT
	assert.NotNil(t, nilTXT.Clone())

	orig := TXT{"a": StringValue("1")}
	c := orig.Clone()
	c["b"] = FlagValue()
	assert.Len(t, orig, 1)
}
