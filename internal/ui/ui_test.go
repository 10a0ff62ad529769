package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/protocol"
)

func sampleDevices() []discovery.Device {
	port := uint16(5353)
	return []discovery.Device{
		{
			Name:      "device-1",
			Addresses: []string{"192.168.1.50"},
			Port:      &port,
			Properties: protocol.TXT{
				"model":  protocol.StringValue("SIP-100"),
				"secure": protocol.FlagValue(),
			},
		},
		{
			Name:       "device-2",
			Addresses:  []string{},
			Properties: protocol.TXT{},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "detailed", want: FormatDetailed},
		{in: "compact", want: FormatCompact},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, FormatJSON.Structured())
	assert.False(t, FormatCompact.Structured())
}

func TestWriteDevices_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDevices(&buf, sampleDevices(), FormatJSON, nil, 80))

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "device-1", got[0]["name"])
	assert.Equal(t, float64(5353), got[0]["port"])
	assert.Equal(t, true, got[0]["properties"].(map[string]interface{})["secure"])
	_, hasPort := got[1]["port"]
	assert.False(t, hasPort, "missing port is omitted, not zero")
}

func TestWriteDevices_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDevices(&buf, nil, FormatJSON, nil, 80))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteDevices_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDevices(&buf, sampleDevices(), FormatYAML, nil, 80))

	var got []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "device-1", got[0]["name"])
	assert.Equal(t, "SIP-100", got[0]["properties"].(map[string]interface{})["model"])
}

func TestWriteDevices_Human(t *testing.T) {
	nick := Nicknames(func(name string) string {
		if name == "device-1" {
			return "Kitchen"
		}
		return ""
	})

	var detailed bytes.Buffer
	require.NoError(t, WriteDevices(&detailed, sampleDevices(), FormatDetailed, nick, 80))
	out := detailed.String()
	for _, want := range []string{"device-1", "Kitchen", "192.168.1.50", "http://192.168.1.50:5353", "model = SIP-100", "secure", "device-2"} {
		assert.Contains(t, out, want)
	}

	var compact bytes.Buffer
	require.NoError(t, WriteDevices(&compact, sampleDevices(), FormatCompact, nick, 80))
	assert.Contains(t, compact.String(), "NAME")
	assert.Contains(t, compact.String(), "device-2")
	assert.Contains(t, compact.String(), "Kitchen")
}

func TestRenderDeviceList_Empty(t *testing.T) {
	assert.Contains(t, RenderDeviceList(nil, nil, 80), "No devices found")
}

func TestRenderInterfaceTable(t *testing.T) {
	out := RenderInterfaceTable([]netif.Interface{
		{Name: "eth0", Address: "192.168.1.10", Family: netif.FamilyIPv4, Up: true, Multicast: true},
	})
	assert.Contains(t, out, "eth0")
	assert.Contains(t, out, "192.168.1.10")
	assert.Contains(t, out, "MULTICAST")
}

func TestHeaderRender(t *testing.T) {
	out := NewHeader("Device Scan", "smartip scan",
		Param{Key: "Interface", Value: "192.168.1.10"},
		Param{Key: "Service", Value: "_smart_ip._tcp"},
	).SetWidth(80).Render()

	assert.Contains(t, out, "DEVICE SCAN")
	assert.Contains(t, out, "smartip scan")
	assert.Less(t, strings.Index(out, "Interface"), strings.Index(out, "Service"), "params keep their order")
}

func TestResultRender(t *testing.T) {
	ok := NewSuccessResult("Scan complete", Param{Key: "Devices", Value: "2"}).SetWidth(80).Render()
	assert.Contains(t, ok, "SUCCESS")
	assert.Contains(t, ok, "Devices")

	fail := NewFailureResult("Scan failed", errors.New("bind: address in use"), []string{"Try another interface"}).SetWidth(80).Render()
	assert.Contains(t, fail, "FAILED")
	assert.Contains(t, fail, "address in use")
	assert.Contains(t, fail, "Troubleshooting")

	warn := NewWarningResult("No devices").AddDetail("Timeout", "5s").SetWidth(80).Render()
	assert.Contains(t, warn, "WARNING")
	assert.Contains(t, warn, "Timeout")
}

func TestHintLines(t *testing.T) {
	hint := "Could not join.\nTroubleshooting:\n  • First tip\n  • Second tip"
	assert.Equal(t, []string{"First tip", "Second tip"}, HintLines(hint))
	assert.Equal(t, []string{"Just text."}, HintLines("Just text."))
	assert.Empty(t, HintLines(""))
}

func TestScanModel(t *testing.T) {
	m := NewScanModel("Searching", time.Second)
	base := time.Unix(1000, 0)
	m.start = base
	m.now = func() time.Time { return base.Add(250 * time.Millisecond) }

	assert.InDelta(t, 0.25, m.Percent(), 0.001)

	devices := sampleDevices()
	updated, _ := m.Update(ScanFoundMsg(devices[0]))
	m = updated.(ScanModel)
	updated, _ = m.Update(ScanFoundMsg(devices[0]))
	m = updated.(ScanModel)
	updated, _ = m.Update(ScanFoundMsg(devices[1]))
	m = updated.(ScanModel)

	require.Len(t, m.Devices(), 2)
	view := m.View()
	assert.Contains(t, view, "Found 2 devices")
	assert.Contains(t, view, "device-1")

	updated, cmd := m.Update(ScanDoneMsg(devices[:1]))
	m = updated.(ScanModel)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Done())
	assert.Equal(t, 1.0, m.Percent())
	assert.Contains(t, m.View(), "Scan complete: 1 device")
}

func TestScanModel_Quit(t *testing.T) {
	m := NewScanModel("Searching", time.Second)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(ScanModel)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.Aborted())
	assert.Contains(t, m.View(), "stopped early")
}

func TestWriteInterfaces(t *testing.T) {
	ifaces := []netif.Interface{
		{Name: "eth0", Index: 2, Address: "192.168.1.10", Family: netif.FamilyIPv4, Up: true, Multicast: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteInterfaces(&buf, ifaces, FormatJSON))
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "192.168.1.10", got[0]["address"])

	buf.Reset()
	require.NoError(t, WriteInterfaces(&buf, ifaces, FormatCompact))
	assert.Contains(t, buf.String(), "eth0")
}
