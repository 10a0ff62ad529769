package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/protocol"
)

var testInterfaces = []netif.Interface{
	{Name: "eth0", Address: "192.168.1.10", Family: netif.FamilyIPv4, Up: true, Multicast: true},
	{Name: "wlan0", Address: "10.0.0.5", Family: netif.FamilyIPv4, Up: true, Multicast: true},
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testDevice(name, addr string) discovery.Device {
	port := uint16(5353)
	return discovery.Device{
		Name:       name,
		Addresses:  []string{addr},
		Port:       &port,
		Properties: protocol.TXT{"model": protocol.StringValue("SIP-100")},
	}
}

// runCmd executes cmd and any batch it expands to, feeding every resulting
// message back through the model until nothing is left. Ticks are dropped
// so the loop ends.
func runCmd(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil, scanTickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		var next tea.Cmd
		m, next = m.Update(msg)
		queue = append(queue, next)
	}
	return m
}

func sized(m DiscoveryModel) DiscoveryModel {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	return updated.(DiscoveryModel)
}

func TestSetupModel_Flow(t *testing.T) {
	cfg := discovery.DefaultConfig()
	cfg.LocalInterfaceAddress = "10.0.0.5"
	m := NewSetupModel(cfg, testInterfaces)

	// The saved interface is preselected
	ifi, ok := m.SelectedInterface()
	require.True(t, ok)
	assert.Equal(t, "wlan0", ifi.Name)

	updated, _ := m.Update(keyPress("k"))
	m = updated.(SetupModel)
	ifi, _ = m.SelectedInterface()
	assert.Equal(t, "eth0", ifi.Name)

	updated, _ = m.Update(keyPress("enter"))
	m = updated.(SetupModel)
	assert.Equal(t, stepService, m.Step)
	assert.Contains(t, m.View(), "_smart_ip._tcp.local")

	updated, _ = m.Update(keyPress("enter"))
	m = updated.(SetupModel)
	require.True(t, m.Done)

	got := m.Config()
	assert.Equal(t, "192.168.1.10", got.LocalInterfaceAddress)
	assert.Equal(t, discovery.DefaultServiceName, got.ServiceName)
	assert.NoError(t, got.Validate())
}

func TestSetupModel_InvalidService(t *testing.T) {
	m := NewSetupModel(discovery.DefaultConfig(), testInterfaces)
	updated, _ := m.Update(keyPress("enter"))
	m = updated.(SetupModel)

	m.Service.SetValue("bad..name")
	updated, _ = m.Update(keyPress("enter"))
	m = updated.(SetupModel)

	assert.False(t, m.Done)
	require.Error(t, m.Err)
	assert.True(t, discovery.IsInvalidConfigError(m.Err))

	updated, _ = m.Update(keyPress("esc"))
	m = updated.(SetupModel)
	assert.Equal(t, stepInterface, m.Step)
	assert.NoError(t, m.Err)
}

func TestSetupModel_NoInterfaces(t *testing.T) {
	m := NewSetupModel(discovery.DefaultConfig(), nil)
	updated, _ := m.Update(keyPress("enter"))
	m = updated.(SetupModel)

	assert.Equal(t, stepInterface, m.Step)
	assert.Contains(t, m.View(), "No multicast-capable IPv4 interface")

	updated, _ = m.Update(keyPress("q"))
	assert.True(t, updated.(SetupModel).Quit)
}

func TestDiscoveryModel_Scan(t *testing.T) {
	var gotCfg discovery.Config
	search := func(ctx context.Context, cfg discovery.Config, opts ...discovery.Option) ([]discovery.Device, error) {
		gotCfg = cfg
		return []discovery.Device{testDevice("device-1", "192.168.1.50"), testDevice("device-2", "192.168.1.51")}, nil
	}

	cfg := discovery.Config{LocalInterfaceAddress: "192.168.1.10", Timeout: time.Second}
	nick := func(name string) string {
		if name == "device-2" {
			return "Kitchen"
		}
		return ""
	}

	m, cmd := sized(NewDiscoveryModel(cfg, search, nick)).StartScan()
	assert.True(t, m.Scanning)
	assert.Contains(t, m.View(), "SEARCHING FOR DEVICES")

	final := runCmd(t, m, cmd).(DiscoveryModel)
	assert.False(t, final.Scanning)
	require.NoError(t, final.Err)
	assert.Equal(t, discovery.DefaultServiceName, gotCfg.ServiceName, "defaults are applied before searching")

	devices := final.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "device-1", devices[0].Name)

	view := final.View()
	assert.Contains(t, view, "device-1")
	assert.Contains(t, view, "Kitchen")
}

func TestDiscoveryModel_FoundDevicesShownWhileScanning(t *testing.T) {
	m := NewDiscoveryModel(discovery.Config{LocalInterfaceAddress: "192.168.1.10"}, nil, nil)
	m.scanID = 3
	m.Scanning = true

	updated, _ := m.Update(deviceFoundMsg{scan: 3, device: testDevice("device-1", "192.168.1.50")})
	m = updated.(DiscoveryModel)
	updated, _ = m.Update(deviceFoundMsg{scan: 3, device: testDevice("device-1", "192.168.1.60")})
	m = updated.(DiscoveryModel)
	updated, _ = m.Update(deviceFoundMsg{scan: 2, device: testDevice("stale", "192.168.1.70")})
	m = updated.(DiscoveryModel)

	devices := m.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, []string{"192.168.1.60"}, devices[0].Addresses)

	updated, _ = m.Update(scanCompleteMsg{scan: 2})
	m = updated.(DiscoveryModel)
	assert.True(t, m.Scanning, "completion of an older scan is ignored")
}

func TestDiscoveryModel_Error(t *testing.T) {
	search := func(ctx context.Context, cfg discovery.Config, opts ...discovery.Option) ([]discovery.Device, error) {
		return nil, errors.New("boom")
	}

	m, cmd := sized(NewDiscoveryModel(discovery.Config{LocalInterfaceAddress: "192.168.1.10"}, search, nil)).StartScan()
	final := runCmd(t, m, cmd).(DiscoveryModel)

	require.Error(t, final.Err)
	assert.Contains(t, final.View(), "Scan failed: boom")
}

func TestDiscoveryModel_Keys(t *testing.T) {
	m := sized(NewDiscoveryModel(discovery.Config{LocalInterfaceAddress: "192.168.1.10"}, nil, nil))
	updated, _ := m.Update(scanCompleteMsg{devices: []discovery.Device{testDevice("device-1", "192.168.1.50")}})
	m = updated.(DiscoveryModel)

	updated, _ = m.Update(keyPress("enter"))
	m = updated.(DiscoveryModel)
	require.True(t, m.ShowDetails)
	view := m.View()
	assert.Contains(t, view, "http://192.168.1.50:5353")
	assert.Contains(t, view, "SIP-100")

	updated, _ = m.Update(keyPress("q"))
	m = updated.(DiscoveryModel)
	assert.False(t, m.ShowDetails, "q closes the details first")
	assert.False(t, m.Quit)

	updated, _ = m.Update(keyPress("i"))
	m = updated.(DiscoveryModel)
	assert.True(t, m.ChangeInterface)

	updated, _ = m.Update(keyPress("q"))
	assert.True(t, updated.(DiscoveryModel).Quit)
}

func TestDiscoveryModel_NoDevices(t *testing.T) {
	m := NewDiscoveryModel(discovery.Config{LocalInterfaceAddress: "192.168.1.10"}, nil, nil)
	updated, _ := m.Update(scanCompleteMsg{})
	m = updated.(DiscoveryModel)
	assert.Contains(t, m.View(), "No devices answered on 192.168.1.10")
}

func TestAppModel_SetupToDiscovery(t *testing.T) {
	var searched discovery.Config
	opts := Options{
		Config:     discovery.DefaultConfig(),
		Interfaces: testInterfaces,
		Search: func(ctx context.Context, cfg discovery.Config, _ ...discovery.Option) ([]discovery.Device, error) {
			searched = cfg
			return []discovery.Device{testDevice("device-1", "192.168.1.50")}, nil
		},
	}

	var m tea.Model = NewAppModel(opts)
	assert.Equal(t, ScreenSetup, m.(AppModel).CurrentScreen)

	m, _ = m.Update(keyPress("down"))
	m, _ = m.Update(keyPress("enter"))
	m, cmd := m.Update(keyPress("enter"))
	assert.Equal(t, ScreenDiscovery, m.(AppModel).CurrentScreen)

	m = runCmd(t, m, cmd)
	app := m.(AppModel)
	assert.Equal(t, "10.0.0.5", searched.LocalInterfaceAddress)
	assert.Equal(t, "10.0.0.5", app.Config().LocalInterfaceAddress)
	require.Len(t, app.Devices(), 1)

	m, _ = m.Update(keyPress("i"))
	assert.Equal(t, ScreenSetup, m.(AppModel).CurrentScreen)
}

func TestAppModel_SkipsSetupWithKnownInterface(t *testing.T) {
	cfg := discovery.DefaultConfig()
	cfg.LocalInterfaceAddress = "192.168.1.10"
	m := NewAppModel(Options{Config: cfg})
	assert.Equal(t, ScreenDiscovery, m.CurrentScreen)

	msg := m.Init()()
	start, ok := msg.(startScanMsg)
	require.True(t, ok)
	assert.Equal(t, "192.168.1.10", start.cfg.LocalInterfaceAddress)
}
