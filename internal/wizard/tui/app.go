package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/ui"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenSetup     Screen = "setup"
	ScreenDiscovery Screen = "discovery"
)

// Options configure the wizard
type Options struct {
	// Config seeds the answers: interface, service name, timeout
	Config discovery.Config

	// Interfaces offered in the picker. Empty skips straight to scanning
	// when Config already names an interface.
	Interfaces []netif.Interface

	// Search runs one search; nil uses discovery.Search
	Search SearchFunc

	// Nicknames labels devices the user has named; may be nil
	Nicknames ui.Nicknames
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	SetupModel     SetupModel
	DiscoveryModel DiscoveryModel

	opts Options

	Width  int
	Height int
}

// NewAppModel creates the wizard. It starts on the setup screen unless the
// configuration already names an interface and there is nothing to pick.
func NewAppModel(opts Options) AppModel {
	m := AppModel{
		CurrentScreen:  ScreenSetup,
		SetupModel:     NewSetupModel(opts.Config, opts.Interfaces),
		DiscoveryModel: NewDiscoveryModel(opts.Config, opts.Search, opts.Nicknames),
		opts:           opts,
	}
	if len(opts.Interfaces) == 0 && opts.Config.LocalInterfaceAddress != "" {
		m.CurrentScreen = ScreenDiscovery
	}
	return m
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	if m.CurrentScreen == ScreenDiscovery {
		return func() tea.Msg { return startScanMsg{cfg: m.opts.Config} }
	}
	return m.SetupModel.Init()
}

// startScanMsg switches to the discovery screen and starts a search
type startScanMsg struct {
	cfg discovery.Config
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		updated, _ := m.SetupModel.Update(msg)
		m.SetupModel = updated.(SetupModel)
		updated, _ = m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.DiscoveryModel.StopScan()
			return m, tea.Quit
		}

	case startScanMsg:
		return m.startScan(msg.cfg)
	}

	return m.updateCurrentScreen(msg)
}

// updateCurrentScreen routes updates to the currently active screen
func (m AppModel) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.CurrentScreen {
	case ScreenSetup:
		updated, cmd := m.SetupModel.Update(msg)
		m.SetupModel = updated.(SetupModel)

		if m.SetupModel.Quit {
			return m, tea.Quit
		}
		if m.SetupModel.Done {
			m.SetupModel.Done = false
			return m.startScan(m.SetupModel.Config())
		}
		return m, cmd

	case ScreenDiscovery:
		updated, cmd := m.DiscoveryModel.Update(msg)
		m.DiscoveryModel = updated.(DiscoveryModel)

		if m.DiscoveryModel.Quit {
			return m, tea.Quit
		}
		if m.DiscoveryModel.ChangeInterface {
			m.DiscoveryModel.ChangeInterface = false
			m.CurrentScreen = ScreenSetup
			m.SetupModel.Step = stepInterface
			return m, nil
		}
		return m, cmd
	}

	return m, nil
}

func (m AppModel) startScan(cfg discovery.Config) (tea.Model, tea.Cmd) {
	m.DiscoveryModel.StopScan()

	dm := NewDiscoveryModel(cfg, m.opts.Search, m.opts.Nicknames)
	dm.Width, dm.Height = m.Width, m.Height
	if m.Width > 0 {
		updated, _ := dm.Update(tea.WindowSizeMsg{Width: m.Width, Height: m.Height})
		dm = updated.(DiscoveryModel)
	}

	dm, cmd := dm.StartScan()
	m.DiscoveryModel = dm
	m.CurrentScreen = ScreenDiscovery
	return m, cmd
}

// View renders the current screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenSetup:
		return m.SetupModel.View()
	case ScreenDiscovery:
		return m.DiscoveryModel.View()
	default:
		return "Unknown screen"
	}
}

// Config returns the configuration of the last scan
func (m AppModel) Config() discovery.Config {
	return m.DiscoveryModel.Config
}

// Devices returns the devices listed when the wizard exited
func (m AppModel) Devices() []discovery.Device {
	return m.DiscoveryModel.Devices()
}

// Run starts the wizard on the alternate screen and returns its final state
func Run(opts Options) (AppModel, error) {
	p := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return AppModel{}, err
	}
	m := final.(AppModel)
	m.DiscoveryModel.StopScan()
	return m, nil
}
