package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/netif"
	"github.com/muurk/smartip/internal/protocol"
)

// setupStep is the current question on the setup screen
type setupStep int

const (
	stepInterface setupStep = iota
	stepService
)

// pickerKeyMap defines key bindings for the interface picker
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Select, k.Quit}}
}

// serviceKeyMap defines key bindings for the service name input
type serviceKeyMap struct {
	Confirm key.Binding
	Back    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k serviceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Back}
}

// FullHelp returns keybindings for the expanded help view
func (k serviceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Confirm, k.Back}}
}

// SetupModel asks which interface to search on and which service type to
// look for. Done is set once both answers are valid.
type SetupModel struct {
	Interfaces []netif.Interface
	Cursor     int
	Step       setupStep
	Service    textinput.Model
	Err        error
	Done       bool
	Quit       bool

	base discovery.Config

	Width  int
	Height int

	Help        help.Model
	PickerKeys  pickerKeyMap
	ServiceKeys serviceKeyMap
}

// NewSetupModel creates the setup screen. base supplies the service name
// and the preselected interface; ifaces are the choices offered.
func NewSetupModel(base discovery.Config, ifaces []netif.Interface) SetupModel {
	service := textinput.New()
	service.Placeholder = discovery.DefaultServiceName
	service.CharLimit = protocol.MaxNameLength
	service.Width = 40
	service.SetValue(base.ServiceName)

	cursor := 0
	for i, ifi := range ifaces {
		if ifi.Address == base.LocalInterfaceAddress {
			cursor = i
			break
		}
	}

	return SetupModel{
		Interfaces: ifaces,
		Cursor:     cursor,
		Step:       stepInterface,
		Service:    service,
		base:       base,
		Help:       help.New(),
		PickerKeys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Select: key.NewBinding(
				key.WithKeys("enter", " "),
				key.WithHelp("enter", "select"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		ServiceKeys: serviceKeyMap{
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "start scan"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
		},
	}
}

// Init implements tea.Model
func (m SetupModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.Step == stepService {
			return m.updateService(msg)
		}
		return m.updatePicker(msg)
	}

	if m.Step == stepService {
		var cmd tea.Cmd
		m.Service, cmd = m.Service.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m SetupModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.PickerKeys.Quit):
		m.Quit = true
		return m, nil

	case key.Matches(msg, m.PickerKeys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.PickerKeys.Down):
		if m.Cursor < len(m.Interfaces)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.PickerKeys.Select):
		if len(m.Interfaces) == 0 {
			return m, nil
		}
		m.Step = stepService
		m.Err = nil
		return m, m.Service.Focus()
	}

	return m, nil
}

func (m SetupModel) updateService(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ServiceKeys.Back):
		m.Step = stepInterface
		m.Service.Blur()
		m.Err = nil
		return m, nil

	case key.Matches(msg, m.ServiceKeys.Confirm):
		cfg := m.Config()
		if err := cfg.Validate(); err != nil {
			m.Err = err
			return m, nil
		}
		m.Service.Blur()
		m.Done = true
		return m, nil
	}

	var cmd tea.Cmd
	m.Service, cmd = m.Service.Update(msg)
	return m, cmd
}

// SelectedInterface returns the highlighted interface, if any
func (m SetupModel) SelectedInterface() (netif.Interface, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Interfaces) {
		return netif.Interface{}, false
	}
	return m.Interfaces[m.Cursor], true
}

// Config returns the search configuration built from the answers so far
func (m SetupModel) Config() discovery.Config {
	cfg := m.base
	if ifi, ok := m.SelectedInterface(); ok {
		cfg.LocalInterfaceAddress = ifi.Address
	}
	cfg.ServiceName = strings.TrimSpace(m.Service.Value())
	return cfg.WithDefaults()
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	if m.Step == stepInterface {
		b.WriteString(RenderTitle("Step 1 of 2 · Choose a network interface"))
		b.WriteString("\n")
		if len(m.Interfaces) == 0 {
			b.WriteString(RenderError("No multicast-capable IPv4 interface is up"))
			b.WriteString("\n")
		}
		for i, ifi := range m.Interfaces {
			b.WriteString(RenderMenuItem(fmt.Sprintf("%-12s %s", ifi.Name, ifi.Address), i == m.Cursor))
			b.WriteString("\n")
		}
		return RenderApplicationContainer(b.String(), m.Help.View(m.PickerKeys), m.Width, m.Height)
	}

	ifi, _ := m.SelectedInterface()
	b.WriteString(RenderTitle("Step 2 of 2 · Service type"))
	b.WriteString("\n")
	b.WriteString(RenderField("Interface", fmt.Sprintf("%s (%s)", ifi.Name, ifi.Address)))
	b.WriteString("\n\n")
	b.WriteString("  Service: ")
	b.WriteString(m.Service.View())
	b.WriteString("\n\n")
	b.WriteString(RenderSubtitle("  Queries " + protocol.QueryName(m.Service.Value()) + " on " + m.base.WithDefaults().MulticastAddress))
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err.Error()))
		b.WriteString("\n")
	}

	return RenderApplicationContainer(b.String(), m.Help.View(m.ServiceKeys), m.Width, m.Height)
}
