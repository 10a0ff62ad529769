package tui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/ui"
)

// SearchFunc runs one search; discovery.Search in production
type SearchFunc func(ctx context.Context, cfg discovery.Config, opts ...discovery.Option) ([]discovery.Device, error)

// foundBuffer bounds live updates queued between the search and the UI.
// Overflow only delays a device until the final result arrives.
const foundBuffer = 64

// Messages for async operations. Each carries the scan it belongs to so
// results of an abandoned scan are ignored after a rescan.
type deviceFoundMsg struct {
	scan   int
	device discovery.Device
}

type scanCompleteMsg struct {
	scan    int
	devices []discovery.Device
	err     error
}

type scanTickMsg struct {
	scan int
}

// discoveryKeyMap defines key bindings for the results screen
type discoveryKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Details   key.Binding
	Rescan    key.Binding
	Interface key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k discoveryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Details, k.Rescan, k.Interface, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k discoveryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details},
		{k.Rescan, k.Interface, k.Quit},
	}
}

// scanningKeyMap defines key bindings while a scan runs
type scanningKeyMap struct {
	Stop key.Binding
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (s scanningKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{s.Stop, s.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (s scanningKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{s.Stop, s.Quit}}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device   discovery.Device
	nickname string
}

// FilterValue implements list.Item
func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.nickname + " " + strings.Join(d.device.Addresses, " ")
}

// Title returns the device name for list display
func (d deviceItem) Title() string {
	if d.nickname != "" {
		return fmt.Sprintf("%s (%s)", d.device.Name, d.nickname)
	}
	return d.device.Name
}

// Description returns device details for list display
func (d deviceItem) Description() string {
	addr := d.device.Address()
	if addr == "" {
		addr = "no address yet"
	}
	port := "?"
	if d.device.HasPort() {
		port = fmt.Sprint(*d.device.Port)
	}
	return fmt.Sprintf("%s:%s • %d properties", addr, port, len(d.device.Properties))
}

// deviceDelegate renders each device as a small card
type deviceDelegate struct {
	width int
}

func (d deviceDelegate) Height() int { return 4 }

func (d deviceDelegate) Spacing() int { return 1 }

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	di, ok := item.(deviceItem)
	if !ok {
		return
	}
	selected := index == m.Index()

	var content strings.Builder
	if selected {
		content.WriteString(SelectedMenuItemStyle.Render("→ " + di.Title()))
	} else {
		content.WriteString("  " + di.Title())
	}
	content.WriteString("\n")
	content.WriteString("  " + SubtitleStyle.Render(di.Description()))

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1).
		MarginLeft(2).
		Width(CalculateBoxWidth(d.width))
	if selected {
		cardStyle = cardStyle.BorderForeground(HighlightColor)
	}

	fmt.Fprint(w, cardStyle.Render(content.String()))
}

// DiscoveryModel runs searches and shows what they found
type DiscoveryModel struct {
	Config      discovery.Config
	Scanning    bool
	DeviceList  list.Model
	ShowDetails bool
	Err         error

	// Requests the coordinator acts on
	ChangeInterface bool
	Quit            bool

	search    SearchFunc
	nicknames ui.Nicknames
	scanID    int
	found     chan discovery.Device
	cancel    context.CancelFunc
	started   time.Time
	now       func() time.Time

	Width        int
	Height       int
	Spinner      spinner.Model
	ProgressBar  progress.Model
	Help         help.Model
	Keys         discoveryKeyMap
	ScanningKeys scanningKeyMap
}

// NewDiscoveryModel creates the discovery screen for cfg. A nil search
// uses discovery.Search; nicknames may be nil.
func NewDiscoveryModel(cfg discovery.Config, search SearchFunc, nicknames ui.Nicknames) DiscoveryModel {
	if search == nil {
		search = discovery.Search
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	progressBar := progress.New(progress.WithDefaultGradient())
	progressBar.Width = 40

	deviceList := list.New([]list.Item{}, deviceDelegate{width: MinTerminalWidth}, MinTerminalWidth-4, DefaultHeight-10)
	deviceList.Title = "Discovered Devices"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(true)
	deviceList.Styles.Title = TitleStyle

	return DiscoveryModel{
		Config:      cfg.WithDefaults(),
		DeviceList:  deviceList,
		search:      search,
		nicknames:   nicknames,
		now:         time.Now,
		Spinner:     s,
		ProgressBar: progressBar,
		Help:        help.New(),
		Keys: discoveryKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Details: key.NewBinding(
				key.WithKeys("enter", " "),
				key.WithHelp("enter", "details"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Interface: key.NewBinding(
				key.WithKeys("i"),
				key.WithHelp("i", "interface"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		ScanningKeys: scanningKeyMap{
			Stop: key.NewBinding(
				key.WithKeys("s"),
				key.WithHelp("s", "stop early"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init implements tea.Model; the coordinator starts scans with StartScan
func (m DiscoveryModel) Init() tea.Cmd {
	return nil
}

// StartScan begins a new search, abandoning any running one
func (m DiscoveryModel) StartScan() (DiscoveryModel, tea.Cmd) {
	m.StopScan()

	m.scanID++
	m.Scanning = true
	m.ShowDetails = false
	m.Err = nil
	m.started = m.now()
	m.DeviceList.SetItems([]list.Item{})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	found := make(chan discovery.Device, foundBuffer)
	m.found = found

	id, cfg, search := m.scanID, m.Config, m.search
	run := func() tea.Msg {
		defer close(found)
		devices, err := search(ctx, cfg, discovery.OnFound(func(d discovery.Device) {
			select {
			case found <- d:
			default:
			}
		}))
		return scanCompleteMsg{scan: id, devices: devices, err: err}
	}

	return m, tea.Batch(run, waitForFound(id, found), scanTick(id), m.Spinner.Tick)
}

// StopScan cancels the running search; its final result still arrives
func (m DiscoveryModel) StopScan() {
	if m.cancel != nil {
		m.cancel()
	}
}

func waitForFound(id int, found <-chan discovery.Device) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-found
		if !ok {
			return nil
		}
		return deviceFoundMsg{scan: id, device: d}
	}
}

func scanTick(id int) tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return scanTickMsg{scan: id}
	})
}

// Update handles messages and updates the model
func (m DiscoveryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Scanning {
			return m.updateScanning(msg)
		}
		if m.DeviceList.FilterState() != list.Filtering {
			if updated, cmd, handled := m.updateResults(msg); handled {
				return updated, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DeviceList.SetDelegate(deviceDelegate{width: msg.Width})
		m.DeviceList.SetSize(msg.Width-4, msg.Height-10)
		m.ProgressBar.Width = CalculateBoxWidth(msg.Width) - 20
		return m, nil

	case deviceFoundMsg:
		if msg.scan != m.scanID || !m.Scanning {
			return m, nil
		}
		m.upsert(msg.device)
		return m, waitForFound(msg.scan, m.found)

	case scanCompleteMsg:
		if msg.scan != m.scanID {
			return m, nil
		}
		m.Scanning = false
		m.Err = msg.err
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		items := make([]list.Item, len(msg.devices))
		for i, d := range msg.devices {
			items[i] = m.item(d)
		}
		return m, m.DeviceList.SetItems(items)

	case scanTickMsg:
		if msg.scan != m.scanID || !m.Scanning {
			return m, nil
		}
		return m, scanTick(msg.scan)

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	if !m.Scanning {
		m.DeviceList, cmd = m.DeviceList.Update(msg)
	}
	return m, cmd
}

func (m DiscoveryModel) updateScanning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ScanningKeys.Stop):
		m.StopScan()
	case key.Matches(msg, m.ScanningKeys.Quit):
		m.StopScan()
		m.Quit = true
	}
	return m, nil
}

func (m DiscoveryModel) updateResults(msg tea.KeyMsg) (DiscoveryModel, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		if m.ShowDetails {
			m.ShowDetails = false
			return m, nil, true
		}
		m.Quit = true
		return m, nil, true

	case key.Matches(msg, m.Keys.Details):
		if m.DeviceList.SelectedItem() != nil {
			m.ShowDetails = !m.ShowDetails
		}
		return m, nil, true

	case key.Matches(msg, m.Keys.Rescan):
		updated, cmd := m.StartScan()
		return updated, cmd, true

	case key.Matches(msg, m.Keys.Interface):
		m.ChangeInterface = true
		return m, nil, true
	}
	return m, nil, false
}

func (m *DiscoveryModel) item(d discovery.Device) deviceItem {
	var nick string
	if m.nicknames != nil {
		nick = m.nicknames(d.Name)
	}
	return deviceItem{device: d, nickname: nick}
}

// upsert adds d to the list or replaces the entry with the same name
func (m *DiscoveryModel) upsert(d discovery.Device) {
	items := m.DeviceList.Items()
	for i, it := range items {
		if di, ok := it.(deviceItem); ok && di.device.Name == d.Name {
			m.DeviceList.SetItem(i, m.item(d))
			return
		}
	}
	m.DeviceList.InsertItem(len(items), m.item(d))
}

// Devices returns the devices currently listed
func (m DiscoveryModel) Devices() []discovery.Device {
	items := m.DeviceList.Items()
	out := make([]discovery.Device, 0, len(items))
	for _, it := range items {
		if di, ok := it.(deviceItem); ok {
			out = append(out, di.device)
		}
	}
	return out
}

// SelectedDevice returns the highlighted device, if any
func (m DiscoveryModel) SelectedDevice() (discovery.Device, bool) {
	if di, ok := m.DeviceList.SelectedItem().(deviceItem); ok {
		return di.device, true
	}
	return discovery.Device{}, false
}

// Percent returns the elapsed share of the search window
func (m DiscoveryModel) Percent() float64 {
	if !m.Scanning {
		return 1
	}
	p := float64(m.now().Sub(m.started)) / float64(m.Config.Timeout)
	if p > 1 {
		return 1
	}
	return p
}

// View renders the discovery screen
func (m DiscoveryModel) View() string {
	var content, helpText string
	switch {
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.ScanningKeys)
	case m.ShowDetails:
		content = m.renderDetails()
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

func (m DiscoveryModel) renderScanning() string {
	width := m.Width
	if width == 0 {
		width = MinTerminalWidth
	}

	remaining := m.Config.Timeout - m.now().Sub(m.started)
	if remaining < 0 {
		remaining = 0
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(m.Spinner.View()+" SEARCHING FOR DEVICES"),
		SubtitleStyle.Render(fmt.Sprintf("Querying %s from %s", m.Config.FullServiceName(), m.Config.LocalInterfaceAddress)),
		"",
		m.ProgressBar.ViewAs(m.Percent()),
		"",
		SubtitleStyle.Render(fmt.Sprintf("%s left · %d found", remaining.Round(100*time.Millisecond), len(m.DeviceList.Items()))),
		"",
	)
	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m DiscoveryModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderError(fmt.Sprintf("Scan failed: %v", m.Err)))
		b.WriteString("\n\n")
		if tips := ui.HintLines(discovery.GetTroubleshootingHint(m.Err)); len(tips) > 0 {
			b.WriteString("  Troubleshooting:\n")
			for _, tip := range tips {
				b.WriteString("    • " + tip + "\n")
			}
		}

	case len(m.DeviceList.Items()) == 0:
		b.WriteString("  " + WarningStyle.Render("⚠ No devices answered on "+m.Config.LocalInterfaceAddress))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Ensure the device is powered on and on this network\n")
		b.WriteString("    • Try another interface (press 'i')\n")
		b.WriteString("    • Check that the service type is correct\n")

	default:
		b.WriteString(m.DeviceList.View())
	}

	return b.String()
}

func (m DiscoveryModel) renderDetails() string {
	d, ok := m.SelectedDevice()
	if !ok {
		return m.renderResults()
	}
	di := m.item(d)

	lines := []string{
		SelectedMenuItemStyle.Render(di.Title()),
		"",
		RenderField("Addresses", strings.Join(d.Addresses, ", ")),
		RenderField("URL", d.BaseURL()),
	}
	if d.HasPort() {
		lines = append(lines, RenderField("Port", fmt.Sprint(*d.Port)))
	}
	if len(d.Properties) > 0 {
		lines = append(lines, "", "  Properties:")
		for _, k := range sortedPropertyKeys(d) {
			lines = append(lines, RenderField("  "+k, d.GetProperty(k)))
		}
	}

	return "\n" + DetailBoxStyle.Render(strings.Join(lines, "\n"))
}

func sortedPropertyKeys(d discovery.Device) []string {
	keys := make([]string, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
