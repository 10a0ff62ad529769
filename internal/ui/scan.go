package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartip/internal/discovery"
)

// scanTickInterval is how often the deadline bar advances
const scanTickInterval = 100 * time.Millisecond

// maxListedDevices caps the live device list under the bar
const maxListedDevices = 8

// ScanFoundMsg carries a device update from a running session
type ScanFoundMsg discovery.Device

// ScanDoneMsg carries the final result of a session
type ScanDoneMsg []discovery.Device

type scanTickMsg time.Time

// ScanModel is a Bubble Tea model showing a running search: a spinner, a bar
// that fills towards the deadline, and the devices found so far.
type ScanModel struct {
	label   string
	timeout time.Duration
	start   time.Time
	now     func() time.Time

	spinner spinner.Model
	bar     progress.Model

	devices []discovery.Device
	index   map[string]int
	done    bool
	aborted bool
}

// NewScanModel creates a scan view for a search lasting timeout
func NewScanModel(label string, timeout time.Duration) ScanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return ScanModel{
		label:   label,
		timeout: timeout,
		start:   time.Now(),
		now:     time.Now,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		index:   make(map[string]int),
	}
}

func scanTick() tea.Cmd {
	return tea.Tick(scanTickInterval, func(t time.Time) tea.Msg { return scanTickMsg(t) })
}

// Init implements tea.Model
func (m ScanModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, scanTick())
}

// Update implements tea.Model
func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.aborted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		width := clampWidth(msg.Width, nil) - 24
		if width < 20 {
			width = 20
		}
		m.bar.Width = width

	case ScanFoundMsg:
		m.upsert(discovery.Device(msg))

	case ScanDoneMsg:
		m.done = true
		m.devices = []discovery.Device(msg)
		return m, tea.Quit

	case scanTickMsg:
		if m.done {
			return m, nil
		}
		return m, scanTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *ScanModel) upsert(d discovery.Device) {
	if i, ok := m.index[d.Name]; ok {
		m.devices[i] = d
		return
	}
	m.index[d.Name] = len(m.devices)
	m.devices = append(m.devices, d)
}

// Percent returns the elapsed share of the search window
func (m ScanModel) Percent() float64 {
	if m.done {
		return 1
	}
	if m.timeout <= 0 {
		return 0
	}
	p := float64(m.now().Sub(m.start)) / float64(m.timeout)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Devices returns the devices shown so far, or the final result once done
func (m ScanModel) Devices() []discovery.Device {
	return m.devices
}

// Done reports whether the final result arrived
func (m ScanModel) Done() bool {
	return m.done
}

// Aborted reports whether the user quit before the deadline
func (m ScanModel) Aborted() bool {
	return m.aborted
}

// View implements tea.Model
func (m ScanModel) View() string {
	if m.done {
		return SuccessTitleStyle.Render(fmt.Sprintf("  %s Scan complete: %s", SuccessMarker, deviceCount(len(m.devices)))) + "\n"
	}
	if m.aborted {
		return WarningTitleStyle.Render(fmt.Sprintf("  %s Scan stopped early", WarningMarker)) + "\n"
	}

	var b strings.Builder
	b.WriteString(ProgressLabelStyle.Render(m.spinner.View() + " " + m.label))
	b.WriteString("\n\n")

	remaining := m.timeout - m.now().Sub(m.start)
	if remaining < 0 {
		remaining = 0
	}
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
		fmt.Sprintf("%s  %s left", m.bar.ViewAs(m.Percent()), remaining.Round(100*time.Millisecond)),
	))
	b.WriteString("\n\n")

	b.WriteString(ProgressLabelStyle.Render("Found " + deviceCount(len(m.devices))))
	b.WriteString("\n")
	for i, d := range m.devices {
		if i == maxListedDevices {
			b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(4).Render(
				fmt.Sprintf("… and %d more", len(m.devices)-maxListedDevices)))
			b.WriteString("\n")
			break
		}
		line := DeviceNameStyle.Render(DeviceMarker+" "+d.Name) + "  " +
			lipgloss.NewStyle().Foreground(MutedColor).Render(joinOrDash(d.Addresses))
		b.WriteString("    " + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2).Render("q: stop early"))
	b.WriteString("\n")
	return b.String()
}

func deviceCount(n int) string {
	if n == 1 {
		return "1 device"
	}
	return fmt.Sprintf("%d devices", n)
}

// RunScan runs a discovery session behind a live ScanModel view written to
// out. Quitting the view stops the session early; the devices found so far
// are returned either way.
func RunScan(ctx context.Context, out io.Writer, label string, cfg discovery.Config, opts ...discovery.Option) ([]discovery.Device, error) {
	cfg = cfg.WithDefaults()
	p := tea.NewProgram(NewScanModel(label, cfg.Timeout), tea.WithOutput(out))

	all := make([]discovery.Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all,
		discovery.OnFound(func(d discovery.Device) { p.Send(ScanFoundMsg(d)) }),
		discovery.OnComplete(func(devices []discovery.Device) { p.Send(ScanDoneMsg(devices)) }),
	)

	s, err := discovery.NewSession(cfg, all...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	_, runErr := p.Run()
	s.Stop()
	devices := s.Wait()
	if runErr != nil {
		return devices, fmt.Errorf("scan view failed: %w", runErr)
	}
	return devices, nil
}
