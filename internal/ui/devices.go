package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/muurk/smartip/internal/discovery"
	"github.com/muurk/smartip/internal/netif"
)

// Format selects how scan results are written
type Format string

const (
	FormatDetailed Format = "detailed" // One block per device with its properties
	FormatCompact  Format = "compact"  // One table row per device
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists every accepted format, for flag help
var Formats = []Format{FormatDetailed, FormatCompact, FormatJSON, FormatYAML}

// ParseFormat validates a --format value
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown format %q (expected one of %s)", s, strings.Join(names, ", "))
}

// Structured reports whether the format is machine-readable
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// Nicknames maps a device name to a user nickname; it may be nil
type Nicknames func(name string) string

func (n Nicknames) lookup(name string) string {
	if n == nil {
		return ""
	}
	return n(name)
}

// WriteDevices writes devices to w in the given format
func WriteDevices(w io.Writer, devices []discovery.Device, format Format, nick Nicknames, width int) error {
	if devices == nil {
		devices = []discovery.Device{}
	}

	switch format {
	case FormatJSON, FormatYAML:
		return writeStructured(w, devices, format)

	case FormatCompact:
		_, err := fmt.Fprintln(w, RenderDeviceTable(devices, nick))
		return err

	default:
		_, err := fmt.Fprintln(w, RenderDeviceList(devices, nick, width))
		return err
	}
}

// WriteInterfaces writes the interface list to w. Both human formats use
// the table.
func WriteInterfaces(w io.Writer, ifaces []netif.Interface, format Format) error {
	if ifaces == nil {
		ifaces = []netif.Interface{}
	}
	if format.Structured() {
		return writeStructured(w, ifaces, format)
	}
	_, err := fmt.Fprintln(w, RenderInterfaceTable(ifaces))
	return err
}

func writeStructured(w io.Writer, v interface{}, format Format) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// RenderDeviceList renders one block per device
func RenderDeviceList(devices []discovery.Device, nick Nicknames, width int) string {
	if len(devices) == 0 {
		return lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2).Render("No devices found.")
	}

	blocks := make([]string, 0, len(devices))
	for _, d := range devices {
		blocks = append(blocks, RenderDevice(d, nick.lookup(d.Name), width))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderDevice renders one device with its addresses, port and properties
func RenderDevice(d discovery.Device, nickname string, width int) string {
	title := "  " + DeviceNameStyle.Render(DeviceMarker+" "+d.Name)
	if nickname != "" {
		title += " " + DeviceNicknameStyle.Render("("+nickname+")")
	}

	lines := []string{title}
	lines = append(lines, detailLine("Address", joinOrDash(d.Addresses)))
	lines = append(lines, detailLine("Port", portString(d)))
	if url := d.BaseURL(); url != "" {
		lines = append(lines, detailLine("URL", url))
	}

	if len(d.Properties) > 0 {
		lines = append(lines, detailLine("Properties", ""))
		for _, key := range sortedKeys(d.Properties) {
			value := d.Properties[key]
			text := key
			if !value.IsFlag() {
				text = key + " = " + value.Value
			}
			lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render(PropertyKeyStyle.Render(text)))
		}
	}

	return strings.Join(lines, "\n")
}

func detailLine(key, value string) string {
	return "    " + ResultKeyStyle.Render(key+":") + " " + ResultValueStyle.Render(value)
}

// RenderDeviceTable renders devices as a bordered table
func RenderDeviceTable(devices []discovery.Device, nick Nicknames) string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			d.Name,
			nick.lookup(d.Name),
			joinOrDash(d.Addresses),
			portString(d),
			strconv.Itoa(len(d.Properties)),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("NAME", "NICKNAME", "ADDRESSES", "PORT", "TXT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(MutedColor).Bold(true).Padding(0, 1)
			}
			if col == 0 {
				return DeviceNameStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(TextColor).Padding(0, 1)
		}).
		String()
}

// RenderInterfaceTable renders the interface list of `smartip interfaces`
func RenderInterfaceTable(ifaces []netif.Interface) string {
	rows := make([][]string, 0, len(ifaces))
	for _, i := range ifaces {
		rows = append(rows, []string{
			i.Name,
			i.Address,
			i.Family,
			yesNo(i.Up),
			yesNo(i.Multicast),
			yesNo(i.Internal),
			i.MAC,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("NAME", "ADDRESS", "FAMILY", "UP", "MULTICAST", "LOOPBACK", "MAC").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(MutedColor).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(TextColor).Padding(0, 1)
		}).
		String()
}

func joinOrDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}

func portString(d discovery.Device) string {
	if d.Port == nil {
		return "-"
	}
	return strconv.Itoa(int(*d.Port))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
