package config

import (
	"time"

	"github.com/muurk/smartip/internal/discovery"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Registry represents the entire user configuration file.
// It stores search preferences and what the user knows about devices.
type Registry struct {
	Version int                `yaml:"version"`
	Search  *SearchPrefs       `yaml:"search,omitempty"`
	Devices map[string]*Device `yaml:"devices,omitempty"` // Keyed by service instance name
}

// SearchPrefs are the defaults used when a scan does not override them.
// Zero values fall back to the discovery defaults.
type SearchPrefs struct {
	Interface        string `yaml:"interface,omitempty"`         // IPv4 address of the interface to search on
	ServiceName      string `yaml:"service,omitempty"`           // Service type, e.g. "_smart_ip._tcp"
	MulticastAddress string `yaml:"multicast_address,omitempty"` // Multicast group
	Port             int    `yaml:"port,omitempty"`              // mDNS port
	TimeoutMS        int    `yaml:"timeout_ms,omitempty"`        // Collection window in milliseconds
}

// Device represents user-defined metadata for a discovered device.
type Device struct {
	Nickname  string    `yaml:"nickname,omitempty"`
	Addresses []string  `yaml:"addresses,omitempty"` // From the last scan
	Port      uint16    `yaml:"port,omitempty"`
	LastSeen  time.Time `yaml:"last_seen,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: CurrentVersion,
		Search:  defaultSearchPrefs(),
		Devices: make(map[string]*Device),
	}
}

func defaultSearchPrefs() *SearchPrefs {
	return &SearchPrefs{
		ServiceName: discovery.DefaultServiceName,
		TimeoutMS:   int(discovery.DefaultTimeout / time.Millisecond),
	}
}

// Apply fills the zero-valued fields of cfg from the preferences. Values
// already set on cfg (for example from command-line flags) win.
func (p *SearchPrefs) Apply(cfg discovery.Config) discovery.Config {
	if p == nil {
		return cfg
	}
	if cfg.LocalInterfaceAddress == "" {
		cfg.LocalInterfaceAddress = p.Interface
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = p.ServiceName
	}
	if cfg.MulticastAddress == "" {
		cfg.MulticastAddress = p.MulticastAddress
	}
	if cfg.Port == 0 {
		cfg.Port = p.Port
	}
	if cfg.Timeout == 0 && p.TimeoutMS > 0 {
		cfg.Timeout = time.Duration(p.TimeoutMS) * time.Millisecond
	}
	return cfg
}

// GetDevice retrieves device metadata by instance name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice ensures a device entry exists in the registry.
// Returns the device entry (existing or newly created).
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{}
	r.Devices[name] = device
	return device
}

// RecordScan stores the addresses and port of every discovered device and
// stamps it with the given time.
func (r *Registry) RecordScan(devices []discovery.Device, at time.Time) {
	for _, d := range devices {
		entry := r.EnsureDevice(d.Name)
		entry.Addresses = append([]string{}, d.Addresses...)
		if d.Port != nil {
			entry.Port = *d.Port
		}
		entry.LastSeen = at
	}
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(name, nickname string) {
	device := r.EnsureDevice(name)
	device.Nickname = nickname
}

// Nickname returns the nickname for name, or empty string
func (r *Registry) Nickname(name string) string {
	if d := r.GetDevice(name); d != nil {
		return d.Nickname
	}
	return ""
}

// SetInterface stores the preferred interface address.
func (r *Registry) SetInterface(addr string) {
	if r.Search == nil {
		r.Search = defaultSearchPrefs()
	}
	r.Search.Interface = addr
}
