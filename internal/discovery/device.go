package discovery

import (
	"fmt"

	"github.com/muurk/smartip/internal/protocol"
)

// Device represents a discovered Smart-IP device on the network
type Device struct {
	// Name is the service instance name without the service domain
	// (e.g. "device-1" for "device-1._smart_ip._tcp.local")
	Name string `json:"name" yaml:"name"`

	// Addresses are IPv4 addresses from A records matching the SRV target,
	// in receipt order. The same address may appear more than once when
	// several responses carried it.
	Addresses []string `json:"addresses" yaml:"addresses"`

	// Port is the SRV port; nil until an SRV record was seen
	Port *uint16 `json:"port,omitempty" yaml:"port,omitempty"`

	// Properties holds the TXT record entries
	Properties protocol.TXT `json:"properties" yaml:"properties"`
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	addr := d.Address()
	if addr == "" {
		addr = "?"
	}
	if d.Port == nil {
		return fmt.Sprintf("Smart-IP Device %s at %s", d.Name, addr)
	}
	return fmt.Sprintf("Smart-IP Device %s at %s:%d", d.Name, addr, *d.Port)
}

// HasPort reports whether an SRV record supplied the port
func (d *Device) HasPort() bool {
	return d.Port != nil
}

// Address returns the first resolved address, or empty string
func (d *Device) Address() string {
	if len(d.Addresses) == 0 {
		return ""
	}
	return d.Addresses[0]
}

// BaseURL returns the HTTP base URL for the device, or empty string when the
// address or port is not known
func (d *Device) BaseURL() string {
	if d.Address() == "" || d.Port == nil {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", d.Address(), *d.Port)
}

// GetProperty retrieves a TXT property as a string, or returns empty string
// if not found. Boolean entries read as "true".
func (d *Device) GetProperty(key string) string {
	if d.Properties == nil {
		return ""
	}
	v, ok := d.Properties[key]
	if !ok {
		return ""
	}
	return v.String()
}

// Clone returns a deep copy of the device
func (d Device) Clone() Device {
	out := Device{
		Name:       d.Name,
		Addresses:  append([]string{}, d.Addresses...),
		Properties: d.Properties.Clone(),
	}
	if d.Port != nil {
		port := *d.Port
		out.Port = &port
	}
	return out
}

func cloneDevices(in []Device) []Device {
	if in == nil {
		return nil
	}
	out := make([]Device, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}
