// Package netif enumerates the host's network interfaces.
//
// It backs the interface picker of the CLI and wizard and lets the transport
// resolve a local IPv4 address to the interface that owns it.
package netif

import (
	"errors"
	"fmt"
	"net"
)

// Address families reported by List
const (
	FamilyIPv4 = "IPv4"
	FamilyIPv6 = "IPv6"
)

// ErrNoInterface is returned when no interface owns an address
var ErrNoInterface = errors.New("no interface has this address")

// Interface is one address of one network interface
type Interface struct {
	Name      string `json:"name" yaml:"name"`           // e.g. "eth0"
	Index     int    `json:"index" yaml:"index"`         // OS interface index
	Address   string `json:"address" yaml:"address"`     // IP without prefix length
	Family    string `json:"family" yaml:"family"`       // IPv4 or IPv6
	MAC       string `json:"mac" yaml:"mac"`             // Hardware address, empty for loopback/tunnels
	Internal  bool   `json:"internal" yaml:"internal"`   // Loopback interface
	Multicast bool   `json:"multicast" yaml:"multicast"` // Interface supports multicast
	Up        bool   `json:"up" yaml:"up"`
}

func (i Interface) String() string {
	return fmt.Sprintf("%s %s (%s)", i.Name, i.Address, i.Family)
}

// Source abstracts the OS interface table so callers can be tested
type Source interface {
	Interfaces() ([]net.Interface, error)
	Addrs(ifi *net.Interface) ([]net.Addr, error)
}

type systemSource struct{}

func (systemSource) Interfaces() ([]net.Interface, error)         { return net.Interfaces() }
func (systemSource) Addrs(ifi *net.Interface) ([]net.Addr, error) { return ifi.Addrs() }

// System reads the host's interface table
var System Source = systemSource{}

// List returns one entry per interface address on the host
func List() ([]Interface, error) {
	return ListFrom(System)
}

// ListFrom returns one entry per interface address reported by src
func ListFrom(src Source) ([]Interface, error) {
	ifaces, err := src.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var out []Interface
	for i := range ifaces {
		ifi := &ifaces[i]
		addrs, err := src.Addrs(ifi)
		if err != nil {
			// Interface went away or is not readable; skip it
			continue
		}
		for _, addr := range addrs {
			ip := addrIP(addr)
			if ip == nil {
				continue
			}
			family := FamilyIPv6
			if ip.To4() != nil {
				family = FamilyIPv4
			}
			out = append(out, Interface{
				Name:      ifi.Name,
				Index:     ifi.Index,
				Address:   ip.String(),
				Family:    family,
				MAC:       ifi.HardwareAddr.String(),
				Internal:  ifi.Flags&net.FlagLoopback != 0,
				Multicast: ifi.Flags&net.FlagMulticast != 0,
				Up:        ifi.Flags&net.FlagUp != 0,
			})
		}
	}
	return out, nil
}

// IPv4Candidates filters List down to addresses a search can use: IPv4 on an
// interface that is up, multicast capable and not loopback.
func IPv4Candidates(all []Interface) []Interface {
	var out []Interface
	for _, i := range all {
		if i.Family == FamilyIPv4 && i.Up && i.Multicast && !i.Internal {
			out = append(out, i)
		}
	}
	return out
}

// ByAddress returns the interface owning ip
func ByAddress(ip net.IP) (*net.Interface, error) {
	return ByAddressFrom(System, ip)
}

// ByAddressFrom returns the interface of src owning ip
func ByAddressFrom(src Source, ip net.IP) (*net.Interface, error) {
	ifaces, err := src.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for i := range ifaces {
		addrs, err := src.Addrs(&ifaces[i])
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if candidate := addrIP(addr); candidate != nil && candidate.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", ip, ErrNoInterface)
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}
