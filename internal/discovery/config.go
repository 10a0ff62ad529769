package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/muurk/smartip/internal/protocol"
)

const (
	// DefaultMulticastAddress is the mDNS IPv4 group (RFC 6762 §3)
	DefaultMulticastAddress = "224.0.0.251"

	// DefaultPort is the mDNS port
	DefaultPort = 5353

	// DefaultServiceName is the service type Smart-IP devices advertise
	DefaultServiceName = "_smart_ip._tcp"

	// DefaultTimeout is how long a search collects responses
	DefaultTimeout = 5 * time.Second
)

// Config describes one search. Zero values take the defaults above, except
// LocalInterfaceAddress which has no safe default and is required.
type Config struct {
	// MulticastAddress is the IPv4 group the query is sent to
	MulticastAddress string

	// Port is both the local port bound and the group port
	Port int

	// LocalInterfaceAddress selects the interface (an IPv4 address it owns)
	LocalInterfaceAddress string

	// ServiceName is the service type, without the ".local" suffix
	ServiceName string

	// Timeout is the length of the collection window
	Timeout time.Duration
}

// DefaultConfig returns a Config with every default filled in
func DefaultConfig() Config {
	return Config{
		MulticastAddress: DefaultMulticastAddress,
		Port:             DefaultPort,
		ServiceName:      DefaultServiceName,
		Timeout:          DefaultTimeout,
	}
}

// WithDefaults returns a copy of c with zero-valued fields defaulted
func (c Config) WithDefaults() Config {
	if c.MulticastAddress == "" {
		c.MulticastAddress = DefaultMulticastAddress
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// FullServiceName returns the fully qualified service domain that PTR
// records are matched against (e.g. "_smart_ip._tcp.local")
func (c Config) FullServiceName() string {
	return protocol.QueryName(c.ServiceName)
}

// GroupAddr returns the multicast destination. Call after Validate.
func (c Config) GroupAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(c.MulticastAddress).To4(), Port: c.Port}
}

// Validate checks c without touching the network. Returns a *SearchError of
// type ErrTypeInvalidConfig describing the first problem found.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return newInvalidConfigError(fmt.Sprintf("timeout must be positive, got %s", c.Timeout), nil)
	}

	if c.Port < 1 || c.Port > 65535 {
		return newInvalidConfigError("port must be between 1 and 65535, got "+strconv.Itoa(c.Port), nil)
	}

	group := net.ParseIP(c.MulticastAddress)
	if group == nil || group.To4() == nil {
		return newInvalidConfigError(fmt.Sprintf("multicast address %q is not an IPv4 address", c.MulticastAddress), nil)
	}
	if !group.IsMulticast() {
		return newInvalidConfigError(fmt.Sprintf("address %s is not a multicast address", c.MulticastAddress), nil)
	}

	if c.LocalInterfaceAddress == "" {
		return newInvalidConfigError("local interface address is required", nil)
	}
	local := net.ParseIP(c.LocalInterfaceAddress)
	if local == nil || local.To4() == nil {
		return newInvalidConfigError(fmt.Sprintf("local interface address %q is not an IPv4 address", c.LocalInterfaceAddress), nil)
	}

	if _, err := protocol.EncodeQuery(c.ServiceName); err != nil {
		return newInvalidConfigError(fmt.Sprintf("service name %q cannot be encoded", c.ServiceName), err)
	}

	return nil
}
