package discovery

import (
	"strings"

	"github.com/muurk/smartip/internal/protocol"
)

// InServiceDomain reports whether name equals fullService or sits directly
// or indirectly under it
func InServiceDomain(name, fullService string) bool {
	return name == fullService || strings.HasSuffix(name, "."+fullService)
}

// entry is the accumulating state of one service instance
type entry struct {
	target     string
	port       uint16
	hasPort    bool
	addresses  []string
	properties protocol.TXT
}

// Correlator merges records from many messages into per-instance devices.
//
// Records may arrive in any order and in any message. Entries are keyed by
// full instance name and remembered in first-seen order. A Correlator is not
// safe for concurrent use; a Session owns one from its event loop.
//
// Every A record is also remembered by owner, so an SRV that arrives after
// its host's A records still picks up their addresses when it first names
// that host.
type Correlator struct {
	fullService string
	entries     map[string]*entry
	order       []string
	hosts       map[string][]string
}

// NewCorrelator creates a correlator for the given fully qualified service
// domain (e.g. "_smart_ip._tcp.local")
func NewCorrelator(fullService string) *Correlator {
	return &Correlator{
		fullService: fullService,
		entries:     make(map[string]*entry),
		hosts:       make(map[string][]string),
	}
}

// FullServiceName returns the service domain records are matched against
func (c *Correlator) FullServiceName() string {
	return c.fullService
}

// Len returns the number of tracked entries, including out-of-domain ones
func (c *Correlator) Len() int {
	return len(c.order)
}

// Apply feeds a single record, as if it were the only record of a message.
// Returns the keys of the entries it changed.
func (c *Correlator) Apply(r protocol.Record) []string {
	return c.ApplyMessage(&protocol.Message{Records: []protocol.Record{r}})
}

// ApplyMessage feeds every record of m in order and returns the keys of
// changed entries, each once, in the order they first changed.
//
// Within one message an (entry, address) pair is appended at most once, so
// an A record repeated in the same response does not duplicate the address.
// Separate messages are not deduplicated against each other.
func (c *Correlator) ApplyMessage(m *protocol.Message) []string {
	var changed []string
	touched := make(map[string]bool)
	appended := make(map[[2]string]bool)

	mark := func(key string) {
		if !touched[key] {
			touched[key] = true
			changed = append(changed, key)
		}
	}

	for _, r := range m.Records {
		switch data := r.Data.(type) {
		case protocol.PTRData:
			if r.Name != c.fullService {
				continue
			}
			if _, ok := c.entries[data.Target]; !ok {
				c.ensure(data.Target)
				mark(data.Target)
			}

		case protocol.SRVData:
			if !InServiceDomain(r.Name, c.fullService) {
				continue
			}
			e := c.ensure(r.Name)
			if e.target != data.Target {
				e.target = data.Target
				for _, addr := range c.hosts[data.Target] {
					if !contains(e.addresses, addr) {
						e.addresses = append(e.addresses, addr)
						appended[[2]string{r.Name, addr}] = true
					}
				}
			}
			e.port = data.Port
			e.hasPort = true
			mark(r.Name)

		case protocol.TXTData:
			if !InServiceDomain(r.Name, c.fullService) {
				continue
			}
			e := c.ensure(r.Name)
			e.properties = data.Properties.Clone()
			mark(r.Name)

		case protocol.AData:
			if !contains(c.hosts[r.Name], data.Address) {
				c.hosts[r.Name] = append(c.hosts[r.Name], data.Address)
			}

			// A owners are host names, matched against SRV targets wherever
			// they live
			for _, key := range c.order {
				e := c.entries[key]
				if e.target == "" || e.target != r.Name {
					continue
				}
				pair := [2]string{key, data.Address}
				if appended[pair] {
					continue
				}
				appended[pair] = true
				e.addresses = append(e.addresses, data.Address)
				mark(key)
			}
		}
	}

	return changed
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Correlator) ensure(key string) *entry {
	if e, ok := c.entries[key]; ok {
		return e
	}
	e := &entry{properties: protocol.TXT{}}
	c.entries[key] = e
	c.order = append(c.order, key)
	return e
}

// Lookup returns the device for an entry key if that entry is in the service
// domain
func (c *Correlator) Lookup(key string) (Device, bool) {
	e, ok := c.entries[key]
	if !ok || !InServiceDomain(key, c.fullService) {
		return Device{}, false
	}
	return c.device(key, e), true
}

// Snapshot returns every in-domain entry as an independent Device, in the
// order entries were first seen
func (c *Correlator) Snapshot() []Device {
	devices := make([]Device, 0, len(c.order))
	for _, key := range c.order {
		if !InServiceDomain(key, c.fullService) {
			continue
		}
		devices = append(devices, c.device(key, c.entries[key]))
	}
	return devices
}

func (c *Correlator) device(key string, e *entry) Device {
	d := Device{
		Name:       strings.TrimSuffix(key, "."+c.fullService),
		Addresses:  append([]string{}, e.addresses...),
		Properties: e.properties.Clone(),
	}
	if e.hasPort {
		port := e.port
		d.Port = &port
	}
	return d
}
