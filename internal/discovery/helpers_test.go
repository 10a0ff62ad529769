package discovery

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartip/internal/protocol"
	"github.com/muurk/smartip/internal/transport"
)

const (
	testService  = "_smart_ip._tcp.local"
	testInstance = "device-1._smart_ip._tcp.local"
	testHost     = "host.local"
	testLocal    = "192.168.1.10"
)

func hdr(name string, rrtype uint16) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: 120}
}

func ptrRR(owner, target string) dns.RR {
	return &dns.PTR{Hdr: hdr(owner, dns.TypePTR), Ptr: target}
}

func srvRR(owner string, port uint16, target string) dns.RR {
	return &dns.SRV{Hdr: hdr(owner, dns.TypeSRV), Port: port, Target: target}
}

func txtRR(owner string, entries ...string) dns.RR {
	return &dns.TXT{Hdr: hdr(owner, dns.TypeTXT), Txt: entries}
}

func aRR(owner, ip string) dns.RR {
	return &dns.A{Hdr: hdr(owner, dns.TypeA), A: net.ParseIP(ip)}
}

// packResponse builds a compressed mDNS response the way a real responder
// would
func packResponse(t *testing.T, answers ...dns.RR) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.Response = true
	m.Authoritative = true
	m.Compress = true
	m.Answer = answers
	buf, err := m.Pack()
	require.NoError(t, err)
	return buf
}

// standardResponse is one device at 192.168.1.50:5353 with no TXT entries
func standardResponse(t *testing.T) []byte {
	return packResponse(t,
		ptrRR(testService+".", testInstance+"."),
		srvRR(testInstance+".", 5353, testHost+"."),
		aRR(testHost+".", "192.168.1.50"),
	)
}

// record decodes the records of a miekg RR through our own decoder
func records(t *testing.T, rrs ...dns.RR) []protocol.Record {
	t.Helper()
	msg, err := protocol.DecodeMessage(packResponse(t, rrs...))
	require.NoError(t, err)
	return msg.Records
}

// fakeNetwork is an in-memory transport.Binder. Whatever respond returns for
// a sent query is delivered to the socket as inbound datagrams.
type fakeNetwork struct {
	mu       sync.Mutex
	bindErr  error
	joinErr  error
	sendErr  error
	closeErr error
	respond  func(query []byte) [][]byte
	conns    []*fakeConn
	binds    int
	local    net.IP
	port     int
}

func (n *fakeNetwork) Bind(_ context.Context, local net.IP, port int) (transport.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.binds++
	n.local = local
	n.port = port
	if n.bindErr != nil {
		return nil, n.bindErr
	}
	c := &fakeConn{
		net:    n,
		inbox:  make(chan []byte, 64),
		closed: make(chan struct{}),
	}
	n.conns = append(n.conns, c)
	return c, nil
}

func (n *fakeNetwork) conn(t *testing.T) *fakeConn {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.Len(t, n.conns, 1)
	return n.conns[0]
}

type fakeConn struct {
	net    *fakeNetwork
	inbox  chan []byte
	closed chan struct{}

	mu        sync.Mutex
	joined    []net.IP
	sent      [][]byte
	sentTo    []net.Addr
	closeOnce sync.Once
	closes    int
}

var fakeResponder = &net.UDPAddr{IP: net.IPv4(192, 168, 1, 50), Port: 5353}

func (c *fakeConn) ReadFrom(b []byte) (int, net.Addr, error) {
	select {
	case d := <-c.inbox:
		return copy(b, d), fakeResponder, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	c.mu.Lock()
	c.sent = append(c.sent, append([]byte{}, b...))
	c.sentTo = append(c.sentTo, dst)
	c.mu.Unlock()

	if c.net.sendErr != nil {
		return 0, c.net.sendErr
	}
	if c.net.respond != nil {
		for _, d := range c.net.respond(b) {
			c.deliver(d)
		}
	}
	return len(b), nil
}

func (c *fakeConn) JoinGroup(group net.IP) error {
	if c.net.joinErr != nil {
		return c.net.joinErr
	}
	c.mu.Lock()
	c.joined = append(c.joined, group)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return c.net.closeErr
}

// deliver queues an inbound datagram
func (c *fakeConn) deliver(d []byte) {
	select {
	case c.inbox <- d:
	case <-c.closed:
	}
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) sentQueries() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte{}, c.sent...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LocalInterfaceAddress = testLocal
	return cfg
}
