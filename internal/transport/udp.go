package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"go.uber.org/multierr"
	"golang.org/x/net/ipv4"

	"github.com/muurk/smartip/internal/netif"
)

// multicastTTL is the hop limit for outgoing queries (RFC 6762 §11)
const multicastTTL = 255

var (
	// ErrNotMulticast is returned by JoinGroup for a non-multicast address
	ErrNotMulticast = errors.New("not an IPv4 multicast address")

	// ErrInUse is returned by Bind when this process already holds the
	// interface and port
	ErrInUse = errors.New("interface and port already bound by this process")
)

// bindKey identifies an (interface, port) pair held by an open socket
type bindKey struct {
	ifIndex int
	port    int
}

var (
	claimsMu sync.Mutex
	claims   = make(map[bindKey]struct{})
)

func claim(k bindKey) error {
	claimsMu.Lock()
	defer claimsMu.Unlock()
	if _, held := claims[k]; held {
		return ErrInUse
	}
	claims[k] = struct{}{}
	return nil
}

func release(k bindKey) {
	claimsMu.Lock()
	delete(claims, k)
	claimsMu.Unlock()
}

// UDPv4Binder opens IPv4 UDP sockets for multicast discovery.
//
// The socket is bound to the wildcard address on the requested port with
// SO_REUSEADDR, because on Linux a socket bound to a unicast address never
// sees datagrams addressed to the group. The local address selects the
// interface used for outgoing multicast and for the group membership.
//
// Other processes may share the port. Within this process only one socket
// may hold a given (interface, port) pair; a second Bind fails with ErrInUse
// until the first socket is closed. Where the platform reports the arrival
// interface, datagrams received on any other interface are dropped.
type UDPv4Binder struct {
	// Interfaces resolves the local address; nil uses the host table
	Interfaces netif.Source
}

// Bind implements Binder
func (b UDPv4Binder) Bind(ctx context.Context, local net.IP, port int) (Conn, error) {
	src := b.Interfaces
	if src == nil {
		src = netif.System
	}

	if local.To4() == nil {
		return nil, fmt.Errorf("local address %s is not IPv4", local)
	}

	ifi, err := netif.ByAddressFrom(src, local)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve interface: %w", err)
	}

	var key *bindKey
	if port != 0 {
		key = &bindKey{ifIndex: ifi.Index, port: port}
		if err := claim(*key); err != nil {
			return nil, fmt.Errorf("failed to bind %s port %d: %w", ifi.Name, port, err)
		}
	}
	releaseKey := func() {
		if key != nil {
			release(*key)
		}
	}

	lc := net.ListenConfig{Control: reuseAddrControl}
	pc, err := lc.ListenPacket(ctx, "udp4", net.JoinHostPort(net.IPv4zero.String(), strconv.Itoa(port)))
	if err != nil {
		releaseKey()
		return nil, fmt.Errorf("failed to bind port %d: %w", port, err)
	}

	p := ipv4.NewPacketConn(pc)

	var setupErr error
	setupErr = multierr.Append(setupErr, p.SetMulticastInterface(ifi))
	setupErr = multierr.Append(setupErr, p.SetMulticastTTL(multicastTTL))
	setupErr = multierr.Append(setupErr, p.SetMulticastLoopback(true))
	if setupErr != nil {
		_ = pc.Close()
		releaseKey()
		return nil, fmt.Errorf("failed to configure multicast on %s: %w", ifi.Name, setupErr)
	}

	// Not every platform reports the arrival interface; without it every
	// datagram is accepted
	filter := p.SetControlMessage(ipv4.FlagInterface, true) == nil

	return &udpConn{pc: pc, p: p, ifi: ifi, key: key, filter: filter}, nil
}

// udpConn is a Conn over an ipv4.PacketConn bound to one interface
type udpConn struct {
	pc     net.PacketConn
	p      *ipv4.PacketConn
	ifi    *net.Interface
	key    *bindKey
	filter bool

	mu     sync.Mutex
	groups []net.IP
	closed bool
}

// ReadFrom skips datagrams that arrived on another interface
func (c *udpConn) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		n, cm, src, err := c.p.ReadFrom(b)
		if err != nil {
			return n, src, err
		}
		if c.filter && !arrivedOn(cm, c.ifi.Index) {
			continue
		}
		return n, src, nil
	}
}

// arrivedOn reports whether cm places the datagram on interface index. A
// missing control message or index is accepted.
func arrivedOn(cm *ipv4.ControlMessage, index int) bool {
	return cm == nil || cm.IfIndex == 0 || cm.IfIndex == index
}

func (c *udpConn) WriteTo(b []byte, dst net.Addr) (int, error) {
	return c.p.WriteTo(b, nil, dst)
}

func (c *udpConn) JoinGroup(group net.IP) error {
	if group.To4() == nil || !group.IsMulticast() {
		return fmt.Errorf("%s: %w", group, ErrNotMulticast)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.p.JoinGroup(c.ifi, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("failed to join %s on %s: %w", group, c.ifi.Name, err)
	}
	c.groups = append(c.groups, group)
	return nil
}

// Close leaves every joined group and closes the socket. Errors from each
// step are combined; the socket is closed even if leaving fails.
func (c *udpConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	for _, group := range c.groups {
		err = multierr.Append(err, c.p.LeaveGroup(c.ifi, &net.UDPAddr{IP: group}))
	}
	c.groups = nil
	err = multierr.Append(err, c.pc.Close())
	if c.key != nil {
		release(*c.key)
	}
	return err
}
