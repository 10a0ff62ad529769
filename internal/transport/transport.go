// Package transport owns the UDP multicast socket of a discovery session.
//
// The discovery engine talks to the network only through Binder and Conn, so
// tests can substitute an in-memory responder for the real socket.
package transport

import (
	"context"
	"net"
)

// Conn is a bound datagram socket that can join a multicast group.
type Conn interface {
	// ReadFrom blocks until a datagram arrives or the socket is closed.
	ReadFrom(b []byte) (n int, src net.Addr, err error)

	// WriteTo sends one datagram to dst.
	WriteTo(b []byte, dst net.Addr) (n int, err error)

	// JoinGroup joins the IPv4 multicast group on the bound interface.
	JoinGroup(group net.IP) error

	// Close leaves any joined group and closes the socket. A blocked
	// ReadFrom returns with an error.
	Close() error
}

// Binder opens sockets. Bind must fail when the local address does not
// belong to an interface of this host or the port cannot be bound.
type Binder interface {
	Bind(ctx context.Context, local net.IP, port int) (Conn, error)
}
