package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/ipv4"

	"github.com/muurk/smartip/internal/netif"
)

type emptySource struct{}

func (emptySource) Interfaces() ([]net.Interface, error)         { return nil, nil }
func (emptySource) Addrs(ifi *net.Interface) ([]net.Addr, error) { return nil, nil }

func TestUDPv4Binder_UnknownAddress(t *testing.T) {
	b := UDPv4Binder{Interfaces: emptySource{}}

	_, err := b.Bind(context.Background(), net.ParseIP("192.0.2.1"), 5353)
	require.Error(t, err)
	assert.True(t, errors.Is(err, netif.ErrNoInterface))
}

func TestUDPv4Binder_RejectsIPv6(t *testing.T) {
	b := UDPv4Binder{Interfaces: emptySource{}}

	_, err := b.Bind(context.Background(), net.ParseIP("fe80::1"), 5353)
	assert.Error(t, err)
}

func TestReuseAddrControl(t *testing.T) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", "127.0.0.1:0")
	require.NoError(t, err)
	assert.NoError(t, pc.Close())
}

// Exercises the real socket path on loopback. Sandboxes without multicast
// on lo skip it.
func TestUDPv4Binder_Loopback(t *testing.T) {
	b := UDPv4Binder{}

	conn, err := b.Bind(context.Background(), net.IPv4(127, 0, 0, 1), 0)
	if err != nil {
		t.Skipf("loopback multicast unavailable: %v", err)
	}

	err = conn.JoinGroup(net.ParseIP("192.168.1.1"))
	assert.ErrorIs(t, err, ErrNotMulticast)

	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		_, _, err := conn.ReadFrom(buf)
		readErr <- err
	}()

	require.NoError(t, conn.Close())
	assert.NoError(t, conn.Close(), "second close is a no-op")

	select {
	case err := <-readErr:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrom did not return after Close")
	}
}

func TestArrivedOn(t *testing.T) {
	tests := []struct {
		name string
		cm   *ipv4.ControlMessage
		want bool
	}{
		{"no control message", nil, true},
		{"index not reported", &ipv4.ControlMessage{}, true},
		{"bound interface", &ipv4.ControlMessage{IfIndex: 2}, true},
		{"other interface", &ipv4.ControlMessage{IfIndex: 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, arrivedOn(tt.cm, 2))
		})
	}
}

func TestClaim(t *testing.T) {
	k := bindKey{ifIndex: 991, port: 5353}
	require.NoError(t, claim(k))
	assert.ErrorIs(t, claim(k), ErrInUse)
	assert.NoError(t, claim(bindKey{ifIndex: 992, port: 5353}), "other interface")

	release(k)
	release(bindKey{ifIndex: 992, port: 5353})
	require.NoError(t, claim(k))
	release(k)
}

func TestUDPv4Binder_ExclusiveInProcess(t *testing.T) {
	b := UDPv4Binder{}
	lo := net.IPv4(127, 0, 0, 1)

	scratch, err := b.Bind(context.Background(), lo, 0)
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	port := scratch.(*udpConn).pc.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, scratch.Close())

	first, err := b.Bind(context.Background(), lo, port)
	if err != nil {
		t.Skipf("port %d taken meanwhile: %v", port, err)
	}

	_, err = b.Bind(context.Background(), lo, port)
	assert.ErrorIs(t, err, ErrInUse)

	require.NoError(t, first.Close())

	again, err := b.Bind(context.Background(), lo, port)
	require.NoError(t, err, "pair is free again after Close")
	require.NoError(t, again.Close())
}
