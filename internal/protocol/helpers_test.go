package protocol

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

// wireHeader returns a response header with ancount records and no questions
func wireHeader(qd, an uint16) []byte {
	b := make([]byte, HeaderSize)
	putHeader(b, Header{Flags: 0x8400, QDCount: qd, ANCount: an})
	return b
}

// wireRecord builds one resource record from an already-encoded owner name
func wireRecord(owner []byte, typ uint16, rdata []byte) []byte {
	b := append([]byte{}, owner...)
	fixed := make([]byte, RecordFixed)
	binary.BigEndian.PutUint16(fixed[0:2], typ)
	binary.BigEndian.PutUint16(fixed[2:4], ClassINET)
	binary.BigEndian.PutUint32(fixed[4:8], 120)
	binary.BigEndian.PutUint16(fixed[8:10], uint16(len(rdata)))
	b = append(b, fixed...)
	return append(b, rdata...)
}

func mustEncodeName(t *testing.T, name string) []byte {
	t.Helper()
	b, err := EncodeName(name)
	require.NoError(t, err)
	return b
}

// packResponse builds a compressed response the way a real responder would
func packResponse(t *testing.T, withQuestion bool, rrs ...dns.RR) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.Response = true
	m.Authoritative = true
	m.Compress = true
	if withQuestion {
		m.Question = []dns.Question{{Name: "_smart_ip._tcp.local.", Qtype: dns.TypePTR, Qclass: dns.ClassINET}}
	}
	m.Answer = append(m.Answer, rrs...)
	buf, err := m.Pack()
	require.NoError(t, err)
	return buf
}

func hdr(name string, rrtype uint16) dns.RR_Header {
	return dns.RR_Header{Name: name, Rrtype: rrtype, Class: dns.ClassINET, Ttl: 120}
}

func ptrRR(owner, target string) dns.RR {
	return &dns.PTR{Hdr: hdr(owner, dns.TypePTR), Ptr: target}
}

func srvRR(owner string, port uint16, target string) dns.RR {
	return &dns.SRV{Hdr: hdr(owner, dns.TypeSRV), Priority: 0, Weight: 0, Port: port, Target: target}
}

func txtRR(owner string, txt ...string) dns.RR {
	return &dns.TXT{Hdr: hdr(owner, dns.TypeTXT), Txt: txt}
}

func aRR(owner, ip string) dns.RR {
	return &dns.A{Hdr: hdr(owner, dns.TypeA), A: net.ParseIP(ip)}
}

func aaaaRR(owner, ip string) dns.RR {
	return &dns.AAAA{Hdr: hdr(owner, dns.TypeAAAA), AAAA: net.ParseIP(ip)}
}
