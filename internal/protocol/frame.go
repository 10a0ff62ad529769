package protocol

import (
	"encoding/binary"
	"fmt"
)

// Wire format constants (RFC 1035 §4.1, RFC 6762)
const (
	HeaderSize     = 12  // id + flags + 4 counts
	QuestionFooter = 4   // type(2) + class(2)
	RecordFixed    = 10  // type(2) + class(2) + ttl(4) + rdlength(2)
	MaxLabelLength = 63  // 6-bit length field
	MaxNameLength  = 255 // including length bytes and the terminating zero
	LocalDomain    = "local"

	pointerMask = 0xC0 // high bits 11 mark a compression pointer
)

// Record types interpreted by the discovery engine
const (
	TypeA   uint16 = 1
	TypePTR uint16 = 12
	TypeTXT uint16 = 16
	TypeSRV uint16 = 33
)

// ClassINET is the "Internet" class code
const ClassINET uint16 = 1

// flagResponse is the QR bit of the flags word
const flagResponse uint16 = 1 << 15

// Header is the fixed 12-byte message header
type Header struct {
	ID      uint16 // Transaction ID (always 0 for our queries)
	Flags   uint16 // QR, opcode, AA, TC, RD, RA, Z, RCODE
	QDCount uint16 // Number of question entries
	ANCount uint16 // Number of answer records
	NSCount uint16 // Number of authority records
	ARCount uint16 // Number of additional records
}

// IsResponse reports whether the QR bit is set
func (h Header) IsResponse() bool {
	return h.Flags&flagResponse != 0
}

// RecordCount returns the number of resource records following the questions
func (h Header) RecordCount() int {
	return int(h.ANCount) + int(h.NSCount) + int(h.ARCount)
}

func (h Header) String() string {
	return fmt.Sprintf("Header{id=%d, flags=0x%04x, qd=%d, an=%d, ns=%d, ar=%d}",
		h.ID, h.Flags, h.QDCount, h.ANCount, h.NSCount, h.ARCount)
}

// putHeader writes h into the first HeaderSize bytes of b
func putHeader(b []byte, h Header) {
	binary.BigEndian.PutUint16(b[0:2], h.ID)
	binary.BigEndian.PutUint16(b[2:4], h.Flags)
	binary.BigEndian.PutUint16(b[4:6], h.QDCount)
	binary.BigEndian.PutUint16(b[6:8], h.ANCount)
	binary.BigEndian.PutUint16(b[8:10], h.NSCount)
	binary.BigEndian.PutUint16(b[10:12], h.ARCount)
}

// Message is a decoded datagram. Records from the answer, authority and
// additional sections are kept in wire order without their section.
type Message struct {
	Header  Header
	Records []Record
}

// Record is one decoded resource record
type Record struct {
	Name        string // Owner name, labels joined with "."
	Type        uint16
	Class       uint16
	TTL         uint32
	RDataLength uint16
	Data        RData // Type-specific payload, OpaqueData for unknown types
}

func (r Record) String() string {
	return fmt.Sprintf("Record{name=%s, type=%s, class=%d, ttl=%d, rdlength=%d, data=%v}",
		r.Name, TypeName(r.Type), r.Class, r.TTL, r.RDataLength, r.Data)
}

// TypeName returns a short name for a record type
func TypeName(t uint16) string {
	switch t {
	case TypeA:
		return "A"
	case TypePTR:
		return "PTR"
	case TypeTXT:
		return "TXT"
	case TypeSRV:
		return "SRV"
	default:
		return fmt.Sprintf("TYPE%d", t)
	}
}
