// Package protocol implements the multicast DNS wire format used to discover
// Smart-IP devices.
//
// This package builds the single PTR query the discovery engine sends and
// decodes the responses devices multicast back. It performs no I/O and holds
// no state; every function is safe for concurrent use.
//
// # Message Format
//
// Messages use the standard DNS layout (RFC 1035 §4.1):
//   - Header: 12 bytes (id, flags, question/answer/authority/additional counts)
//   - Questions: name + type(2) + class(2)
//   - Records: name + type(2) + class(2) + ttl(4) + rdlength(2) + rdata
//
// All multi-byte integers are big-endian.
//
// # Names
//
// Names are sequences of length-prefixed labels ending with a zero byte. A
// length byte with its two high bits set is a compression pointer: the low
// 14 bits give an absolute offset in the message where the remaining labels
// are read from. DecodeName reports how many bytes of the original position
// were consumed, which for a name that is a bare pointer is always 2.
//
// # Record Types
//
// Four record types are interpreted:
//   - PTR (12): service type -> service instance name
//   - SRV (33): instance -> priority, weight, port, target host
//   - TXT (16): instance -> key/value properties
//   - A (1):    host -> IPv4 address
//
// Any other type is kept as opaque bytes. The decoder always advances by the
// declared rdlength, so unknown records never desynchronise the records that
// follow them.
//
// # Usage Example - Encoding
//
//	query, err := protocol.EncodeQuery("_smart_ip._tcp")
//	if err != nil {
//	    return err
//	}
//	conn.WriteTo(query, groupAddr)
//
// # Usage Example - Decoding
//
//	msg, err := protocol.DecodeMessage(datagram)
//	if err != nil {
//	    // malformed datagram, drop it
//	}
//	for _, rec := range msg.Records {
//	    if target, ok := rec.PTR(); ok {
//	        fmt.Println("instance:", target)
//	    }
//	}
package protocol
