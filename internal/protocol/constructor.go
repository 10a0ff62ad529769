package protocol

import (
	"encoding/binary"
	"strings"
)

// QueryName resolves a service name (e.g. "_smart_ip._tcp") to the fully
// qualified name that is put on the wire ("_smart_ip._tcp.local"). A
// trailing dot is dropped and a name already under the local domain is not
// suffixed twice.
func QueryName(serviceName string) string {
	name := strings.TrimSuffix(serviceName, ".")
	if name == LocalDomain || strings.HasSuffix(name, "."+LocalDomain) {
		return name
	}
	if name == "" {
		return LocalDomain
	}
	return name + "." + LocalDomain
}

// EncodeName encodes name as a sequence of length-prefixed labels terminated
// by a zero byte. No compression is applied.
//
// Returns an *EncodeError if a label is empty or longer than 63 bytes, or if
// the encoded name exceeds 255 bytes.
func EncodeName(name string) ([]byte, error) {
	trimmed := strings.TrimSuffix(name, ".")
	if trimmed == "" {
		return []byte{0}, nil
	}

	labels := strings.Split(trimmed, ".")
	out := make([]byte, 0, len(trimmed)+2)
	for _, label := range labels {
		if len(label) == 0 {
			return nil, &EncodeError{Name: name, Reason: "empty label"}
		}
		if len(label) > MaxLabelLength {
			return nil, &EncodeError{Name: name, Label: label, Reason: "label exceeds 63 bytes"}
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)

	if len(out) > MaxNameLength {
		return nil, &EncodeError{Name: name, Reason: "name exceeds 255 bytes"}
	}
	return out, nil
}

// EncodeQuery builds the discovery query for serviceName.
//
// Message Structure:
//
//	[0-11]  header     id=0, flags=0, qdcount=1, an/ns/ar=0
//	[12..]  qname      QueryName(serviceName) as labels
//	[N..N+3] footer    type=PTR(12), class=IN(1)
//
// Returns an *EncodeError if the name cannot be represented on the wire.
func EncodeQuery(serviceName string) ([]byte, error) {
	qname, err := EncodeName(QueryName(serviceName))
	if err != nil {
		return nil, err
	}

	msg := make([]byte, HeaderSize+len(qname)+QuestionFooter)
	putHeader(msg, Header{QDCount: 1})
	copy(msg[HeaderSize:], qname)

	footer := msg[HeaderSize+len(qname):]
	binary.BigEndian.PutUint16(footer[0:2], TypePTR)
	binary.BigEndian.PutUint16(footer[2:4], ClassINET)

	return msg, nil
}
