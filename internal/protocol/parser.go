package protocol

import (
	"encoding/binary"
	"strings"
)

// DecodeName reads a name starting at off.
//
// Returns the labels joined with "." and the number of bytes consumed at
// off. When the name contains a compression pointer, consumed stops right
// after the first pointer (pointer position + 2), because the pointed-to
// labels live elsewhere in the message and must not move the caller's
// cursor.
//
// Each pointer must target an offset lower than the start of the label run
// that contains it, so a pointer chain always walks backwards and ends.
func DecodeName(buf []byte, off int) (name string, consumed int, err error) {
	var labels []string
	pos := off
	runStart := off
	consumed = -1
	wireLen := 0

	for {
		if err := need(buf, pos, 1); err != nil {
			return "", 0, err
		}
		length := int(buf[pos])

		switch {
		case length == 0:
			if consumed < 0 {
				consumed = pos + 1 - off
			}
			return strings.Join(labels, "."), consumed, nil

		case length&pointerMask == pointerMask:
			if err := need(buf, pos, 2); err != nil {
				return "", 0, err
			}
			target := int(binary.BigEndian.Uint16(buf[pos:pos+2]) & 0x3FFF)
			if consumed < 0 {
				consumed = pos + 2 - off
			}
			if target >= runStart {
				return "", 0, &DecodeError{Offset: pos, Message: "compression pointer does not point backwards"}
			}
			pos = target
			runStart = target

		case length&pointerMask != 0:
			return "", 0, &DecodeError{Offset: pos, Message: "unsupported label type"}

		default:
			if err := need(buf, pos+1, length); err != nil {
				return "", 0, err
			}
			wireLen += length + 1
			if wireLen > MaxNameLength {
				return "", 0, &DecodeError{Offset: pos, Message: "name exceeds 255 bytes"}
			}
			labels = append(labels, string(buf[pos+1:pos+1+length]))
			pos += length + 1
		}
	}
}

// DecodeMessage parses a complete datagram.
//
// The header is read, the question section is skipped (qdcount entries of
// name + type + class), and then ancount+nscount+arcount records are decoded
// in order. Any failure is returned as a *DecodeError.
func DecodeMessage(buf []byte) (*Message, error) {
	if err := need(buf, 0, HeaderSize); err != nil {
		return nil, &DecodeError{Offset: 0, Message: "header", Err: err}
	}

	msg := &Message{
		Header: Header{
			ID:      binary.BigEndian.Uint16(buf[0:2]),
			Flags:   binary.BigEndian.Uint16(buf[2:4]),
			QDCount: binary.BigEndian.Uint16(buf[4:6]),
			ANCount: binary.BigEndian.Uint16(buf[6:8]),
			NSCount: binary.BigEndian.Uint16(buf[8:10]),
			ARCount: binary.BigEndian.Uint16(buf[10:12]),
		},
	}

	pos := HeaderSize
	for i := 0; i < int(msg.Header.QDCount); i++ {
		_, n, err := DecodeName(buf, pos)
		if err != nil {
			return nil, asDecodeError(err, pos, "question name")
		}
		pos += n
		if err := need(buf, pos, QuestionFooter); err != nil {
			return nil, &DecodeError{Offset: pos, Message: "question footer", Err: err}
		}
		pos += QuestionFooter
	}

	count := msg.Header.RecordCount()
	msg.Records = make([]Record, 0, count)
	for i := 0; i < count; i++ {
		rec, next, err := DecodeRecord(buf, pos)
		if err != nil {
			return nil, err
		}
		msg.Records = append(msg.Records, rec)
		pos = next
	}

	return msg, nil
}

// DecodeRecord decodes the resource record at off and returns the offset of
// the byte following it. The returned offset is always the start of rdata
// plus the declared rdlength, whatever the record type.
func DecodeRecord(buf []byte, off int) (Record, int, error) {
	name, n, err := DecodeName(buf, off)
	if err != nil {
		return Record{}, 0, asDecodeError(err, off, "record name")
	}

	pos := off + n
	if err := need(buf, pos, RecordFixed); err != nil {
		return Record{}, 0, &DecodeError{Offset: pos, Message: "record header", Err: err}
	}

	rec := Record{
		Name:        name,
		Type:        binary.BigEndian.Uint16(buf[pos : pos+2]),
		Class:       binary.BigEndian.Uint16(buf[pos+2 : pos+4]),
		TTL:         binary.BigEndian.Uint32(buf[pos+4 : pos+8]),
		RDataLength: binary.BigEndian.Uint16(buf[pos+8 : pos+10]),
	}
	pos += RecordFixed

	rdlen := int(rec.RDataLength)
	if err := need(buf, pos, rdlen); err != nil {
		return Record{}, 0, &DecodeError{Offset: pos, Message: "rdata", Err: err}
	}

	rec.Data, err = decodeRData(buf, pos, rec.Type, rdlen)
	if err != nil {
		return Record{}, 0, asDecodeError(err, pos, TypeName(rec.Type)+" rdata")
	}

	return rec, pos + rdlen, nil
}

// asDecodeError wraps err in a DecodeError unless it already is one
func asDecodeError(err error, off int, what string) error {
	if de, ok := err.(*DecodeError); ok {
		return de
	}
	return &DecodeError{Offset: off, Message: what, Err: err}
}
