package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RData is the type-specific payload of a record. It is implemented by
// PTRData, SRVData, TXTData, AData and OpaqueData only.
type RData interface {
	rdata()
	String() string
}

// PTRData (type 12) points a service type at a service instance
type PTRData struct {
	Target string // Service instance name
}

// SRVData (type 33) locates a service instance
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   string // Host name carrying the A records
}

// TXTData (type 16) carries key/value metadata
type TXTData struct {
	Properties TXT
}

// AData (type 1) carries an IPv4 address in dotted-decimal form
type AData struct {
	Address string
}

// OpaqueData holds the raw rdata of any other record type
type OpaqueData struct {
	Bytes []byte
}

func (PTRData) rdata()    {}
func (SRVData) rdata()    {}
func (TXTData) rdata()    {}
func (AData) rdata()      {}
func (OpaqueData) rdata() {}

func (d PTRData) String() string { return fmt.Sprintf("PTR{%s}", d.Target) }

func (d SRVData) String() string {
	return fmt.Sprintf("SRV{priority=%d, weight=%d, port=%d, target=%s}", d.Priority, d.Weight, d.Port, d.Target)
}

func (d TXTData) String() string { return fmt.Sprintf("TXT{%d entries}", len(d.Properties)) }

func (d AData) String() string { return fmt.Sprintf("A{%s}", d.Address) }

func (d OpaqueData) String() string { return fmt.Sprintf("Opaque{len=%d}", len(d.Bytes)) }

// TXTValue is one TXT property. An entry without "=" is a boolean attribute
// whose value is true; HasValue is false for those.
type TXTValue struct {
	Value    string
	HasValue bool
}

// StringValue returns a TXTValue carrying s
func StringValue(s string) TXTValue {
	return TXTValue{Value: s, HasValue: true}
}

// FlagValue returns the boolean-true TXTValue of a key without "="
func FlagValue() TXTValue {
	return TXTValue{}
}

// IsFlag reports whether the entry was a bare key
func (v TXTValue) IsFlag() bool {
	return !v.HasValue
}

func (v TXTValue) String() string {
	if !v.HasValue {
		return "true"
	}
	return v.Value
}

// MarshalJSON encodes a flag as true and anything else as a string
func (v TXTValue) MarshalJSON() ([]byte, error) {
	if !v.HasValue {
		return []byte("true"), nil
	}
	return json.Marshal(v.Value)
}

// MarshalYAML encodes a flag as true and anything else as a string
func (v TXTValue) MarshalYAML() (interface{}, error) {
	if !v.HasValue {
		return true, nil
	}
	return v.Value, nil
}

// TXT maps property keys to values
type TXT map[string]TXTValue

// Clone returns an independent copy; a nil map clones to an empty one
func (t TXT) Clone() TXT {
	out := make(TXT, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// PTR returns the instance name of a PTR record
func (r Record) PTR() (string, bool) {
	d, ok := r.Data.(PTRData)
	return d.Target, ok
}

// SRV returns the payload of an SRV record
func (r Record) SRV() (SRVData, bool) {
	d, ok := r.Data.(SRVData)
	return d, ok
}

// TXT returns the properties of a TXT record
func (r Record) TXT() (TXT, bool) {
	d, ok := r.Data.(TXTData)
	return d.Properties, ok
}

// A returns the dotted-decimal address of an A record
func (r Record) A() (string, bool) {
	d, ok := r.Data.(AData)
	return d.Address, ok
}

// Interpret returns the typed shape of r. It never fails: a record without
// decoded data is reported as an empty OpaqueData.
func Interpret(r Record) RData {
	if r.Data == nil {
		return OpaqueData{}
	}
	return r.Data
}

// decodeRData interprets rdlen bytes at off according to typ. PTR and SRV
// targets may use compression pointers into the whole message, which is why
// the full buffer is passed rather than a slice of the rdata.
func decodeRData(buf []byte, off int, typ uint16, rdlen int) (RData, error) {
	switch typ {
	case TypePTR:
		target, _, err := DecodeName(buf, off)
		if err != nil {
			return nil, err
		}
		return PTRData{Target: target}, nil

	case TypeSRV:
		if rdlen < 7 {
			return nil, &DecodeError{Offset: off, Message: fmt.Sprintf("SRV rdata too short: %d bytes (minimum 7)", rdlen)}
		}
		target, _, err := DecodeName(buf, off+6)
		if err != nil {
			return nil, err
		}
		return SRVData{
			Priority: binary.BigEndian.Uint16(buf[off : off+2]),
			Weight:   binary.BigEndian.Uint16(buf[off+2 : off+4]),
			Port:     binary.BigEndian.Uint16(buf[off+4 : off+6]),
			Target:   target,
		}, nil

	case TypeTXT:
		props, err := decodeTXT(buf[off:off+rdlen], off)
		if err != nil {
			return nil, err
		}
		return TXTData{Properties: props}, nil

	case TypeA:
		return AData{Address: dottedDecimal(buf[off : off+rdlen])}, nil

	default:
		raw := make([]byte, rdlen)
		copy(raw, buf[off:off+rdlen])
		return OpaqueData{Bytes: raw}, nil
	}
}

// decodeTXT splits the length-prefixed strings of a TXT rdata. Each string
// is split on its first "="; a string without "=" is a boolean flag. Empty
// strings are skipped and the first occurrence of a key wins (RFC 6763 §6.4).
func decodeTXT(rdata []byte, base int) (TXT, error) {
	props := make(TXT)
	for i := 0; i < len(rdata); {
		l := int(rdata[i])
		i++
		if i+l > len(rdata) {
			return nil, &DecodeError{Offset: base + i - 1, Message: "TXT string overruns rdata"}
		}
		entry := string(rdata[i : i+l])
		i += l

		if entry == "" {
			continue
		}
		key, value, hasValue := strings.Cut(entry, "=")
		if _, seen := props[key]; seen {
			continue
		}
		if hasValue {
			props[key] = StringValue(value)
		} else {
			props[key] = FlagValue()
		}
	}
	return props, nil
}

// dottedDecimal renders one component per octet present
func dottedDecimal(octets []byte) string {
	parts := make([]string, len(octets))
	for i, b := range octets {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ".")
}
