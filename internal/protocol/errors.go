package protocol

import "fmt"

// EncodeError reports a name that cannot be represented on the wire
type EncodeError struct {
	Name   string // Full name being encoded
	Label  string // Offending label (empty for whole-name errors)
	Reason string
}

func (e *EncodeError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("encode %q: label %q: %s", e.Name, e.Label, e.Reason)
	}
	return fmt.Sprintf("encode %q: %s", e.Name, e.Reason)
}

// TruncatedMessageError reports a read past the end of the buffer
type TruncatedMessageError struct {
	Offset int // Where the read started
	Need   int // Bytes the read required
	Length int // Buffer length
}

func (e *TruncatedMessageError) Error() string {
	return fmt.Sprintf("truncated message: need %d bytes at offset %d, buffer has %d", e.Need, e.Offset, e.Length)
}

// DecodeError reports a malformed message. It wraps the lower-level cause,
// which may be a *TruncatedMessageError.
type DecodeError struct {
	Offset  int
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error at offset %d: %s: %v", e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// need returns a TruncatedMessageError when buf has fewer than n bytes at off
func need(buf []byte, off, n int) error {
	if off < 0 || n < 0 || off+n > len(buf) {
		return &TruncatedMessageError{Offset: off, Need: n, Length: len(buf)}
	}
	return nil
}
