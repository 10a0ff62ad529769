package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a search failure
type ErrorType int

const (
	// ErrTypeInvalidConfig indicates the Config was rejected before any socket work
	ErrTypeInvalidConfig ErrorType = iota
	// ErrTypeBind indicates the socket could not be created or bound
	ErrTypeBind
	// ErrTypeJoin indicates the multicast group could not be joined
	ErrTypeJoin
	// ErrTypeSend indicates the query could not be transmitted
	ErrTypeSend
	// ErrTypeDecode indicates an inbound datagram was malformed
	ErrTypeDecode
	// ErrTypeTeardown indicates the socket failed to close cleanly
	ErrTypeTeardown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeInvalidConfig:
		return "Invalid Configuration"
	case ErrTypeBind:
		return "Bind Error"
	case ErrTypeJoin:
		return "Multicast Join Error"
	case ErrTypeSend:
		return "Send Error"
	case ErrTypeDecode:
		return "Decode Error"
	case ErrTypeTeardown:
		return "Teardown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Fatal reports whether errors of this type stop a search before it listens.
// Send, decode and teardown failures are logged and the search carries on.
func (et ErrorType) Fatal() bool {
	return et == ErrTypeInvalidConfig || et == ErrTypeBind || et == ErrTypeJoin
}

// SearchError represents a failure during a search
type SearchError struct {
	Type    ErrorType // Category of error
	Message string    // Human-readable error message
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SearchError) Unwrap() error {
	return e.Err
}

func newInvalidConfigError(message string, err error) *SearchError {
	return &SearchError{Type: ErrTypeInvalidConfig, Message: message, Err: err}
}

func newBindError(message string, err error) *SearchError {
	return &SearchError{Type: ErrTypeBind, Message: message, Err: err}
}

func newJoinError(message string, err error) *SearchError {
	return &SearchError{Type: ErrTypeJoin, Message: message, Err: err}
}

func newSendError(err error) *SearchError {
	return &SearchError{Type: ErrTypeSend, Message: "failed to transmit query", Err: err}
}

func newDecodeError(err error) *SearchError {
	return &SearchError{Type: ErrTypeDecode, Message: "malformed datagram dropped", Err: err}
}

func newTeardownError(err error) *SearchError {
	return &SearchError{Type: ErrTypeTeardown, Message: "failed to close socket", Err: err}
}

func errorType(err error) (ErrorType, bool) {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Type, true
	}
	return 0, false
}

// IsInvalidConfigError checks if an error is a configuration error
func IsInvalidConfigError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidConfig
}

// IsBindError checks if an error is a socket bind error
func IsBindError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeBind
}

// IsJoinError checks if an error is a multicast group join error
func IsJoinError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeJoin
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	t, ok := errorType(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch t {
	case ErrTypeInvalidConfig:
		return strings.Join([]string{
			"The search settings are invalid.",
			"Troubleshooting:",
			"  • Pick an interface with 'smartip interfaces'",
			"  • Use an IPv4 multicast group (default 224.0.0.251)",
			"  • Service names look like _smart_ip._tcp",
		}, "\n")

	case ErrTypeBind:
		return strings.Join([]string{
			"Could not open the mDNS socket.",
			"Troubleshooting:",
			"  • Check that the interface address belongs to this machine",
			"  • Another program may hold port 5353 without SO_REUSEADDR",
			"  • Binding a port below 1024 may need elevated privileges",
		}, "\n")

	case ErrTypeJoin:
		return strings.Join([]string{
			"Could not join the multicast group.",
			"Troubleshooting:",
			"  • Verify the interface is up and supports multicast",
			"  • VPN and virtual adapters often drop multicast",
			"  • Try a different interface with --interface",
		}, "\n")

	case ErrTypeSend:
		return "The query could not be sent. Check that the interface has a route to the multicast group."

	default:
		return "An error occurred. Please check the error message for details."
	}
}
