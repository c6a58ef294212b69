package sim

import (
	"errors"
	"fmt"
)

// Kind categorizes kernel errors.
type Kind string

const (
	// KindStore is any backend error (open, migrate, read, write).
	KindStore Kind = "STORE"

	// KindSerialization is a failure to encode or decode an event payload.
	KindSerialization Kind = "SERIALIZATION"

	// KindConfiguration is missing, malformed, or out-of-range config.
	KindConfiguration Kind = "CONFIGURATION"

	// KindCommand is a malformed player command or unknown IPC request type.
	KindCommand Kind = "COMMAND"

	// KindInvariant is a violated kernel invariant. Recoverable only by
	// aborting the run.
	KindInvariant Kind = "INVARIANT"

	// KindSubsystem wraps a failure inside a registered subsystem.
	KindSubsystem Kind = "SUBSYSTEM"
)

// Error is the single error type of the kernel. Subsystem errors carry the
// subsystem name; all variants may wrap an underlying cause.
type Error struct {
	Kind      Kind
	Message   string
	Subsystem string
	Cause     error
}

func (e *Error) Error() string {
	switch {
	case e.Subsystem != "" && e.Cause != nil:
		return fmt.Sprintf("%s: subsystem %q: %s: %v", e.Kind, e.Subsystem, e.Message, e.Cause)
	case e.Subsystem != "":
		return fmt.Sprintf("%s: subsystem %q: %s", e.Kind, e.Subsystem, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality so callers can match with errors.Is against the
// exported sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// ErrTickWhilePaused is returned by Engine.Tick when the clock is paused.
var ErrTickWhilePaused = &Error{Kind: KindInvariant, Message: "tick() called on paused engine"}

// StoreErr wraps a backend error.
func StoreErr(msg string, cause error) *Error {
	return &Error{Kind: KindStore, Message: msg, Cause: cause}
}

// SerializationErr wraps an encode/decode failure.
func SerializationErr(msg string, cause error) *Error {
	return &Error{Kind: KindSerialization, Message: msg, Cause: cause}
}

// ConfigErr wraps a configuration failure.
func ConfigErr(msg string, cause error) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Cause: cause}
}

// InvalidConfig reports an out-of-range or inconsistent config value.
func InvalidConfig(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// CommandErr reports a malformed player command or IPC request.
func CommandErr(msg string, cause error) *Error {
	return &Error{Kind: KindCommand, Message: msg, Cause: cause}
}

// InvariantErr reports a violated kernel invariant.
func InvariantErr(msg string) *Error {
	return &Error{Kind: KindInvariant, Message: msg}
}

// SubsystemErr wraps a failure from a named subsystem.
func SubsystemErr(name string, cause error) *Error {
	return &Error{Kind: KindSubsystem, Subsystem: name, Message: "update failed", Cause: cause}
}

// IsKind reports whether err is (or wraps) a kernel Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
