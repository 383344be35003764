// Package interrors defines the error kinds and panic-handler contract
// shared by every backend's pre_init/cli/configure/init lifecycle (§7).
package interrors

import "fmt"

// Kind classifies an error the way the backend loading contract
// distinguishes them: by how the host must react, not by Go type.
type Kind int

const (
	// KindConfiguration covers invalid mode, operator, sparsity,
	// precision, or numeric CLI/config argument.
	KindConfiguration Kind = iota
	// KindRange covers virtual precision or exponent range outside the
	// type's representable bounds.
	KindRange
	// KindInternal covers an invariant violation such as an unknown
	// operator code reaching a dispatch switch.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindRange:
		return "range"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the error type returned from pre_init/cli/configure. Range and
// configuration errors are fatal to the host per the loading contract;
// callers are expected to log and terminate rather than recover.
type Error struct {
	Kind    Kind
	Backend string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s backend: %s: %s", e.Kind, e.Backend, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s backend: %s", e.Kind, e.Backend, e.Message)
}

// Configuration builds a KindConfiguration error.
func Configuration(backend, field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Backend: backend, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Range builds a KindRange error.
func Range(backend, field, format string, args ...interface{}) *Error {
	return &Error{Kind: KindRange, Backend: backend, Field: field, Message: fmt.Sprintf(format, args...)}
}

// PanicHandler is the caller-registered handler invoked on an internal
// invariant violation (§5, §7): unrecoverable, terminates the process.
// pre_init registers one per backend context; a conforming
// implementation never calls it for configuration or range errors.
type PanicHandler func(backend string, err error)

// DefaultPanicHandler panics with a KindInternal error, matching the
// "unrecoverable panic" contract when no host handler is registered.
func DefaultPanicHandler(backend string, err error) {
	panic(&Error{Kind: KindInternal, Backend: backend, Message: err.Error()})
}

// Invariant builds a KindInternal error and reports it through handler,
// or DefaultPanicHandler if handler is nil.
func Invariant(handler PanicHandler, backend, format string, args ...interface{}) {
	err := &Error{Kind: KindInternal, Backend: backend, Message: fmt.Sprintf(format, args...)}
	if handler == nil {
		handler = DefaultPanicHandler
	}
	handler(backend, err)
}
