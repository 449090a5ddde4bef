package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse   Phase = "parse"   // class bytes to model
	PhaseEncode  Phase = "encode"  // model to class bytes
	PhaseMatch   Phase = "match"   // prologue detection
	PhaseReplay  Phase = "replay"  // deferred emission
	PhaseRewrite Phase = "rewrite" // strategy application
	PhaseLink    Phase = "link"    // call-site resolution
	PhaseConfig  Phase = "config"  // configuration loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindSequencing   Kind = "sequencing"
	KindUnsupported  Kind = "unsupported"
	KindNotFound     Kind = "not_found"
	KindOutOfBounds  Kind = "out_of_bounds"
	KindOverflow     Kind = "overflow"
	KindInvalidInput Kind = "invalid_input"
	KindDenied       Kind = "denied"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string
	Method string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Class != "" || e.Method != "" {
		b.WriteString(": ")
		switch {
		case e.Class != "" && e.Method != "":
			b.WriteString(e.Class)
			b.WriteByte('.')
			b.WriteString(e.Method)
		case e.Class != "":
			b.WriteString(e.Class)
		default:
			b.WriteString(e.Method)
		}
	}

	if e.Detail != "" {
		if e.Class != "" || e.Method != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Class sets the internal class name
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
	return b
}

// Method sets the method name
func (b *Builder) Method(name string) *Builder {
	b.err.Method = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Structural creates an error for input that is malformed or cannot be re-encoded.
// Structural errors are fatal for the class being processed.
func Structural(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidData).Detail(detail, args...).Build()
}

// UnsupportedShape creates an error for a method whose shape cannot carry a prologue,
// such as a native or abstract method.
func UnsupportedShape(class, method, detail string) *Error {
	return &Error{
		Phase:  PhaseRewrite,
		Kind:   KindUnsupported,
		Class:  class,
		Method: method,
		Detail: detail,
	}
}

// Sequencing creates an error describing a protocol misuse. Callers panic with it.
func Sequencing(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSequencing,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, limit string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: fmt.Sprintf("value %v overflows %s", value, limit),
		Value:  value,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Denied creates an error for a caller that is not entitled to run a checked method.
func Denied(caller, method string) *Error {
	return &Error{
		Phase:  PhaseLink,
		Kind:   KindDenied,
		Class:  caller,
		Method: method,
		Detail: "caller is not entitled",
	}
}

// IsStructural reports whether err is, or wraps, an invalid_data error of any phase.
func IsStructural(err error) bool {
	return hasKind(err, KindInvalidData)
}

// IsUnsupportedShape reports whether err is, or wraps, an unsupported method shape error.
func IsUnsupportedShape(err error) bool {
	return hasKind(err, KindUnsupported)
}

// IsSequencing reports whether err is, or wraps, a sequencing error.
func IsSequencing(err error) bool {
	return hasKind(err, KindSequencing)
}

// IsDenied reports whether err is, or wraps, an entitlement denial.
func IsDenied(err error) bool {
	return hasKind(err, KindDenied)
}

// IsNotFound reports whether err is, or wraps, a not_found error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
