package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a domain error carrying its kind, code and optional metadata.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
}

// New creates an error of the given kind and code.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf is New with a formatted message.
func Newf(kind Kind, code Code, format string, args ...any) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// With returns a copy of e with the metadata key set.
func (e *Error) With(key, value string) *Error {
	cp := *e
	cp.Metadata = make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		cp.Metadata[k] = v
	}
	cp.Metadata[key] = value
	return &cp
}

func (e *Error) Error() string {
	if len(e.Metadata) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Metadata[k])
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// Is matches another *Error with the same code, so errors.Is works against
// the constructors below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// KindOf extracts the kind from any error.
// Returns KindUnknown if the error is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf extracts the code from any error.
// Returns CodeUnknown if the error is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// MetadataOf returns the metadata of a domain error, or nil.
func MetadataOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

func NotFound(code Code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

func Conflict(code Code, message string) *Error {
	return New(KindConflict, code, message)
}

func Invalid(code Code, message string) *Error {
	return New(KindInvalid, code, message)
}

func Immutable(code Code, message string) *Error {
	return New(KindImmutable, code, message)
}

// MissingRequiredField reports a field that the catch's species requires.
func MissingRequiredField(field string) *Error {
	return Invalid(CodeMissingRequiredField, "missing required field "+field).With("field", field)
}

// BookingConflict reports an overlapping confirmed booking held by memberName.
func BookingConflict(memberName string) *Error {
	return Conflict(CodeBookingConflict, "cabin is already booked for this period").With("member_name", memberName)
}
