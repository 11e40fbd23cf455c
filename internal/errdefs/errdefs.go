// internal/errdefs/errdefs.go
// Package errdefs classifies the failures that cross package boundaries in
// pythia. Callers wrap errors with a Kind at the point where the class is
// known (a 401 from the platform, a bad config file, an empty query) and
// boundaries decide how to report them without string matching.
package errdefs

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// KindUnknown marks errors that carry no classification.
	KindUnknown Kind = iota
	// KindConfiguration covers missing or malformed configuration, both the
	// application config and persisted corpus records.
	KindConfiguration
	// KindAuthentication covers rejected or unreadable credentials.
	KindAuthentication
	// KindRemoteService covers managed-service rejections and transport
	// failures other than authentication.
	KindRemoteService
	// KindValidation covers invalid user input caught before any remote call.
	KindValidation
	// KindPersistence covers local database and logging write failures.
	KindPersistence
)

// String returns the lowercase label for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindRemoteService:
		return "remote service"
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error attaches a Kind to an underlying error. The message and any wrapped
// cause live in Err so %w chains behave exactly as with fmt.Errorf.
type Error struct {
	Kind Kind
	Err  error
}

// Error returns the underlying error text.
func (e *Error) Error() string { return e.Err.Error() }

// Unwrap exposes the underlying error for errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Configuration builds a configuration error. The format accepts %w.
func Configuration(format string, args ...any) error {
	return newError(KindConfiguration, format, args...)
}

// Authentication builds an authentication error. The format accepts %w.
func Authentication(format string, args ...any) error {
	return newError(KindAuthentication, format, args...)
}

// RemoteService builds a remote-service error. The format accepts %w.
func RemoteService(format string, args ...any) error {
	return newError(KindRemoteService, format, args...)
}

// Validation builds an input-validation error. The format accepts %w.
func Validation(format string, args ...any) error {
	return newError(KindValidation, format, args...)
}

// Persistence builds a persistence error. The format accepts %w.
func Persistence(format string, args ...any) error {
	return newError(KindPersistence, format, args...)
}

// KindOf returns the kind of the first classified error in the chain, or
// KindUnknown when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConfiguration reports whether the chain carries KindConfiguration.
func IsConfiguration(err error) bool { return KindOf(err) == KindConfiguration }

// IsAuthentication reports whether the chain carries KindAuthentication.
func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

// IsRemoteService reports whether the chain carries KindRemoteService.
func IsRemoteService(err error) bool { return KindOf(err) == KindRemoteService }

// IsValidation reports whether the chain carries KindValidation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsPersistence reports whether the chain carries KindPersistence.
func IsPersistence(err error) bool { return KindOf(err) == KindPersistence }
