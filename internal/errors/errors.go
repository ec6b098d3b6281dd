// Package errors defines the typed error taxonomy shared by the API
// client, sanitizer, migrator and batch driver.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ConfigError signals invalid or missing configuration, detected before
// any network call is made.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "config error: " + e.Message }

// NewConfigError builds a ConfigError.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// TransportError wraps a transport failure that survived all retries:
// connection refused, TLS failure, or repeated timeouts.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HttpError is a non-retriable HTTP response from the server.
type HttpError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("http error: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NotFoundError specializes HttpError for a 404 the caller treats as
// signal rather than failure (e.g. a zone-existence probe).
type NotFoundError struct {
	*HttpError
}

// ValidationError reports a structural impossibility the sanitizer's
// auto-fix options could not repair, e.g. a duplicate (name, type) pair
// surviving CNAME-conflict resolution.
type ValidationError struct {
	Zone    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in zone %q: %s", e.Zone, e.Message)
}

// ConflictError reports a target-side rejection (409/422). RRSetName and
// RRSetType name the offending record set when they are set; the API
// client's classification of 409/422 responses does not fill them in,
// so they are empty on the errors it returns.
type ConflictError struct {
	*HttpError
	RRSetName string
	RRSetType string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict applying %s %s: %s", e.RRSetName, e.RRSetType, e.HttpError.Error())
}

// CancelledError reports an operation aborted by an external signal or
// by the batch driver's stop-on-error policy.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string { return "cancelled: " + e.Reason }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsCancelled reports whether err is (or wraps) a CancelledError.
func IsCancelled(err error) bool {
	var ce *CancelledError
	return stderrors.As(err, &ce)
}

// Kind classifies an error for summary reporting, independent of the Go type.
type Kind string

const (
	KindConfig     Kind = "config"
	KindTransport  Kind = "transport"
	KindHTTP       Kind = "http"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCancelled  Kind = "cancelled"
	KindUnknown    Kind = "unknown"
)

// KindOf classifies err by its concrete type.
func KindOf(err error) Kind {
	switch err.(type) {
	case *ConfigError:
		return KindConfig
	case *TransportError:
		return KindTransport
	case *NotFoundError:
		return KindNotFound
	case *ConflictError:
		return KindConflict
	case *HttpError:
		return KindHTTP
	case *ValidationError:
		return KindValidation
	case *CancelledError:
		return KindCancelled
	default:
		return KindUnknown
	}
}
