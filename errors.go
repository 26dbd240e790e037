package linguagw

import (
	"errors"
	"fmt"
)

// ValidationError reports a user-correctable request problem (length or
// count limits exceeded, empty input).
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

// NotFoundError reports a reference to an unknown resource (glossary id).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// UpstreamError reports a failed or timed-out collaborator call. The
// underlying error is preserved for reporting; it is never retried.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("translation failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Errorf helpers keep call sites in the service terse.

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
