package myerrors

import (
	"errors"
	"fmt"
)

var (
	ErrDBConnClosed    = errors.New("failed to connect to db")
	ErrDBConnClosedMsg = errors.New("internal error, please try again later")

	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrOtpMismatch  = errors.New("otp mismatch")
	ErrUpstream     = errors.New("upstream failure")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns an error carrying a user facing message that still matches
// kind with errors.Is.
func New(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Public returns the text that may be shown to a client. Upstream and
// unclassified failures collapse into a generic message.
func Public(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidState, ErrOtpMismatch, ErrForbidden, ErrUnauthorized, ErrValidation, ErrConflict} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ErrDBConnClosedMsg.Error()
}
