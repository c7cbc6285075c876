package core

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidAddress   = errors.New("invalid ethereum address")
	ErrMalformedMessage = errors.New("malformed siwe message")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrSessionNotFound  = errors.New("session not found or expired")
	ErrUserNotFound     = errors.New("user not found")
	ErrKYCNotApproved   = errors.New("kyc not approved")
	ErrNonceReused      = errors.New("nonce already used")
	ErrInvalidTicket    = errors.New("invalid nonce ticket")
	ErrStore            = errors.New("store operation failed")
)

// Kind names a class of API error. The string doubles as the response code.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindUnauthorized Kind = "UnauthorizedError"
	KindNotFound     Kind = "NotFoundError"
	KindConflict     Kind = "ConflictError"
	KindInternal     Kind = "InternalServerError"
)

// Status returns the HTTP status associated with the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error shape rendered to API clients.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error // Underlying cause, logged but never rendered
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error.
func (e *Error) Status() int { return e.Kind.Status() }

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func Validation(message string, cause error) *Error {
	return newError(KindValidation, message, cause)
}

func Unauthorized(message string, cause error) *Error {
	return newError(KindUnauthorized, message, cause)
}

func NotFound(message string, cause error) *Error {
	return newError(KindNotFound, message, cause)
}

func Conflict(message string, cause error) *Error {
	return newError(KindConflict, message, cause)
}

func Internal(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// AsError converts any error to an *Error. Sentinels from this package map to
// their kind; anything unknown becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return Validation("Invalid Ethereum address", err)
	case errors.Is(err, ErrMalformedMessage), errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrNonceReused), errors.Is(err, ErrInvalidTicket):
		return Unauthorized("Invalid SIWE message or signature", err)
	case errors.Is(err, ErrSessionNotFound):
		return Unauthorized("Unauthorized", err)
	case errors.Is(err, ErrUserNotFound):
		return NotFound("User not found", err)
	case errors.Is(err, ErrKYCNotApproved):
		return Conflict("KYC must be approved before completing onboarding", err)
	default:
		return Internal("Internal server error", err)
	}
}
