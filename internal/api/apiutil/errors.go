package apiutil

import (
	"fmt"
	"net/http"
)

// Stable rejection reasons. Clients and tests assert on these, not on the
// free-text message or HTTP status.
const (
	ReasonNotFound          = "not found"
	ReasonForbidden         = "forbidden"
	ReasonValidation        = "validation"
	ReasonInternal          = "internal"
	ReasonFacilityNotOpen   = "facility not open"
	ReasonCapacityExceeded  = "capacity exceeded"
	ReasonOutsideHours      = "outside operating hours"
	ReasonTimeConflict      = "time conflict"
	ReasonAlreadyCancelled  = "already cancelled"
	ReasonInvalidTransition = "invalid transition"
	ReasonDuplicate         = "duplicate"
	ReasonEventFull         = "event full"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// RequestError is a business outcome carried as an error value: expected
// rejections (not found, forbidden, conflicts) travel through it without ever
// reaching error-level logs.
type RequestError struct {
	Status  int
	Reason  string
	Message string
	Err     error
}

func (e RequestError) Error() string {
	return e.Message
}

func (e RequestError) Unwrap() error {
	return e.Err
}

func NotFound(message string) RequestError {
	return RequestError{Status: http.StatusNotFound, Reason: ReasonNotFound, Message: message}
}

func Forbidden(message string) RequestError {
	return RequestError{Status: http.StatusForbidden, Reason: ReasonForbidden, Message: message}
}

func Conflict(reason, message string) RequestError {
	return RequestError{Status: http.StatusConflict, Reason: reason, Message: message}
}

func Invalid(message string) RequestError {
	return RequestError{Status: http.StatusBadRequest, Reason: ReasonValidation, Message: message}
}

func Internal(message string, err error) RequestError {
	return RequestError{Status: http.StatusInternalServerError, Reason: ReasonInternal, Message: message, Err: err}
}
