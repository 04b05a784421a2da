package services

import (
	"errors"
)

type ErrorCode string

const (
	ErrorInvalid         ErrorCode = "invalid"
	ErrorForbidden       ErrorCode = "forbidden"
	ErrorNotFound        ErrorCode = "not_found"
	ErrorConflict        ErrorCode = "conflict"
	ErrorUnauthorized    ErrorCode = "unauthorized"
	ErrorBadGateway      ErrorCode = "bad_gateway"
	ErrorTooManyRequests ErrorCode = "too_many_requests"
)

// ServiceError is the error type returned across the service layer. Fields holds
// per-field messages keyed the same way as a ValidationResult.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error   { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &ServiceError{Code: ErrorForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewConflictError(msg string) error  { return &ServiceError{Code: ErrorConflict, Message: msg} }
func NewUnauthorizedError(msg string) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg}
}

func NewBadGatewayError(msg string) error { return &ServiceError{Code: ErrorBadGateway, Message: msg} }

func NewTooManyRequestsError(msg string) error {
	return &ServiceError{Code: ErrorTooManyRequests, Message: msg}
}

// NewFieldError reports field-level failures under an overall message.
func NewFieldError(msg string, fields map[string]string) error {
	return &ServiceError{Code: ErrorInvalid, Message: msg, Fields: fields}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// FieldErrors returns the per-field messages carried by err, if any.
func FieldErrors(err error) map[string]string {
	if se, ok := AsServiceError(err); ok {
		return se.Fields
	}
	return nil
}

// IsCode reports whether err is a ServiceError with the given code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := AsServiceError(err)
	return ok && se.Code == code
}

var (
	// ErrSurveyClosed is returned when a respondent submits to an inactive or expired survey.
	ErrSurveyClosed = errors.New("survey is closed")
	// ErrQuestionsLocked is returned when a structural edit targets a survey with responses.
	ErrQuestionsLocked = errors.New("questions are locked because the survey already has responses")
	// ErrSuperseded marks a session operation whose result was discarded for a newer one.
	ErrSuperseded error = &ServiceError{Code: ErrorConflict, Message: "superseded by a newer session operation"}
)
