package faults

import "errors"

type ErrorCategory string

const (
	ValidationError ErrorCategory = "ValidationError"
	NotFoundError   ErrorCategory = "NotFoundError"
	ConflictError   ErrorCategory = "ConflictError"
	AuthError       ErrorCategory = "AuthError"
	ClientError     ErrorCategory = "ClientError"
	ServerError     ErrorCategory = "ServerError"
	TransportError  ErrorCategory = "TransportError"
	InternalError   ErrorCategory = "InternalError"
)

// FieldError is one field-scoped validation detail. Attribute is a
// dot-separated path into the submitted payload, at most one nesting level
// deep (for example "credentials.username").
type FieldError struct {
	Attribute string
	Detail    string
}

type TypedError struct {
	Category ErrorCategory
	Message  string
	Fields   []FieldError
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

// NewFieldValidationError builds a validation error carrying field-scoped
// details. The fields slice keeps submission order so callers can focus the
// first erroring field.
func NewFieldValidationError(message string, fields []FieldError) *TypedError {
	return &TypedError{
		Category: ValidationError,
		Message:  message,
		Fields:   fields,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// FieldErrorsOf extracts field-scoped details from err, or nil when err does
// not carry any.
func FieldErrorsOf(err error) []FieldError {
	if err == nil {
		return nil
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return nil
	}
	return typedErr.Fields
}
