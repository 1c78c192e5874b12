package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/reefcloud/reefctl/faults"
)

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string, cause error) error {
	return faults.NewTypedError(faults.NotFoundError, message, cause)
}

func conflictError(message string, cause error) error {
	return faults.NewTypedError(faults.ConflictError, message, cause)
}

func authError(message string, cause error) error {
	return faults.NewTypedError(faults.AuthError, message, cause)
}

func transportError(message string, cause error) error {
	return faults.NewTypedError(faults.TransportError, message, cause)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}

// apiErrorEnvelope is the backend's error body:
//
//	{"error": {"type": "validation_error", "message": "...",
//	           "fields": [{"attribute": "credentials.username", "detail": "..."}]}}
type apiErrorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Fields  []apiFieldError `json:"fields,omitempty"`
}

type apiFieldError struct {
	Attribute string `json:"attribute"`
	Detail    string `json:"detail"`
}

// classifyStatusError maps an HTTP failure onto the faults taxonomy. Field
// details survive only for validation errors; everything else is a single
// banner-grade message.
func classifyStatusError(statusCode int, body []byte) error {
	parsed := parseAPIError(body)

	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		message = fmt.Sprintf("remote returned status %d", statusCode)
	}

	switch {
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		if parsed.Type == "validation_error" || len(parsed.Fields) > 0 {
			fields := make([]faults.FieldError, 0, len(parsed.Fields))
			for _, field := range parsed.Fields {
				fields = append(fields, faults.FieldError{
					Attribute: field.Attribute,
					Detail:    field.Detail,
				})
			}
			return faults.NewFieldValidationError(message, fields)
		}
		return faults.NewTypedError(faults.ClientError, message, nil)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return authError(message, nil)
	case statusCode == http.StatusNotFound:
		return notFoundError(message, nil)
	case statusCode == http.StatusConflict:
		return conflictError(message, nil)
	case statusCode >= http.StatusInternalServerError:
		return faults.NewTypedError(faults.ServerError, message, nil)
	default:
		return faults.NewTypedError(faults.ClientError, message, nil)
	}
}

func isTypedNotFound(err error) bool {
	return faults.IsCategory(err, faults.NotFoundError)
}

func parseAPIError(body []byte) apiError {
	if len(body) == 0 {
		return apiError{}
	}
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiError{}
	}
	return envelope.Error
}
