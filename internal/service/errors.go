package service

import "fmt"

// APIError is a domain error carrying the envelope fields handlers
// return to clients.
type APIError struct {
	Status     string
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Status, e.StatusCode, e.Message)
}

func newAPIError(status, message string, code int) *APIError {
	return &APIError{Status: status, Message: message, StatusCode: code}
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors is a validation failure reported as a list of per-field
// problems. It never reaches clients as anything but the errors list.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s: %s", e[0].Field, e[0].Message)
}
