// Package apierror defines the error envelopes every non-2xx response uses.
// Handlers never serialize raw errors to clients; internal detail (SQL text,
// stack traces) stays in the logs.
package apierror

// APIError is the single-message envelope.
type APIError struct {
	Detail string `json:"detail"`
}

func New(detail string) *APIError {
	return &APIError{Detail: detail}
}

// ValidationError carries one message per failing field, keyed by the JSON
// field name the client sent.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}
