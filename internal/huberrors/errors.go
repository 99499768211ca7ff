// Package huberrors defines the error kinds the HTTP layer maps to status codes.
// Each kind has a zero-value sentinel (ErrNotFound, ...) for errors.Is checks.
package huberrors

// ErrNotFound matches any *NotFoundError.
var ErrNotFound = &NotFoundError{}

// NotFoundError reports that a feedback record (or other resource) does not exist. Maps to 404.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError builds a NotFoundError. An empty message falls back to "<resource> not found".
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

func (e *NotFoundError) Error() string {
	return orDefault(e.Message, orDefault(e.Resource, "resource")+" not found")
}

// Is matches any *NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation matches any *ValidationError.
var ErrValidation = &ValidationError{}

// ValidationError reports client input the service layer refuses after struct validation passed. Maps to 400.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return orDefault(e.Message, "validation error")
	}

	return orDefault(e.Message, e.Field+" is invalid")
}

// Is matches any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrEmbedding matches any *EmbeddingError.
var ErrEmbedding = &EmbeddingError{}

// EmbeddingError wraps a failed or malformed embedding call. Maps to 500.
type EmbeddingError struct {
	Provider string
	Err      error
}

// NewEmbeddingError wraps err as an EmbeddingError for provider.
func NewEmbeddingError(provider string, err error) *EmbeddingError {
	return &EmbeddingError{Provider: provider, Err: err}
}

func (e *EmbeddingError) Error() string {
	msg := "embedding failed"
	if e.Provider != "" {
		msg = e.Provider + " " + msg
	}

	return withCause(msg, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// Is matches any *EmbeddingError.
func (e *EmbeddingError) Is(target error) bool {
	_, ok := target.(*EmbeddingError)

	return ok
}

// ErrUpstream matches any *UpstreamError.
var ErrUpstream = &UpstreamError{}

// UpstreamError wraps a failed call to completion, the vector index or the alert webhook. Maps to 500.
type UpstreamError struct {
	Service string
	Err     error
}

// NewUpstreamError wraps err as an UpstreamError for service.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

func (e *UpstreamError) Error() string {
	msg := "upstream call failed"
	if e.Service != "" {
		msg = e.Service + " call failed"
	}

	return withCause(msg, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches any *UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	_, ok := target.(*UpstreamError)

	return ok
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}

	return fallback
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}

	return msg + ": " + cause.Error()
}
