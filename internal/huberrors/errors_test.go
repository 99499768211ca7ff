package huberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewNotFoundError("feedback", "feedback 7 not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "lookup: feedback 7 not found", err.Error())
	assert.Equal(t, "feedback not found", NewNotFoundError("feedback", "").Error())
	assert.Equal(t, "resource not found", (&NotFoundError{}).Error())
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("create: %w", NewValidationError("message", "message must not be blank"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "create: message must not be blank", err.Error())
	assert.Equal(t, "message is invalid", NewValidationError("message", "").Error())
	assert.Equal(t, "validation error", (&ValidationError{}).Error())
}

func TestEmbeddingError(t *testing.T) {
	cause := errors.New("rate limited")
	err := fmt.Errorf("embed: %w", NewEmbeddingError("openai", cause))

	assert.ErrorIs(t, err, ErrEmbedding)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Equal(t, "embed: openai embedding failed: rate limited", err.Error())
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("qdrant", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "qdrant call failed: connection refused", err.Error())
	assert.Equal(t, "upstream call failed", (&UpstreamError{}).Error())
}
