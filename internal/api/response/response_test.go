package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
)

func TestRespondServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantTitle  string
		wantDetail string
		wantErrors int
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("create: %w", huberrors.NewValidationError("message", "message must not be blank")),
			wantStatus: http.StatusBadRequest,
			wantTitle:  "Validation Error",
			wantDetail: "message must not be blank",
			wantErrors: 1,
		},
		{
			name:       "not found",
			err:        huberrors.NewNotFoundError("feedback", "feedback 9 not found"),
			wantStatus: http.StatusNotFound,
			wantTitle:  "Not Found",
			wantDetail: "feedback 9 not found",
		},
		{
			name:       "embedding failure keeps cause",
			err:        huberrors.NewEmbeddingError("openai", errors.New("quota exceeded")),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Upstream Error",
			wantDetail: "openai embedding failed: quota exceeded",
		},
		{
			name:       "upstream failure keeps cause",
			err:        huberrors.NewUpstreamError("qdrant", errors.New("connection refused")),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Upstream Error",
			wantDetail: "qdrant call failed: connection refused",
		},
		{
			name:       "unknown error hides cause",
			err:        errors.New("pq: relation does not exist"),
			wantStatus: http.StatusInternalServerError,
			wantTitle:  "Internal Server Error",
			wantDetail: "Failed to list feedback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondServiceError(rec, tt.err, "Failed to list feedback")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, problemContentType, rec.Header().Get("Content-Type"))

			var problem ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, "about:blank", problem.Type)
			assert.Equal(t, tt.wantTitle, problem.Title)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantDetail, problem.Detail)
			assert.Len(t, problem.Errors, tt.wantErrors)
		})
	}
}

func TestRespondUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondUnauthorized(rec, "Invalid admin key")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]any{"success": true, "id": 4})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"id":4}`, rec.Body.String())
}
