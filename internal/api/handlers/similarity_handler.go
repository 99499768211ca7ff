package handlers

import (
	"context"
	"net/http"

	"github.com/formbricks/feedback-pulse/internal/api/response"
	"github.com/formbricks/feedback-pulse/internal/api/validation"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// SimilarityService finds records semantically close to a stored one.
type SimilarityService interface {
	FindSimilar(ctx context.Context, feedbackID int64) (*models.SimilarFeedbackResult, error)
}

// SimilarityHandler handles GET /api/similar-feedback.
type SimilarityHandler struct {
	service SimilarityService
}

// NewSimilarityHandler creates a new similarity handler.
func NewSimilarityHandler(service SimilarityService) *SimilarityHandler {
	return &SimilarityHandler{service: service}
}

// Similar handles GET /api/similar-feedback?id=.
// 400 for a missing or non-numeric id, 404 when the record does not exist, 500 when the
// embedding provider or the vector index fails.
func (h *SimilarityHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var query models.SimilarFeedbackQuery
	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	id, err := parseFeedbackID(query.ID)
	if err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	result, err := h.service.FindSimilar(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to find similar feedback")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
