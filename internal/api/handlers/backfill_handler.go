package handlers

import (
	"context"
	"net/http"

	"github.com/formbricks/feedback-pulse/internal/api/response"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// BackfillService re-indexes every stored record.
type BackfillService interface {
	BackfillAll(ctx context.Context) (*models.BackfillResult, error)
}

// BackfillHandler handles POST /api/backfill-embeddings.
type BackfillHandler struct {
	service BackfillService
}

// NewBackfillHandler creates a new backfill handler.
func NewBackfillHandler(service BackfillService) *BackfillHandler {
	return &BackfillHandler{service: service}
}

// Backfill runs synchronously; per-record failures are counted in the body, only a failure to
// list the records is a 500.
func (h *BackfillHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.BackfillAll(r.Context())
	if err != nil {
		response.RespondServiceError(w, err, "Backfill failed")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
