package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/formbricks/feedback-pulse/internal/api/response"
	"github.com/formbricks/feedback-pulse/internal/api/validation"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// FeedbackService is the business logic behind the feedback endpoints.
type FeedbackService interface {
	CreateFeedback(ctx context.Context, req *models.CreateFeedbackRequest) (*models.FeedbackRecord, error)
	GetFeedback(ctx context.Context, id int64) (*models.FeedbackRecord, error)
	ListFeedback(ctx context.Context) (*models.ListFeedbackResponse, error)
}

// FeedbackHandler handles HTTP requests for feedback records.
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Create handles POST /api/feedback.
// Sentiment is always computed server-side; a client-supplied value is ignored.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFeedbackRequest
	if err := validation.DecodeJSON(r, &req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	record, err := h.service.CreateFeedback(r.Context(), &req)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to create feedback")

		return
	}

	response.RespondJSON(w, http.StatusCreated, models.CreateFeedbackResponse{
		Success:   true,
		ID:        record.ID,
		Sentiment: record.Sentiment,
	})
}

// List handles GET /api/feedback: all records newest first plus aggregate stats.
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListFeedback(r.Context())
	if err != nil {
		response.RespondServiceError(w, err, "Failed to list feedback")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/feedback/{id}.
func (h *FeedbackHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseFeedbackID(r.PathValue("id"))
	if err != nil {
		response.RespondBadRequest(w, err.Error())

		return
	}

	record, err := h.service.GetFeedback(r.Context(), id)
	if err != nil {
		response.RespondServiceError(w, err, "Failed to get feedback")

		return
	}

	response.RespondJSON(w, http.StatusOK, record)
}

var (
	errMissingFeedbackID = errors.New("feedback id is required")
	errInvalidFeedbackID = errors.New("feedback id must be a positive integer")
)

func parseFeedbackID(raw string) (int64, error) {
	if raw == "" {
		return 0, errMissingFeedbackID
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidFeedbackID
	}

	return id, nil
}
