package handlers

import (
	"context"
	"net/http"

	"github.com/formbricks/feedback-pulse/internal/api/response"
	"github.com/formbricks/feedback-pulse/internal/models"
)

// FeatureAnalyzer extracts the most praised and most criticised features.
type FeatureAnalyzer interface {
	AnalyzeFeatures(ctx context.Context) (*models.FeatureAnalysis, error)
}

// FeaturesHandler handles GET /api/analyze-features.
type FeaturesHandler struct {
	analyzer FeatureAnalyzer
}

// NewFeaturesHandler creates a new features handler.
func NewFeaturesHandler(analyzer FeatureAnalyzer) *FeaturesHandler {
	return &FeaturesHandler{analyzer: analyzer}
}

// Analyze handles GET /api/analyze-features.
func (h *FeaturesHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.analyzer.AnalyzeFeatures(r.Context())
	if err != nil {
		response.RespondServiceError(w, err, "Failed to analyze features")

		return
	}

	response.RespondJSON(w, http.StatusOK, analysis)
}
