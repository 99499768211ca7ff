// Package response writes JSON and RFC 7807 problem bodies.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/formbricks/feedback-pulse/internal/huberrors"
)

const problemContentType = "application/problem+json"

// ErrorDetail is one field-level entry of a problem body.
type ErrorDetail struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	Value    any    `json:"value,omitempty"`
}

// ProblemDetails is an RFC 7807 problem body.
type ProblemDetails struct {
	Type     string        `json:"type,omitempty"`
	Title    string        `json:"title"`
	Status   int           `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Instance string        `json:"instance,omitempty"`
	Errors   []ErrorDetail `json:"errors,omitempty"`
}

// RespondProblem writes a fully populated problem body.
func RespondProblem(w http.ResponseWriter, problem ProblemDetails) {
	if problem.Type == "" {
		problem.Type = "about:blank"
	}

	w.Header().Set("Content-Type", problemContentType)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondError writes an RFC 7807 problem with the given status, title and detail.
func RespondError(w http.ResponseWriter, statusCode int, title, detail string) {
	RespondProblem(w, ProblemDetails{Title: title, Status: statusCode, Detail: detail})
}

// RespondBadRequest writes a 400.
func RespondBadRequest(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusBadRequest, "Bad Request", detail)
}

// RespondUnauthorized writes a 401.
func RespondUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="feedback-pulse"`)
	RespondError(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// RespondNotFound writes a 404.
func RespondNotFound(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusNotFound, "Not Found", detail)
}

// RespondInternalServerError writes a 500.
func RespondInternalServerError(w http.ResponseWriter, detail string) {
	RespondError(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// RespondServiceError maps a service error onto a problem response: validation errors become 400,
// missing records 404, and everything else 500. Upstream and embedding failures keep their message
// as detail so callers can tell a provider outage from a bug; other failures use fallbackDetail.
func RespondServiceError(w http.ResponseWriter, err error, fallbackDetail string) {
	var (
		validationErr *huberrors.ValidationError
		notFoundErr   *huberrors.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		problem := ProblemDetails{Title: "Validation Error", Status: http.StatusBadRequest, Detail: validationErr.Error()}
		if validationErr.Field != "" {
			problem.Errors = []ErrorDetail{{Location: validationErr.Field, Message: validationErr.Error()}}
		}

		RespondProblem(w, problem)
	case errors.As(err, &notFoundErr):
		RespondNotFound(w, notFoundErr.Error())
	case errors.Is(err, huberrors.ErrEmbedding), errors.Is(err, huberrors.ErrUpstream):
		RespondError(w, http.StatusInternalServerError, "Upstream Error", err.Error())
	default:
		RespondInternalServerError(w, fallbackDetail)
	}
}

// RespondJSON writes data as a JSON body.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}
