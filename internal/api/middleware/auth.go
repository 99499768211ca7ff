package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/formbricks/feedback-pulse/internal/api/response"
)

// UnauthorizedRecorder counts rejected admin requests. Implemented by observability.APIMetrics.
type UnauthorizedRecorder interface {
	RecordUnauthorized(ctx context.Context)
}

// AdminKey guards admin endpoints with a static bearer key. An empty key disables the check.
// recorder may be nil.
func AdminKey(key string, recorder UnauthorizedRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}

		reject := func(w http.ResponseWriter, r *http.Request, detail string) {
			if recorder != nil {
				recorder.RecordUnauthorized(r.Context())
			}

			response.RespondUnauthorized(w, detail)
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, r, "Missing Authorization header")

				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				reject(w, r, "Invalid Authorization header format. Expected: Bearer <admin-key>")

				return
			}

			if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(key)) != 1 {
				reject(w, r, "Invalid admin key")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
