package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/formbricks/feedback-pulse/internal/api/response"
)

// RequestBodyTooLargeRecorder is notified for every request rejected with 413. May be nil.
type RequestBodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody caps request bodies at maxBytes. When a POST handler reads past the cap, whatever it
// wrote is discarded and the client gets 413 instead. maxBytes <= 0 disables the limit.
func MaxBody(maxBytes int64, recorder RequestBodyTooLargeRecorder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)

				return
			}

			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes)}
			r.Body = body

			buf := &responseBuffer{ResponseWriter: w}
			next.ServeHTTP(buf, r)

			if body.exceeded {
				if recorder != nil {
					recorder.RecordRequestBodyTooLarge(r.Context())
				}

				response.RespondError(w, http.StatusRequestEntityTooLarge,
					"Request Entity Too Large", "request body exceeds maximum allowed size")

				return
			}

			buf.flush()
		})
	}
}

// limitedBody remembers whether the MaxBytesReader tripped.
type limitedBody struct {
	io.ReadCloser

	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		b.exceeded = true
	}

	return n, err //nolint:wrapcheck // io.EOF must reach the decoder unwrapped
}

// responseBuffer holds the handler's response until the body limit verdict is known.
type responseBuffer struct {
	http.ResponseWriter

	status int
	buf    bytes.Buffer
}

func (b *responseBuffer) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (b *responseBuffer) flush() {
	if b.status != 0 {
		b.ResponseWriter.WriteHeader(b.status)
	}

	_, _ = b.buf.WriteTo(b.ResponseWriter)
}
