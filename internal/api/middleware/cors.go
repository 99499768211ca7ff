package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows any origin to call the API with GET and POST. Every OPTIONS request, preflight or
// not, ends here with an empty 200 so browsers never see the mux's 405. rs/cors only answers requests
// carrying an Origin header; the rest still get a wildcard Access-Control-Allow-Origin.
func CORS(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:     []string{requestIDHeader},
		OptionsPassthrough: true,
	})

	return c.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Access-Control-Allow-Origin") == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)

			return
		}

		next.ServeHTTP(w, r)
	}))
}
