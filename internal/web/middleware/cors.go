package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORS allows browser calls from the listed origins. Entries may use one
// wildcard ("https://*.example.com"); a "*" entry allows any origin and the
// request's own origin is echoed back so credentials keep working. Requests
// from other origins get no CORS headers, so the browser blocks them; the
// request itself still reaches the handler.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Job-ID", "X-Documents", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           600,
	}

	switch {
	case slices.Contains(allowedOrigins, "*"):
		opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
	case len(allowedOrigins) == 0:
		// An empty list would mean "any origin" to cors.
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	default:
		opts.AllowedOrigins = allowedOrigins
	}
	return cors.Handler(opts)
}
