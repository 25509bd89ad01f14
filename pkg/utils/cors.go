package utils

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
)

// WithCORS lets the browser dashboard call the api from another origin.
func WithCORS(h http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
}

// WithAccessLog writes one Apache common log line per request to out.
func WithAccessLog(out io.Writer, h http.Handler) http.Handler {
	return handlers.LoggingHandler(out, h)
}
