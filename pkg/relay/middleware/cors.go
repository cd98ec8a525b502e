package middleware

import (
	"net/http"
)

// CORS header values sent on every relay response.
const (
	AllowedMethods = "POST, OPTIONS"
	AllowedHeaders = "Content-Type, Authorization"
)

// CORSMiddleware sets the relay's CORS headers on every response and
// answers OPTIONS preflight requests with 204 and an empty body.
//
// allowedOrigin is sent verbatim as Access-Control-Allow-Origin; an empty
// value means "*". A specific origin also adds "Vary: Origin" so shared
// caches do not serve one origin's response to another.
//
// Example usage:
//
//	handler = CORSMiddleware(cfg.CORS.AllowedOrigin)(handler)
func CORSMiddleware(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			SetCORSHeaders(w.Header(), allowedOrigin)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetCORSHeaders writes the relay's CORS headers into h.
func SetCORSHeaders(h http.Header, allowedOrigin string) {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	h.Set("Access-Control-Allow-Origin", allowedOrigin)
	h.Set("Access-Control-Allow-Methods", AllowedMethods)
	h.Set("Access-Control-Allow-Headers", AllowedHeaders)
	if allowedOrigin != "*" {
		h.Add("Vary", "Origin")
	}
}
