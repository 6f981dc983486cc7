package security

import (
	"net/http"
	"strings"
)

// HeadersConfig holds the headers set on every API response.
type HeadersConfig struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string
	CacheControl        string

	// AllowedOrigins enables CORS for the listed origins; "*" allows any.
	AllowedOrigins []string
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		CrossOriginResource: "same-origin",
		CacheControl:        "no-store",
	}
}

type HeadersMiddleware struct {
	config HeadersConfig
}

func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware applies the headers and answers CORS preflight requests.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
		headers.Set("X-Frame-Options", h.config.XFrameOptions)
		headers.Set("Referrer-Policy", h.config.ReferrerPolicy)
		if h.config.CacheControl != "" {
			headers.Set("Cache-Control", h.config.CacheControl)
		}

		origin := r.Header.Get("Origin")
		if origin != "" && h.allowed(origin) {
			headers.Set("Access-Control-Allow-Origin", origin)
			headers.Add("Vary", "Origin")
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				headers.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				headers.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		} else {
			headers.Set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)
		}

		next.ServeHTTP(w, r)
	})
}

func (h *HeadersMiddleware) allowed(origin string) bool {
	for _, o := range h.config.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
