// Package trace assigns request IDs and logs every HTTP request.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"kharcha/internal/log"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

type ContextKey string

const RequestIDKey ContextKey = "request_id"

// Middleware handles request tracing and logging.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *log.Logger

	total       atomic.Int64
	totalMicros atomic.Int64
}

// Metrics is a snapshot of request counters.
type Metrics struct {
	TotalRequests       int64
	AverageResponseTime int64 // microseconds
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	return &Middleware{extractIP: extractIP, logger: logger}
}

func requestIDOf(r *http.Request) string { return GetRequestID(r.Context()) }

// Middleware reuses a sane incoming X-Request-ID or mints one, echoes it on
// the response and puts a request-scoped logger into the context.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	scoped := log.Middleware(m.logger, requestIDOf)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), RequestIDKey, requestID))

		reqLog := m.logger.With(log.FieldRequestID, requestID)
		reqLog.DebugContext(r.Context(), "HTTP request started",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP, log.FieldUserAgent, r.UserAgent())

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		scoped.ServeHTTP(rw, r)

		elapsed := time.Since(start)
		m.total.Add(1)
		m.totalMicros.Add(elapsed.Microseconds())

		reqLog.Log(r.Context(), log.StatusLevel(rw.statusCode), "HTTP request completed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode, log.FieldDuration, elapsed.Milliseconds(),
			log.FieldClientIP, clientIP)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming handlers working behind the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func GenerateRequestID() string {
	return uuid.NewString()
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	total := m.total.Load()
	var avg int64
	if total > 0 {
		avg = m.totalMicros.Load() / total
	}
	return Metrics{TotalRequests: total, AverageResponseTime: avg}
}
