package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// quietPaths are polled by orchestrators and scrapers and log at debug.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// LoggingMiddleware writes one access line per request and stores a
// request-scoped logger, tagged with the request ID, in the context.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware.
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Wrap logs the request after next returns. 5xx responses log at error
// and 4xx at warn.
func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := m.logger.With().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Logger().
			WithContext(r.Context())
		// Handlers further down annotate this instance, see annotateClient.
		reqLogger := zerolog.Ctx(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		var event *zerolog.Event
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = reqLogger.Error()
		case rec.status >= http.StatusBadRequest:
			event = reqLogger.Warn()
		case quietPaths[r.URL.Path]:
			event = reqLogger.Debug()
		default:
			event = reqLogger.Info()
		}

		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			event = event.Str("route", rctx.RoutePattern())
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("request completed")
	})
}

// annotateClient adds client_id to the request logger so the access line
// names the account holder.
func annotateClient(ctx context.Context, clientID string) {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return
	}
	l.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("client_id", clientID)
	})
}

type statusRecorder struct {
	http.ResponseWriter

	status      int
	bytes       int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
