package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. Every entry carries the service name.
// debug uses the console encoder, other levels emit JSON. Unknown level
// names fall back to info.
func NewLogger(level, service string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.InitialFields = map[string]any{"service": service}
	if lvl == zapcore.DebugLevel {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Sampling = nil
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// requestNote collects fields that inner handlers learn about a request
// (the authenticated user) for the access log line written on the way out.
type requestNote struct {
	mu     sync.Mutex
	userID string
}

type requestNoteKey struct{}

// NoteUser records the user of the current request in the access log.
// It does nothing outside RequestLogger.
func NoteUser(ctx context.Context, userID string) {
	if n, ok := ctx.Value(requestNoteKey{}).(*requestNote); ok {
		n.mu.Lock()
		n.userID = userID
		n.mu.Unlock()
	}
}

// RequestLogger writes one access log line per request: Info below 400,
// Warn for 4xx, Error for 5xx. Health probes are logged at debug.
func RequestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			note := &requestNote{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			r = r.WithContext(context.WithValue(r.Context(), requestNoteKey{}, note))

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				fields := accessFields(r, status, ww.BytesWritten(), time.Since(start))
				note.mu.Lock()
				if note.userID != "" {
					fields = append(fields, zap.String("user_id", note.userID))
				}
				note.mu.Unlock()

				switch {
				case status >= 500:
					logger.Error("request", fields...)
				case status >= 400:
					logger.Warn("request", fields...)
				case isProbe(r.URL.Path):
					logger.Debug("request", fields...)
				default:
					logger.Info("request", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func accessFields(r *http.Request, status, bytes int, took time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Int("bytes", bytes),
		zap.Duration("took", took),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			fields = append(fields, zap.String("route", pattern))
		}
	}
	return fields
}

func isProbe(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/ping", "/metrics":
		return true
	}
	return false
}

// TracingMiddleware continues an incoming W3C trace. The global propagator
// is read per request so InitTracer may run after the router is built.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
