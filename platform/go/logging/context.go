package logging

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type ctxKey struct{}

// scope is shared by every context derived from one request, so fields added by inner middleware
// also reach the completion entry.
type scope struct {
	logger *zap.Logger
}

// WithLogger starts a new logging scope on ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &scope{logger: logger})
}

// FromContext returns the request logger, if one was attached.
func FromContext(ctx context.Context) (*zap.Logger, bool) {
	s, ok := ctx.Value(ctxKey{}).(*scope)
	if !ok {
		return nil, false
	}
	return s.logger, true
}

// FromRequest falls back to the given logger outside a request scope.
func FromRequest(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if logger, ok := FromContext(r.Context()); ok {
		return logger
	}
	return fallback
}

// Enrich adds fields to the request logger for the rest of the request, including the completion
// entry. Without a scope it is a no-op.
func Enrich(ctx context.Context, fields ...zap.Field) context.Context {
	if s, ok := ctx.Value(ctxKey{}).(*scope); ok {
		s.logger = s.logger.With(fields...)
	}
	return ctx
}

// RequestLogger opens a logging scope per request and writes one completion entry: Info for 1xx-3xx,
// Warn for 4xx, Error for 5xx.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger := base.With(
				zap.String("http_method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			if requestID := middleware.GetReqID(r.Context()); requestID != "" {
				logger = logger.With(zap.String("request_id", requestID))
			}

			ctx := WithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				fields = append(fields, zap.String("route", rctx.RoutePattern()))
			}

			done, _ := FromContext(ctx)
			switch {
			case status >= http.StatusInternalServerError:
				done.Error("request completed", fields...)
			case status >= http.StatusBadRequest:
				done.Warn("request completed", fields...)
			default:
				done.Info("request completed", fields...)
			}
		})
	}
}
