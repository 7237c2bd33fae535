package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerStoresLoggerAndLogsCompletion(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	router := chi.NewRouter()
	router.Use(RequestLogger(base))
	router.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, ok := FromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, int64(http.StatusTeapot), fields["status"])
	require.Equal(t, "/api/v1/products/{id}", fields["route"])
	require.Equal(t, "/api/v1/products/42", fields["path"])
}

func TestEnrich(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ctx := Enrich(context.Background(), zap.String("user_id", "u1"))
	_, ok := FromContext(ctx)
	require.False(t, ok)

	ctx = WithLogger(context.Background(), zap.New(core))
	ctx = Enrich(ctx, zap.String("user_id", "u1"))
	logger, ok := FromContext(ctx)
	require.True(t, ok)

	logger.Info("hello")
	require.Equal(t, "u1", logs.All()[0].ContextMap()["user_id"])
}

func TestEnrichReachesCompletionEntry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	router := chi.NewRouter()
	router.Use(RequestLogger(zap.New(core)))
	router.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		Enrich(r.Context(), zap.String("tenant_id", "t1"))
		w.WriteHeader(http.StatusForbidden)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, "t1", entries[0].ContextMap()["tenant_id"])
}

func TestFromRequestFallback(t *testing.T) {
	fallback := zap.NewNop()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Same(t, fallback, FromRequest(req, fallback))
}
