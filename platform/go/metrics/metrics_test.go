package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/posbill/posbill-saas/platform/go/access"
)

func TestHTTPMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New("posbill_test")

	router := chi.NewRouter()
	router.Use(m.HTTP)
	router.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id, nil))
	}

	require.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/orders/{id}", "204")))
}

func TestObserveRejection(t *testing.T) {
	m := New("posbill_test")

	m.ObserveRejection(&access.Rejection{Gate: access.GateUsageLimit, Key: access.KeyLimitExceeded})
	m.ObserveRejection(&access.Rejection{Gate: access.GateUsageLimit, Key: access.KeyLimitExceeded})
	m.ObserveRejection(nil)

	require.Equal(t, 2.0, testutil.ToFloat64(m.GateRejections.WithLabelValues("usage_limit", access.KeyLimitExceeded)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New("posbill_test")
	m.ObserveRejection(&access.Rejection{Gate: access.GateFeature, Key: access.KeyFeatureNotAvailable})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "posbill_test_access_rejections_total"))
}
