package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/buzzbot/internal/adapter/metrics"
	"github.com/pscheid92/buzzbot/internal/platform/correlation"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMiddleware_AdoptsValidHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(correlation.Header, "gateway-42")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen string
	handler := correlationMiddleware(func(c echo.Context) error {
		seen, _ = correlation.ID(c.Request().Context())
		return nil
	})

	require.NoError(t, handler(c))
	assert.Equal(t, "gateway-42", seen)
	assert.Equal(t, "gateway-42", rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_ReplacesInvalidHeader(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(correlation.Header, "bad id with spaces")

	rec := serve(srv, req)

	id := rec.Header().Get(correlation.Header)
	assert.Len(t, id, 8)
	assert.NotEqual(t, "bad id with spaces", id)
}

func TestObservability_MetricsRouteAndErrorObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(reg)
	var observed []apperrors.Type

	srv := newTestServer(t, withObservability(Observability{
		HTTP:           httpMetrics,
		MetricsHandler: metrics.Handler(reg),
		ObserveError:   func(typ apperrors.Type) { observed = append(observed, typ) },
	}))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/posts?hub.mode=subscribe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []apperrors.Type{apperrors.TypeValidation}, observed)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpMetrics.RequestsTotal.WithLabelValues("GET", "/posts", "400")))

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buzzbot_http_requests_total")
}

func TestMetricsRouteAbsentWithoutHandler(t *testing.T) {
	srv := newTestServer(t)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
