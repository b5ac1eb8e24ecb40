package providers

import (
	"net/http"
	"net/http/httptest"
	"petcache/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockMetrics struct {
	noopMetrics
	requestEndpoint  string
	requestStatus    int
	requestCalls     int
	durationEndpoint string
	durationCalls    int
}

func (m *mockMetrics) IncRequestsTotal(endpoint string, status int) {
	m.requestEndpoint = endpoint
	m.requestStatus = status
	m.requestCalls++
}
func (m *mockMetrics) ObserveRequestDuration(endpoint string, _ time.Duration) {
	m.durationEndpoint = endpoint
	m.durationCalls++
}

func middlewareRoutes() []structures.Route {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	return []structures.Route{
		{Url: "/records", Handler: noop},
		{Url: "/record", Handler: noop},
		{Url: "/bridge", Handler: noop},
		{Url: "/legacy/pet", Handler: noop},
	}
}

func TestMetricsMiddleware_CapturesStatusAndEndpoint(t *testing.T) {
	metrics := &mockMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw := MetricsMiddleware(metrics, middlewareRoutes(), handler)

	req := httptest.NewRequest(http.MethodPost, "/bridge", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, 1, metrics.requestCalls)
	assert.Equal(t, "POST /bridge", metrics.requestEndpoint)
	assert.Equal(t, http.StatusCreated, metrics.requestStatus)
	assert.Equal(t, 1, metrics.durationCalls)
	assert.Equal(t, "POST /bridge", metrics.durationEndpoint)
}

func TestMetricsMiddleware_QueryNotInLabel(t *testing.T) {
	metrics := &mockMetrics{}
	mw := MetricsMiddleware(metrics, middlewareRoutes(), http.NotFoundHandler())

	tests := []struct {
		method   string
		target   string
		endpoint string
	}{
		{http.MethodGet, "/record?slot=2", "GET /record"},
		{http.MethodDelete, "/record?slot=3", "DELETE /record"},
		{http.MethodGet, "/legacy/pet?key=2_1699999999", "GET /legacy/pet"},
	}
	for _, tt := range tests {
		mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tt.method, tt.target, nil))
		assert.Equal(t, tt.endpoint, metrics.requestEndpoint, tt.target)
		assert.Equal(t, http.StatusNotFound, metrics.requestStatus)
	}
}

func TestMetricsMiddleware_UnknownPathIsOther(t *testing.T) {
	metrics := &mockMetrics{}
	mw := MetricsMiddleware(metrics, middlewareRoutes(), http.NotFoundHandler())

	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil))

	assert.Equal(t, otherEndpoint, metrics.requestEndpoint)
	assert.Equal(t, http.StatusNotFound, metrics.requestStatus)
}

func TestMetricsMiddleware_DefaultStatus200(t *testing.T) {
	metrics := &mockMetrics{}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mw := MetricsMiddleware(metrics, middlewareRoutes(), handler)

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, metrics.requestStatus)
	assert.Equal(t, "GET /records", metrics.requestEndpoint)
}

func TestStatusWriter_WriteHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rr, status: http.StatusOK}

	sw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, sw.status)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
