package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilemo/catalog-server/internal/access"
)

func TestObserveDecision(t *testing.T) {
	m := New("test")

	m.ObserveDecision(access.See, access.Allow)
	m.ObserveDecision(access.See, access.Allow)
	m.ObserveDecision(access.Delete, access.Deny)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.accessDecisions.WithLabelValues("see", "allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.accessDecisions.WithLabelValues("delete", "deny")))
}

func TestMiddleware(t *testing.T) {
	m := New("test")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})

	for _, path := range []string{"/api/users/1", "/api/users/2", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/users/{id}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/health", "200")))
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.ObserveDecision(access.Edit, access.Deny)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_access_decisions_total{action="edit",decision="deny"} 1`)
}
