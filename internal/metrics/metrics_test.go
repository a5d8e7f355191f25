package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/"+id, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	body := scrape(t, m)
	require.Contains(t, body, `recipebook_http_requests_total{method="GET",route="/api/recipes/{id}",status="404"} 3`)
	require.Contains(t, body, `recipebook_http_inflight_requests 0`)
}

func TestHandler_ExposesEvents(t *testing.T) {
	m := New()
	m.Event("recipe_shared")
	m.AuthFailure("missing")

	body := scrape(t, m)
	require.Contains(t, body, `recipebook_events_total{event="recipe_shared"} 1`)
	require.Contains(t, body, `recipebook_auth_failures_total{reason="missing"} 1`)
}
