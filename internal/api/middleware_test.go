package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"records-api/internal/auth"
	"records-api/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func isolatedMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	m := observability.NewMetrics(prometheus.NewRegistry())
	observability.SetMetrics(m)
	return m
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	// Test default status code
	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code to be 200, got %d", rw.statusCode)
	}

	rw.WriteHeader(http.StatusNotFound)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code to be 404, got %d", rw.statusCode)
	}

	data := []byte(`{"detail":"Not Found"}`)
	n, err := rw.Write(data)
	if err != nil {
		t.Errorf("Write returned error: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected to write %d bytes, wrote %d", len(data), n)
	}

	// Test multiple writes
	n2, _ := rw.Write(data)
	if rw.responseSize != len(data)+n2 {
		t.Errorf("Expected cumulative response size to be %d, got %d", len(data)+n2, rw.responseSize)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	}))

	t.Run("echoes incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if got := w.Header().Get(HeaderRequestID); got != "abc-123" {
			t.Errorf("expected echoed id abc-123, got %q", got)
		}
		if seen != "abc-123" {
			t.Errorf("expected id in context, got %q", seen)
		}
	})

	t.Run("generates id when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		got := w.Header().Get(HeaderRequestID)
		if len(got) != 36 {
			t.Errorf("expected a generated uuid, got %q", got)
		}
		if seen != got {
			t.Errorf("expected context id %q to match header %q", seen, got)
		}
	})
}

func TestMetricsMiddleware(t *testing.T) {
	m := isolatedMetrics(t)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/records/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	for _, path := range []string{"/records/REC001", "/records/REC002"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/records/{id}", "200"))
	if got != 2 {
		t.Errorf("expected 2 requests recorded under the route pattern, got %v", got)
	}
}

func TestMetricsMiddleware_Unmatched(t *testing.T) {
	m := isolatedMetrics(t)

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/random/path", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "unmatched", "500"))
	if got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
}

func TestRequireAPIKey(t *testing.T) {
	m := isolatedMetrics(t)
	guard := auth.NewGuard(map[string]string{"k1": "User One"})

	var identity string
	handler := RequireAPIKey(guard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ = auth.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("Authorization", "Bearer k1")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", w.Code)
		}
		if identity != "User One" {
			t.Errorf("expected identity User One, got %q", identity)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/records", nil)
		req.Header.Set("X-API-Key", "k2")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
		if got := testutil.ToFloat64(m.AuthFailuresTotal.WithLabelValues("invalid_key")); got != 1 {
			t.Errorf("expected 1 invalid_key failure, got %v", got)
		}
	})
}

func TestRecoverer_ReturnsServerError(t *testing.T) {
	isolatedMetrics(t)
	cfg := testConfig()
	h := NewHandler(testApp(), cfg)
	router := NewRouter(h, cfg).(*chi.Mux)
	router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := doRequest(router, http.MethodGet, "/panic", "", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected service to keep serving after a panic, got %d", w.Code)
	}
}
