package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"records-api/config"
	"records-api/internal/api"
	"records-api/internal/app"
	"records-api/observability"
	"records-api/repository"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRunChecks_AgainstServer(t *testing.T) {
	observability.SetMetrics(observability.NewMetrics(prometheus.NewRegistry()))
	cfg := config.NewTestConfig()
	application := app.New(cfg, repository.NewSeededStore())
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(application, cfg), cfg))
	defer srv.Close()

	results := runChecks(context.Background(), newClients(srv.URL, "training-key-001", 5*time.Second))

	if len(results) != 10 {
		t.Fatalf("expected 10 checks, got %d", len(results))
	}
	for _, res := range results {
		if res.err != nil {
			t.Errorf("check %q failed: %v", res.name, res.err)
		}
	}
}

func TestRunChecks_WrongKey(t *testing.T) {
	observability.SetMetrics(observability.NewMetrics(prometheus.NewRegistry()))
	cfg := config.NewTestConfig()
	application := app.New(cfg, repository.NewSeededStore())
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(application, cfg), cfg))
	defer srv.Close()

	results := runChecks(context.Background(), newClients(srv.URL, "not-a-key", 5*time.Second))

	failed := make(map[string]bool)
	for _, res := range results {
		if res.err != nil {
			failed[res.name] = true
		}
	}
	for _, name := range []string{"list records", "get REC001", "create record", "bearer authentication", "summary"} {
		if !failed[name] {
			t.Errorf("expected %q to fail with an invalid key", name)
		}
	}
	if failed["health"] || failed["root"] || failed["list without credentials is rejected"] {
		t.Errorf("expected unauthenticated checks to pass, got failures %v", failed)
	}
}

func TestExpectStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	c := newClients(srv.URL, "k", time.Second)
	ctx := context.Background()

	_, err := c.keyed.ListRecords(ctx)
	if got := expectStatus(err, http.StatusTeapot); got != nil {
		t.Errorf("expected matching status to pass, got %v", got)
	}
	if got := expectStatus(err, http.StatusNotFound); got == nil {
		t.Error("expected mismatched status to fail")
	}
	if got := expectStatus(nil, http.StatusNotFound); got == nil {
		t.Error("expected success to fail when an error status was wanted")
	}
}
