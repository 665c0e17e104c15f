// Command smoke runs an end-to-end check suite against a running records API
// and exits non-zero if any check fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"records-api/config"
	"records-api/observability"
	"records-api/services"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}
	observability.InitLoggerWithLevel(cfg.IsProduction(), observability.ParseLevel(cfg.Log.Level))

	timeout := time.Duration(cfg.Smoke.TimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 4*timeout)
	defer cancel()

	observability.Info("running smoke checks", "base_url", cfg.Smoke.BaseURL)
	results := runChecks(ctx, newClients(cfg.Smoke.BaseURL, cfg.Smoke.APIKey, timeout))

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
		}
	}
	observability.Info("smoke checks finished", "passed", len(results)-failed, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// clients bundles the three ways the suite talks to the API
type clients struct {
	keyed     services.RecordsAPI
	bearer    services.RecordsAPI
	anonymous services.RecordsAPI
}

func newClients(baseURL, apiKey string, timeout time.Duration) clients {
	httpClient := &http.Client{Timeout: timeout}
	// One breaker for all three: they share the upstream
	registry := services.NewClientBreakerRegistry(observability.GetMetrics())
	opts := []services.ClientOption{
		services.WithHTTPClient(httpClient),
		services.WithBreakerRegistry(registry),
	}

	return clients{
		keyed:     services.NewRecordsClient(baseURL, apiKey, opts...),
		bearer:    services.NewRecordsClient(baseURL, apiKey, append(opts, services.WithAuthMode(services.AuthBearer))...),
		anonymous: services.NewRecordsClient(baseURL, "", append(opts, services.WithAuthMode(services.AuthNone))...),
	}
}

type check struct {
	name string
	run  func(ctx context.Context) error
}

type result struct {
	name string
	err  error
}

func suite(c clients) []check {
	return []check{
		{"health", func(ctx context.Context) error {
			health, err := c.anonymous.Health(ctx)
			if err != nil {
				return err
			}
			if health.Status != "healthy" {
				return fmt.Errorf("status %q, want healthy", health.Status)
			}
			return nil
		}},
		{"root", func(ctx context.Context) error {
			welcome, err := c.anonymous.Index(ctx)
			if err != nil {
				return err
			}
			if welcome.Message == "" {
				return errors.New("empty welcome message")
			}
			return nil
		}},
		{"list without credentials is rejected", func(ctx context.Context) error {
			_, err := c.anonymous.ListRecords(ctx)
			return expectStatus(err, http.StatusUnauthorized)
		}},
		{"list records", func(ctx context.Context) error {
			records, err := c.keyed.ListRecords(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return errors.New("no records returned")
			}
			return nil
		}},
		{"get REC001", func(ctx context.Context) error {
			rec, err := c.keyed.GetRecord(ctx, "REC001")
			if err != nil {
				return err
			}
			if rec.ID != "REC001" {
				return fmt.Errorf("got record %s", rec.ID)
			}
			return nil
		}},
		{"get unknown record", func(ctx context.Context) error {
			_, err := c.keyed.GetRecord(ctx, "INVALID")
			return expectStatus(err, http.StatusNotFound)
		}},
		{"create record", func(ctx context.Context) error {
			resp, err := c.keyed.CreateRecord(ctx, services.CreateRecordRequest{
				Name:        "API Test Record",
				Category:    "Testing",
				Value:       services.ValueOf(decimal.RequireFromString("9999.99")),
				Owner:       "Test Script",
				Description: "Created by the smoke check suite",
			})
			if err != nil {
				return err
			}
			if !resp.Success || resp.Record.ID == "" || resp.Record.Status != "Pending" {
				return fmt.Errorf("unexpected create response %+v", resp)
			}
			return nil
		}},
		{"incomplete create is rejected", func(ctx context.Context) error {
			_, err := c.keyed.CreateRecord(ctx, services.CreateRecordRequest{Name: "Incomplete Record"})
			return expectStatus(err, http.StatusUnprocessableEntity)
		}},
		{"bearer authentication", func(ctx context.Context) error {
			_, err := c.bearer.ListRecords(ctx)
			return err
		}},
		{"summary", func(ctx context.Context) error {
			summary, err := c.keyed.Summary(ctx)
			if err != nil {
				return err
			}
			if summary.TotalRecords == 0 {
				return errors.New("summary reports no records")
			}
			return nil
		}},
	}
}

// expectStatus turns an expected API failure into success
func expectStatus(err error, want int) error {
	if err == nil {
		return fmt.Errorf("expected status %d, request succeeded", want)
	}
	if services.StatusCode(err) != want {
		return fmt.Errorf("expected status %d: %w", want, err)
	}
	return nil
}

func runChecks(ctx context.Context, c clients) []result {
	checks := suite(c)
	results := make([]result, 0, len(checks))
	for _, chk := range checks {
		err := chk.run(ctx)
		if err != nil {
			observability.Error("check failed", "check", chk.name, "error", err)
		} else {
			observability.Info("check passed", "check", chk.name)
		}
		results = append(results, result{name: chk.name, err: err})
	}
	return results
}
