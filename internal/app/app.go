package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"records-api/config"
	"records-api/models"
	"records-api/observability"
	"records-api/repository"
)

// ErrNotFound is returned when a record id does not exist
var ErrNotFound = errors.New("record not found")

// CreateResult is returned by a successful CreateRecord
type CreateResult struct {
	Success bool
	Message string
	Record  models.Record
}

// App struct holds the record service dependencies using interfaces for testability
type App struct {
	cfg     *config.Config
	repo    repository.RecordRepository
	metrics *observability.Metrics
	now     func() time.Time
}

// New creates a new App over the given record store
func New(cfg *config.Config, repo repository.RecordRepository) *App {
	return &App{
		cfg:     cfg,
		repo:    repo,
		metrics: observability.GetMetrics(),
		now:     time.Now,
	}
}

// SetClock replaces the clock used to stamp created records
func (a *App) SetClock(now func() time.Time) {
	a.now = now
}

// SetMetrics replaces the metrics sink
func (a *App) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// Now returns the current time in UTC according to the app clock
func (a *App) Now() time.Time {
	return a.now().UTC()
}

// Config returns the application configuration
func (a *App) Config() *config.Config {
	return a.cfg
}

// ListRecords returns every record in insertion order
func (a *App) ListRecords(ctx context.Context) ([]models.Record, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	records, err := a.repo.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// GetRecord returns the record with exactly the given id
func (a *App) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rec, err := a.repo.GetRecord(ctx, id)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return rec, nil
}

// CreateRecord validates in, assigns id, status and creation date, and appends it
func (a *App) CreateRecord(ctx context.Context, in models.NewRecord) (*CreateResult, error) {
	if a.repo == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := a.now()
	var position int
	rec, err := a.repo.AppendRecord(ctx, func(pos int) models.Record {
		position = pos
		return in.Build(models.FormatRecordID(pos), now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	if a.metrics != nil {
		a.metrics.RecordCreated(position)
	}
	observability.WithRecord(rec.ID).Info("record created",
		"category", rec.Category,
		"value", rec.Value.String(),
		"request_id", observability.RequestIDFromContext(ctx),
	)

	return &CreateResult{
		Success: true,
		Message: fmt.Sprintf("Record '%s' created successfully", rec.Name),
		Record:  rec,
	}, nil
}

// Summary computes aggregate statistics over one snapshot of the store
func (a *App) Summary(ctx context.Context) (*models.Summary, error) {
	records, err := a.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	summary := models.Summarize(records)
	return &summary, nil
}

// RecordCount returns the number of stored records
func (a *App) RecordCount(ctx context.Context) (int, error) {
	if a.repo == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	count, err := a.repo.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if a.metrics != nil {
		a.metrics.SetStoreSize(count)
	}
	return count, nil
}
