package repository

import (
	"context"

	"records-api/models"
)

// RecordRepository defines all record store operations
type RecordRepository interface {
	ListRecords(ctx context.Context) ([]models.Record, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	AppendRecord(ctx context.Context, build func(position int) models.Record) (models.Record, error)
	CountRecords(ctx context.Context) (int, error)
}

// Compile-time interface verification
var _ RecordRepository = (*MemoryStore)(nil)
