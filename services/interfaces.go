package services

import "context"

// RecordsAPI defines the operations offered by a records API server
type RecordsAPI interface {
	Index(ctx context.Context) (*Welcome, error)
	Health(ctx context.Context) (*Health, error)
	ListRecords(ctx context.Context) ([]Record, error)
	GetRecord(ctx context.Context, id string) (*Record, error)
	CreateRecord(ctx context.Context, req CreateRecordRequest) (*CreateRecordResponse, error)
	Summary(ctx context.Context) (*Summary, error)
}

// Compile-time interface check
var _ RecordsAPI = (*RecordsClient)(nil)
