package repository

import (
	"context"
	"errors"
	"sync"

	"records-api/models"
)

// ErrRecordNotFound is returned when no record matches the requested id
var ErrRecordNotFound = errors.New("record not found")

// MemoryStore keeps records in process memory in insertion order.
// All access goes through the store's lock; callers only ever see copies.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.Record
}

// NewMemoryStore creates a store holding a copy of the given records
func NewMemoryStore(records []models.Record) *MemoryStore {
	s := &MemoryStore{records: make([]models.Record, len(records))}
	copy(s.records, records)
	return s
}

// NewSeededStore creates a store holding the fixed seed records
func NewSeededStore() *MemoryStore {
	return NewMemoryStore(SeedRecords())
}

// ListRecords returns a snapshot of all records in insertion order
func (s *MemoryStore) ListRecords(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// GetRecord returns the first record whose id equals id exactly
func (s *MemoryStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

// AppendRecord builds a record from the next 1-based position in the store and
// appends it. Position lookup and append happen under one write lock, so two
// concurrent creates never observe the same position.
func (s *MemoryStore) AppendRecord(ctx context.Context, build func(position int) models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := build(len(s.records) + 1)
	s.records = append(s.records, rec)
	return rec, nil
}

// CountRecords returns the number of stored records
func (s *MemoryStore) CountRecords(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
