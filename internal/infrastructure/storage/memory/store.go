// Package memory provides an in-memory Entity Store. It keeps tests and
// demos lightweight and intentionally favors clarity over performance.
package memory

import (
	"context"
	"sync"

	"parish/internal/core/apperror"
	"parish/internal/core/entity"
	"parish/internal/core/id"
	"parish/internal/domain"
)

// Store is a mutex-guarded map of records implementing domain.Store.
type Store struct {
	mu      sync.RWMutex
	records map[id.ID]*entity.Record
}

var _ domain.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[id.ID]*entity.Record)}
}

// Seed inserts records directly, bypassing version checks. Test helper.
func (s *Store) Seed(records ...*entity.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		clone := cloneRecord(rec)
		if clone.Version == 0 {
			clone.Version = 1
		}
		s.records[clone.ID] = clone
	}
}

func (s *Store) Get(_ context.Context, recordID id.ID) (*entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[recordID]; ok {
		return cloneRecord(rec), nil
	}
	return nil, apperror.NewNotFound("record", recordID.String())
}

func (s *Store) GetByForeignKey(_ context.Context, childType entity.Type, rel entity.Relation, targetID id.ID) ([]*entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Record
	for _, rec := range s.records {
		if rec.Type != childType {
			continue
		}
		if rec.ForeignKey(rel) != targetID {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Store) List(_ context.Context, filter domain.ListFilter) ([]*entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Record
	for _, rec := range s.records {
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if !filter.IncludeDeleted && rec.IsDeleted() {
			continue
		}
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func (s *Store) Save(_ context.Context, record *entity.Record, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expectedVersion == 0 {
		if _, exists := s.records[record.ID]; exists {
			return apperror.NewConcurrentModification(string(record.Type), record.ID.String())
		}
		record.Version = 1
		s.records[record.ID] = cloneRecord(record)
		return nil
	}

	current, ok := s.records[record.ID]
	if !ok {
		return apperror.NewNotFound("record", record.ID.String())
	}
	if current.Version != expectedVersion {
		return apperror.NewConcurrentModification(string(record.Type), record.ID.String())
	}
	record.Version = expectedVersion + 1
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *Store) Delete(_ context.Context, recordID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[recordID]; !ok {
		return apperror.NewNotFound("record", recordID.String())
	}
	delete(s.records, recordID)
	return nil
}

func cloneRecord(rec *entity.Record) *entity.Record {
	clone := *rec
	if rec.DeletedAt != nil {
		at := *rec.DeletedAt
		clone.DeletedAt = &at
	}
	if rec.ForeignKeys != nil {
		clone.ForeignKeys = make(map[entity.Relation]id.ID, len(rec.ForeignKeys))
		for k, v := range rec.ForeignKeys {
			clone.ForeignKeys[k] = v
		}
	}
	if rec.Attributes != nil {
		clone.Attributes = make(map[string]any, len(rec.Attributes))
		for k, v := range rec.Attributes {
			clone.Attributes[k] = v
		}
	}
	return &clone
}
