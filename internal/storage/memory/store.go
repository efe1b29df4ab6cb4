// Package memory implements engine.RecordStore without a database. It
// backs tests and local development when no database URL is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"masterdata/internal/core/apperror"
	"masterdata/internal/core/id"
	"masterdata/internal/descriptor"
	"masterdata/internal/engine"
)

// Store keeps records per entity key, guarded by one mutex. Good enough
// for the dataset sizes master data deals with.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]engine.Record
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{tables: make(map[string][]engine.Record)}
}

func (s *Store) Insert(_ context.Context, e *descriptor.Entity, rec engine.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[e.Key] = append(s.tables[e.Key], cloneRecord(rec))
	return nil
}

func (s *Store) Get(_ context.Context, e *descriptor.Entity, recordID id.ID) (engine.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.tables[e.Key] {
		if rec.ID() == recordID.String() && !isDeleted(rec) {
			return cloneRecord(rec), nil
		}
	}
	return nil, apperror.NewNotFound(e.TitleSingular, recordID.String())
}

func (s *Store) Update(_ context.Context, e *descriptor.Entity, recordID id.ID, fields engine.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tables[e.Key] {
		if rec.ID() == recordID.String() && !isDeleted(rec) {
			for k, v := range fields {
				rec[k] = v
			}
			return nil
		}
	}
	return apperror.NewNotFound(e.TitleSingular, recordID.String())
}

func (s *Store) Delete(_ context.Context, e *descriptor.Entity, recordID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[e.Key]
	for i, rec := range rows {
		if rec.ID() != recordID.String() || isDeleted(rec) {
			continue
		}
		if e.SoftDelete {
			now := time.Now().UTC()
			rec["deleted_at"] = &now
		} else {
			s.tables[e.Key] = append(rows[:i:i], rows[i+1:]...)
		}
		return nil
	}
	return apperror.NewNotFound(e.TitleSingular, recordID.String())
}

func (s *Store) List(_ context.Context, e *descriptor.Entity, f engine.ListFilter) (engine.ListResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var live []engine.Record
	for _, rec := range s.tables[e.Key] {
		if isDeleted(rec) && !f.IncludeDeleted {
			continue
		}
		live = append(live, rec)
	}

	filtered := live
	if f.Search != "" && len(e.SearchableFields) > 0 {
		filtered = nil
		needle := strings.ToLower(f.Search)
		for _, rec := range live {
			if matchesSearch(rec, e.SearchableFields, needle) {
				filtered = append(filtered, rec)
			}
		}
	}

	sortRecords(filtered, f.OrderBy)

	result := engine.ListResult{
		TotalCount:    int64(len(live)),
		FilteredCount: int64(len(filtered)),
		Limit:         f.Limit,
		Offset:        f.Offset,
	}

	start := f.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + f.Limit
	if f.Limit <= 0 || end > len(filtered) {
		end = len(filtered)
	}
	for _, rec := range filtered[start:end] {
		result.Items = append(result.Items, cloneRecord(rec))
	}
	return result, nil
}

func (s *Store) Count(_ context.Context, e *descriptor.Entity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, rec := range s.tables[e.Key] {
		if !isDeleted(rec) {
			n++
		}
	}
	return n, nil
}

func cloneRecord(rec engine.Record) engine.Record {
	out := make(engine.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func isDeleted(rec engine.Record) bool {
	v, ok := rec["deleted_at"]
	if !ok || v == nil {
		return false
	}
	if t, ok := v.(*time.Time); ok {
		return t != nil
	}
	return true
}

func matchesSearch(rec engine.Record, fields []string, needle string) bool {
	for _, f := range fields {
		if s, ok := rec[f].(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

func sortRecords(rows []engine.Record, orderBy string) {
	if orderBy == "" {
		orderBy = "-created_at"
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")

	sort.SliceStable(rows, func(i, j int) bool {
		less := lessValue(rows[i][col], rows[j][col])
		if desc {
			return lessValue(rows[j][col], rows[i][col])
		}
		return less
	})
}

func lessValue(a, b any) bool {
	switch av := a.(type) {
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	}
	return false
}
