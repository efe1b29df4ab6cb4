// Package engine implements the generic master-data CRUD engine. One
// service instance serves every registered entity type; all per-type
// behavior comes from the entity descriptor passed into each call.
package engine

import (
	"context"
	"fmt"
	"time"

	"masterdata/internal/core/actor"
	"masterdata/internal/core/apperror"
	"masterdata/internal/core/id"
	"masterdata/internal/core/tx"
	"masterdata/internal/descriptor"
	"masterdata/pkg/logger"
)

// Pagination bounds shared by list and grid endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Audit action names.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// Service is the descriptor-parameterized CRUD engine.
type Service struct {
	store   RecordStore
	txm     tx.Manager
	auditor Auditor
}

// NewService creates the engine. txm may be nil for non-transactional
// stores; auditor may be nil to disable the audit trail.
func NewService(store RecordStore, txm tx.Manager, auditor Auditor) *Service {
	if txm == nil {
		txm = tx.Nop{}
	}
	return &Service{store: store, txm: txm, auditor: auditor}
}

// Create validates input against the descriptor rules and persists a new
// record. Validation failure persists nothing and reports every failing
// field at once.
func (s *Service) Create(ctx context.Context, e *descriptor.Entity, input map[string]any) (Record, error) {
	if err := s.authorize(ctx, e, descriptor.ActionCreate); err != nil {
		return nil, err
	}

	values, fieldErrs := e.ValidateInput(e.FilterFillable(input), false)
	if len(fieldErrs) > 0 {
		return nil, apperror.NewFieldValidation(fieldErrs)
	}

	now := time.Now().UTC()
	recordID := id.New()

	rec := Record{}
	for k, v := range values {
		rec[k] = v
	}
	rec["id"] = recordID.String()
	rec["created_at"] = now
	rec["updated_at"] = now

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.Insert(ctx, e, rec)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, e, recordID, AuditCreate, values)
	logger.Info(ctx, "record created", "entity", e.Key, "id", recordID.String())

	return s.store.Get(ctx, e, recordID)
}

// Get fetches one record by id.
func (s *Service) Get(ctx context.Context, e *descriptor.Entity, recordID id.ID) (Record, error) {
	if err := s.authorize(ctx, e, descriptor.ActionView); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, e, recordID)
}

// Update applies a partial update: only fields present in input are
// validated and written, everything else keeps its stored value.
func (s *Service) Update(ctx context.Context, e *descriptor.Entity, recordID id.ID, input map[string]any) (Record, error) {
	if err := s.authorize(ctx, e, descriptor.ActionEdit); err != nil {
		return nil, err
	}

	values, fieldErrs := e.ValidateInput(e.FilterFillable(input), true)
	if len(fieldErrs) > 0 {
		return nil, apperror.NewFieldValidation(fieldErrs)
	}

	fields := Record{}
	for k, v := range values {
		fields[k] = v
	}
	fields["updated_at"] = time.Now().UTC()

	// The prior state is read in the same transaction so the audit diff
	// reflects exactly what this update replaced.
	var prior Record
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		old, err := s.store.Get(ctx, e, recordID)
		if err != nil {
			return err
		}
		prior = old
		return s.store.Update(ctx, e, recordID, fields)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, e, recordID, AuditUpdate, diffFields(prior, values))
	logger.Info(ctx, "record updated", "entity", e.Key, "id", recordID.String())

	return s.store.Get(ctx, e, recordID)
}

// Delete removes a record. Deleting an id that does not exist (or was
// already deleted) reports not-found; repeating a delete is always safe.
func (s *Service) Delete(ctx context.Context, e *descriptor.Entity, recordID id.ID) error {
	if err := s.authorize(ctx, e, descriptor.ActionDelete); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, e, recordID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, e, recordID, AuditDelete, nil)
	logger.Info(ctx, "record deleted", "entity", e.Key, "id", recordID.String())
	return nil
}

// List returns a filtered page of records. Limit and offset are clamped,
// never rejected; an unknown order column falls back to newest-first.
func (s *Service) List(ctx context.Context, e *descriptor.Entity, f ListFilter) (ListResult, error) {
	if err := s.authorize(ctx, e, descriptor.ActionView); err != nil {
		return ListResult{}, err
	}
	return s.store.List(ctx, e, normalizeFilter(e, f))
}

// Count returns the live record count for the entity type.
func (s *Service) Count(ctx context.Context, e *descriptor.Entity) (int64, error) {
	return s.store.Count(ctx, e)
}

func (s *Service) authorize(ctx context.Context, e *descriptor.Entity, action descriptor.Action) error {
	a := actor.FromContext(ctx)
	if !e.Can(action, a.PredicateInput()) {
		logger.Warn(ctx, "action denied", "entity", e.Key, "action", string(action), "subject", a.Subject)
		return apperror.NewForbidden("not allowed to " + string(action) + " " + e.TitlePlural)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, e *descriptor.Entity, recordID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, e.Key, recordID, action, changes)
}

// diffFields builds the audit diff for an update: every supplied field
// whose value actually changed, as an {old, new} pair.
func diffFields(prior Record, updated map[string]any) map[string]any {
	changes := make(map[string]any, len(updated))
	for field, newVal := range updated {
		oldVal := prior[field]
		if fmt.Sprintf("%v", oldVal) == fmt.Sprintf("%v", newVal) {
			continue
		}
		changes[field] = map[string]any{"old": oldVal, "new": newVal}
	}
	return changes
}

func normalizeFilter(e *descriptor.Entity, f ListFilter) ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.OrderBy = sanitizeOrder(e, f.OrderBy)
	return f
}

// sanitizeOrder accepts "column" or "-column" and falls back to
// "-created_at" for anything outside the descriptor's column set.
func sanitizeOrder(e *descriptor.Entity, orderBy string) string {
	const fallback = "-created_at"
	if orderBy == "" {
		return fallback
	}
	col := orderBy
	if col[0] == '-' || col[0] == '+' {
		col = col[1:]
	}
	if !e.Orderable(col) {
		return fallback
	}
	if orderBy[0] == '+' {
		return col
	}
	return orderBy
}
