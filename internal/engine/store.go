package engine

import (
	"context"

	"masterdata/internal/core/id"
	"masterdata/internal/descriptor"
)

// Record is one row of one entity type. The concrete shape is driven by the
// entity descriptor; beyond id/created_at/updated_at it is opaque.
type Record map[string]any

// ID returns the record id as a string ("" when absent).
func (r Record) ID() string {
	if s, ok := r["id"].(string); ok {
		return s
	}
	return ""
}

// ListFilter contains filtering options for list operations.
type ListFilter struct {
	// Search is matched with ILIKE across the descriptor's searchable
	// fields, combined with OR.
	Search string

	// OrderBy specifies sorting ("name", "-created_at"). Must be a
	// descriptor column; the engine sanitizes before handing it down.
	OrderBy string

	// IncludeDeleted includes soft-deleted records.
	IncludeDeleted bool

	// Pagination
	Limit  int
	Offset int
}

// ListResult contains one page of records plus counts.
type ListResult struct {
	Items []Record
	// TotalCount is the unfiltered row count for the entity type.
	TotalCount int64
	// FilteredCount is the row count after search filtering.
	FilteredCount int64
	Limit         int
	Offset        int
}

// RecordStore persists master-data records for any registered entity type.
// Implementations: postgres (production) and memory (dev/tests).
type RecordStore interface {
	// Insert persists a fully-formed record (id and timestamps set).
	Insert(ctx context.Context, e *descriptor.Entity, rec Record) error

	// Get fetches one record by id. Soft-deleted records are not found.
	Get(ctx context.Context, e *descriptor.Entity, recordID id.ID) (Record, error)

	// Update applies the supplied fields to an existing record.
	// Returns not-found when no live row matches.
	Update(ctx context.Context, e *descriptor.Entity, recordID id.ID, fields Record) error

	// Delete removes the record, honoring the descriptor's delete policy.
	// Deleting an already-deleted id reports not-found, never a crash.
	Delete(ctx context.Context, e *descriptor.Entity, recordID id.ID) error

	// List returns a filtered, sorted, paginated page of records.
	List(ctx context.Context, e *descriptor.Entity, f ListFilter) (ListResult, error)

	// Count returns the live row count for the entity type.
	Count(ctx context.Context, e *descriptor.Entity) (int64, error)
}

// Auditor records master-data mutations. Implementations must be
// best-effort: a failed audit write never fails the mutation.
type Auditor interface {
	Record(ctx context.Context, entityKey string, recordID id.ID, action string, changes map[string]any)
}
