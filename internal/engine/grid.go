package engine

import (
	"context"
	"time"

	"masterdata/internal/core/actor"
	"masterdata/internal/descriptor"
)

// gridTimeLayout is the display format for grid timestamps.
const gridTimeLayout = "2006-01-02 15:04"

// GridQuery is the raw tabular-listing request. Values come straight from
// query parameters and are clamped, never rejected.
type GridQuery struct {
	Search string
	Sort   string
	Limit  int
	Offset int
}

// GridRow is one display row: the raw field cells plus formatted
// timestamps and the actions available to the requesting actor.
type GridRow struct {
	ID        string         `json:"id"`
	Cells     map[string]any `json:"cells"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Actions   []string       `json:"actions"`
}

// GridPage is the tabular-listing response for one entity type.
type GridPage struct {
	Entity        string                 `json:"entity"`
	Title         string                 `json:"title"`
	Columns       []string               `json:"columns"`
	Rows          []GridRow              `json:"rows"`
	TotalCount    int64                  `json:"total_count"`
	FilteredCount int64                  `json:"filtered_count"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
	CanCreate     bool                   `json:"can_create"`
	Fields        []descriptor.FormField `json:"fields"`
}

// TabularData produces the grid page backing the generic listing UI.
func (s *Service) TabularData(ctx context.Context, e *descriptor.Entity, q GridQuery) (*GridPage, error) {
	result, err := s.List(ctx, e, ListFilter{
		Search:  q.Search,
		OrderBy: q.Sort,
		Limit:   q.Limit,
		Offset:  q.Offset,
	})
	if err != nil {
		return nil, err
	}

	input := actor.FromContext(ctx).PredicateInput()
	actions := rowActions(e, input)

	rows := make([]GridRow, 0, len(result.Items))
	for _, rec := range result.Items {
		cells := make(map[string]any, len(e.FillableFields))
		for _, f := range e.FillableFields {
			cells[f] = rec[f]
		}
		rows = append(rows, GridRow{
			ID:        rec.ID(),
			Cells:     cells,
			CreatedAt: formatGridTime(rec["created_at"]),
			UpdatedAt: formatGridTime(rec["updated_at"]),
			Actions:   actions,
		})
	}

	return &GridPage{
		Entity:        e.Key,
		Title:         e.TitlePlural,
		Columns:       e.FillableFields,
		Rows:          rows,
		TotalCount:    result.TotalCount,
		FilteredCount: result.FilteredCount,
		Limit:         result.Limit,
		Offset:        result.Offset,
		CanCreate:     e.Can(descriptor.ActionCreate, input),
		Fields:        e.FormFields(),
	}, nil
}

// rowActions returns the per-row actions the actor may perform. The
// predicates only see the actor, so one evaluation covers every row.
func rowActions(e *descriptor.Entity, input map[string]any) []string {
	actions := make([]string, 0, 3)
	for _, a := range []descriptor.Action{descriptor.ActionView, descriptor.ActionEdit, descriptor.ActionDelete} {
		if e.Can(a, input) {
			actions = append(actions, string(a))
		}
	}
	return actions
}

func formatGridTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format(gridTimeLayout)
	case *time.Time:
		if t != nil {
			return t.Format(gridTimeLayout)
		}
	case string:
		return t
	}
	return ""
}
