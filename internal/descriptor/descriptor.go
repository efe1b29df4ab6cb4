// Package descriptor defines the per-entity-type configuration driving the
// generic master-data engine: storage mapping, searchable and fillable
// fields, validation rules, permission predicates, and capability ownership.
package descriptor

import (
	"fmt"

	"masterdata/internal/core/security"
)

// Action identifies one of the four permission predicates every engine
// operation consults.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Permissions holds optional CEL expressions over the request actor.
// An empty expression always permits.
type Permissions struct {
	View   string
	Create string
	Edit   string
	Delete string
}

// Descriptor is the immutable configuration for one entity type. It is
// defined at process start, registered once, and never persisted.
type Descriptor struct {
	// Key uniquely identifies the entity type across all modules,
	// e.g. "task_priorities". Used as the route segment.
	Key string

	// Table is the backing storage table.
	Table string

	// TitleSingular / TitlePlural are display titles.
	TitleSingular string
	TitlePlural   string

	// Module is the owning module's capability name (route namespace).
	Module string

	// Section is the dashboard grouping label, e.g. "CRM", "HR".
	Section string

	// SearchableFields are matched with ILIKE, combined with OR.
	SearchableFields []string

	// FillableFields strictly bounds mass-assignable attributes. Input
	// keys outside this set are silently dropped.
	FillableFields []string

	// Rules maps field name to a rule expression, e.g. "required|max:64".
	Rules map[string]string

	// SoftDelete selects soft delete (deleted_at) over physical removal.
	SoftDelete bool

	// ImportExportKey is the canonical key understood by the import/export
	// addon. Empty means the entity type has no import/export support.
	ImportExportKey string

	// Permissions are the per-action predicate expressions.
	Permissions Permissions
}

// Entity is a registered descriptor with its compiled rule sets and
// permission predicates. Registration is the only way to obtain one.
type Entity struct {
	Descriptor

	rules map[string]RuleSet
	perms map[Action]*security.Predicate
}

func compile(d Descriptor) (*Entity, error) {
	if d.Key == "" {
		return nil, fmt.Errorf("descriptor: empty key")
	}
	if d.Table == "" {
		return nil, fmt.Errorf("descriptor %q: empty table", d.Key)
	}
	if d.Module == "" {
		return nil, fmt.Errorf("descriptor %q: empty module", d.Key)
	}

	fillable := make(map[string]bool, len(d.FillableFields))
	for _, f := range d.FillableFields {
		if isReservedField(f) {
			return nil, fmt.Errorf("descriptor %q: field %q is reserved", d.Key, f)
		}
		fillable[f] = true
	}

	for _, f := range d.SearchableFields {
		if !fillable[f] {
			return nil, fmt.Errorf("descriptor %q: searchable field %q is not fillable", d.Key, f)
		}
	}

	e := &Entity{
		Descriptor: d,
		rules:      make(map[string]RuleSet, len(d.Rules)),
		perms:      make(map[Action]*security.Predicate, 4),
	}

	for field, expr := range d.Rules {
		if !fillable[field] {
			return nil, fmt.Errorf("descriptor %q: rule for non-fillable field %q", d.Key, field)
		}
		rs, err := ParseRuleSet(expr)
		if err != nil {
			return nil, fmt.Errorf("descriptor %q, field %q: %w", d.Key, field, err)
		}
		e.rules[field] = rs
	}

	for action, expr := range map[Action]string{
		ActionView:   d.Permissions.View,
		ActionCreate: d.Permissions.Create,
		ActionEdit:   d.Permissions.Edit,
		ActionDelete: d.Permissions.Delete,
	} {
		p, err := security.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("descriptor %q, %s predicate: %w", d.Key, action, err)
		}
		e.perms[action] = p
	}

	return e, nil
}

func isReservedField(f string) bool {
	switch f {
	case "id", "created_at", "updated_at", "deleted_at":
		return true
	}
	return false
}

// Can evaluates the predicate for the action. Actions without a configured
// expression always permit.
func (e *Entity) Can(action Action, actorInput map[string]any) bool {
	return e.perms[action].Allow(actorInput)
}

// FilterFillable returns a copy of input restricted to fillable fields.
// Unknown fields are silently dropped, never mass-assigned.
func (e *Entity) FilterFillable(input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for _, f := range e.FillableFields {
		if v, ok := input[f]; ok {
			out[f] = v
		}
	}
	return out
}

// ValidateInput validates (and coerces) fillable input fields against the
// descriptor rules. With partial set, absent fields are skipped entirely;
// otherwise required rules apply. Returns the coerced values and a
// field->message map (empty when valid).
func (e *Entity) ValidateInput(input map[string]any, partial bool) (map[string]any, map[string]string) {
	values := make(map[string]any, len(input))
	fieldErrs := make(map[string]string)

	for _, field := range e.FillableFields {
		value, present := input[field]

		if partial && !present {
			continue
		}

		rs, hasRules := e.rules[field]
		if !hasRules {
			if present {
				values[field] = value
			}
			continue
		}

		coerced, msg := rs.Validate(value, present)
		if msg != "" {
			fieldErrs[field] = msg
			continue
		}
		if present {
			values[field] = coerced
		}
	}

	return values, fieldErrs
}

// Columns returns the full storage column set: id, fillable fields and
// timestamps (plus deleted_at for soft-deleting entities).
func (e *Entity) Columns() []string {
	cols := make([]string, 0, len(e.FillableFields)+4)
	cols = append(cols, "id")
	cols = append(cols, e.FillableFields...)
	cols = append(cols, "created_at", "updated_at")
	if e.SoftDelete {
		cols = append(cols, "deleted_at")
	}
	return cols
}

// Orderable reports whether a column may be used for sorting.
func (e *Entity) Orderable(col string) bool {
	for _, c := range e.Columns() {
		if c == col {
			return true
		}
	}
	return false
}

// FormField describes one field for generic form rendering.
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormFields derives form metadata from the fillable set and rules.
func (e *Entity) FormFields() []FormField {
	fields := make([]FormField, 0, len(e.FillableFields))
	for _, f := range e.FillableFields {
		rs := e.rules[f]
		fields = append(fields, FormField{
			Name:     f,
			Type:     rs.FieldType(),
			Required: rs.Required(),
			Options:  rs.Options(),
		})
	}
	return fields
}

// EmptyRecord returns the empty record shape for create forms.
func (e *Entity) EmptyRecord() map[string]any {
	rec := make(map[string]any, len(e.FillableFields))
	for _, f := range e.FillableFields {
		rec[f] = nil
	}
	return rec
}
