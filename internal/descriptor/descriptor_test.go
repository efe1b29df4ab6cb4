package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taskPriorityDescriptor() Descriptor {
	return Descriptor{
		Key:              "task_priorities",
		Table:            "task_priorities",
		TitleSingular:    "Task Priority",
		TitlePlural:      "Task Priorities",
		Module:           "projects",
		Section:          "Tasks",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "color", "level"},
		Rules: map[string]string{
			"name":  "required|string|max:64",
			"color": `regex:^#[0-9a-fA-F]{3,6}$`,
			"level": "integer|min:0|max:10",
		},
		ImportExportKey: "task-priority",
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(taskPriorityDescriptor()))

	e, ok := reg.Get("task_priorities")
	require.True(t, ok)
	assert.Equal(t, "Task Priority", e.TitleSingular)

	// Key is the global identity: duplicates are rejected.
	err := reg.Register(taskPriorityDescriptor())
	assert.Error(t, err)
}

func TestRegistry_RejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Descriptor)
	}{
		{"empty key", func(d *Descriptor) { d.Key = "" }},
		{"empty table", func(d *Descriptor) { d.Table = "" }},
		{"empty module", func(d *Descriptor) { d.Module = "" }},
		{"reserved fillable field", func(d *Descriptor) { d.FillableFields = append(d.FillableFields, "id") }},
		{"searchable not fillable", func(d *Descriptor) { d.SearchableFields = []string{"nickname"} }},
		{"rule for unknown field", func(d *Descriptor) { d.Rules["nickname"] = "required" }},
		{"bad rule expression", func(d *Descriptor) { d.Rules["name"] = "required|wibble" }},
		{"bad predicate", func(d *Descriptor) { d.Permissions.Delete = "actor.role ==" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := taskPriorityDescriptor()
			tt.mutate(&d)
			assert.Error(t, NewRegistry().Register(d))
		})
	}
}

func TestEntity_ValidateInput(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(taskPriorityDescriptor()))
	e, _ := reg.Get("task_priorities")

	t.Run("valid input is coerced", func(t *testing.T) {
		values, fieldErrs := e.ValidateInput(map[string]any{
			"name": "Critical", "color": "#f00", "level": float64(5),
		}, false)
		assert.Empty(t, fieldErrs)
		assert.Equal(t, int64(5), values["level"])
	})

	t.Run("missing required field", func(t *testing.T) {
		_, fieldErrs := e.ValidateInput(map[string]any{
			"color": "#fff", "level": float64(2),
		}, false)
		assert.Equal(t, map[string]string{"name": "is required"}, fieldErrs)
	})

	t.Run("partial skips absent fields", func(t *testing.T) {
		values, fieldErrs := e.ValidateInput(map[string]any{"level": float64(3)}, true)
		assert.Empty(t, fieldErrs)
		assert.Equal(t, map[string]any{"level": int64(3)}, values)
	})
}

func TestEntity_FilterFillable(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(taskPriorityDescriptor()))
	e, _ := reg.Get("task_priorities")

	got := e.FilterFillable(map[string]any{
		"name":         "Critical",
		"hacked_field": "x",
		"id":           "override-attempt",
	})
	assert.Equal(t, map[string]any{"name": "Critical"}, got)
}

func TestEntity_Permissions(t *testing.T) {
	d := taskPriorityDescriptor()
	d.Permissions.Delete = `actor.role == 'admin'`

	reg := NewRegistry()
	require.NoError(t, reg.Register(d))
	e, _ := reg.Get("task_priorities")

	// Unconfigured actions default to allow.
	assert.True(t, e.Can(ActionView, map[string]any{"role": "guest"}))
	assert.True(t, e.Can(ActionCreate, nil))

	assert.True(t, e.Can(ActionDelete, map[string]any{"role": "admin"}))
	assert.False(t, e.Can(ActionDelete, map[string]any{"role": "guest"}))
}

func TestEntity_FormFields(t *testing.T) {
	d := taskPriorityDescriptor()
	d.Rules["color"] = `required|in:#f00,#0f0,#00f`

	reg := NewRegistry()
	require.NoError(t, reg.Register(d))
	e, _ := reg.Get("task_priorities")

	fields := e.FormFields()
	require.Len(t, fields, 3)

	byName := map[string]FormField{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	assert.True(t, byName["name"].Required)
	assert.Equal(t, "string", byName["name"].Type)
	assert.Equal(t, "integer", byName["level"].Type)
	assert.Equal(t, []string{"#f00", "#0f0", "#00f"}, byName["color"].Options)
}

func TestEntity_Columns(t *testing.T) {
	d := taskPriorityDescriptor()
	d.SoftDelete = true

	reg := NewRegistry()
	require.NoError(t, reg.Register(d))
	e, _ := reg.Get("task_priorities")

	assert.Equal(t,
		[]string{"id", "name", "color", "level", "created_at", "updated_at", "deleted_at"},
		e.Columns())
	assert.True(t, e.Orderable("created_at"))
	assert.False(t, e.Orderable("secret"))
}

func TestRegistry_ByImportExportKey(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(taskPriorityDescriptor()))

	e, ok := reg.ByImportExportKey("task-priority")
	require.True(t, ok)
	assert.Equal(t, "task_priorities", e.Key)

	_, ok = reg.ByImportExportKey("")
	assert.False(t, ok)
}
