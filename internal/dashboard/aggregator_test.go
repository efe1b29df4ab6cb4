package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterdata/internal/core/capability"
	"masterdata/internal/descriptor"
)

type stubCounter struct {
	counts map[string]int64
	errs   map[string]error
}

func (c *stubCounter) Count(_ context.Context, e *descriptor.Entity) (int64, error) {
	if err := c.errs[e.Key]; err != nil {
		return 0, err
	}
	return c.counts[e.Key], nil
}

func testRegistry(t *testing.T) *descriptor.Registry {
	t.Helper()
	reg := descriptor.NewRegistry()
	reg.MustRegister(descriptor.Descriptor{
		Key: "lead_statuses", Table: "lead_statuses",
		TitleSingular: "Lead Status", TitlePlural: "Lead Statuses",
		Module: capability.ModuleCRM, Section: "CRM",
		FillableFields:  []string{"name"},
		ImportExportKey: "lead-status",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key: "holidays", Table: "holidays",
		TitleSingular: "Holiday", TitlePlural: "Holidays",
		Module: capability.ModuleHR, Section: "HR",
		FillableFields: []string{"name"},
	})
	reg.MustRegister(descriptor.Descriptor{
		Key: "task_priorities", Table: "task_priorities",
		TitleSingular: "Task Priority", TitlePlural: "Task Priorities",
		Module: capability.ModuleProjects, Section: "Projects",
		FillableFields:  []string{"name"},
		ImportExportKey: "task-priority",
	})
	return reg
}

func TestAggregator_CapabilityGating(t *testing.T) {
	reg := testRegistry(t)
	counter := &stubCounter{counts: map[string]int64{"lead_statuses": 7, "holidays": 3}}

	caps := capability.Static{capability.ModuleCRM: true, capability.ModuleHR: true}
	sections := NewAggregator(reg, caps, counter).Build(context.Background())

	require.Len(t, sections, 2)
	assert.Equal(t, "CRM", sections[0].Name)
	assert.Equal(t, "HR", sections[1].Name)

	require.Len(t, sections[0].Cards, 1)
	card := sections[0].Cards[0]
	assert.Equal(t, "lead_statuses", card.Key)
	assert.Equal(t, int64(7), card.Count)
	assert.Equal(t, "/api/v1/crm/lead_statuses", card.URL)

	// Projects capability is off: no trace of its entity types.
	for _, s := range sections {
		for _, c := range s.Cards {
			assert.NotEqual(t, "task_priorities", c.Key)
		}
	}
}

func TestAggregator_CountFailureDegradesToZero(t *testing.T) {
	reg := testRegistry(t)
	counter := &stubCounter{
		counts: map[string]int64{"holidays": 3},
		errs:   map[string]error{"lead_statuses": errors.New("connection refused")},
	}

	caps := capability.AllEnabled(capability.ModuleCRM, capability.ModuleHR)
	sections := NewAggregator(reg, caps, counter).Build(context.Background())

	require.Len(t, sections, 2)
	assert.Equal(t, int64(0), sections[0].Cards[0].Count)
	assert.Equal(t, int64(3), sections[1].Cards[0].Count)
}

func TestAggregator_ImportExportAnnotation(t *testing.T) {
	reg := testRegistry(t)
	counter := &stubCounter{counts: map[string]int64{}}

	t.Run("enabled", func(t *testing.T) {
		caps := capability.AllEnabled(
			capability.ModuleCRM, capability.ModuleHR, capability.ImportExport)
		sections := NewAggregator(reg, caps, counter).Build(context.Background())

		crm := sections[0].Cards[0]
		assert.Equal(t, "/api/v1/master-data/import-export/import?type=lead-status", crm.ImportURL)
		assert.Equal(t, "/api/v1/master-data/import-export/export?type=lead-status", crm.ExportURL)
		assert.Equal(t, "/api/v1/master-data/import-export/template?type=lead-status", crm.TemplateURL)

		// Holidays has no import/export key: no URLs even when enabled.
		hr := sections[1].Cards[0]
		assert.Empty(t, hr.ImportURL)
	})

	t.Run("disabled", func(t *testing.T) {
		caps := capability.AllEnabled(capability.ModuleCRM, capability.ModuleHR)
		sections := NewAggregator(reg, caps, counter).Build(context.Background())

		crm := sections[0].Cards[0]
		assert.Empty(t, crm.ImportURL)
		assert.Empty(t, crm.ExportURL)
		assert.Empty(t, crm.TemplateURL)
	})
}
