// Package catalog declares the master-data entity types the service
// ships with. The descriptors are static: registration happens once at
// startup and a bad descriptor is a programming error, hence MustRegister.
package catalog

import (
	"masterdata/internal/core/capability"
	"masterdata/internal/descriptor"
)

// Registry builds the descriptor registry with every built-in entity.
func Registry() *descriptor.Registry {
	reg := descriptor.NewRegistry()

	// --- CRM ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "lead_statuses",
		Table:            "lead_statuses",
		TitleSingular:    "Lead Status",
		TitlePlural:      "Lead Statuses",
		Module:           capability.ModuleCRM,
		Section:          "CRM",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "color", "position"},
		Rules: map[string]string{
			"name":     "required|string|max:64",
			"color":    `regex:^#[0-9a-fA-F]{3,6}$`,
			"position": "integer|min:0",
		},
		ImportExportKey: "lead-status",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key:              "lead_sources",
		Table:            "lead_sources",
		TitleSingular:    "Lead Source",
		TitlePlural:      "Lead Sources",
		Module:           capability.ModuleCRM,
		Section:          "CRM",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name"},
		Rules:            map[string]string{"name": "required|string|max:128"},
		ImportExportKey:  "lead-source",
	})

	// --- Projects / Tasks ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "task_priorities",
		Table:            "task_priorities",
		TitleSingular:    "Task Priority",
		TitlePlural:      "Task Priorities",
		Module:           capability.ModuleProjects,
		Section:          "Tasks",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "color", "level"},
		Rules: map[string]string{
			"name":  "required|string|max:64",
			"color": `regex:^#[0-9a-fA-F]{3,6}$`,
			"level": "integer|min:0|max:10",
		},
		ImportExportKey: "task-priority",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key:              "project_statuses",
		Table:            "project_statuses",
		TitleSingular:    "Project Status",
		TitlePlural:      "Project Statuses",
		Module:           capability.ModuleProjects,
		Section:          "Projects",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "is_closed"},
		Rules: map[string]string{
			"name":      "required|string|max:64",
			"is_closed": "boolean",
		},
		ImportExportKey: "project-status",
	})

	// --- HR ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "shifts",
		Table:            "shifts",
		TitleSingular:    "Shift",
		TitlePlural:      "Shifts",
		Module:           capability.ModuleHR,
		Section:          "HR",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "starts_at", "ends_at"},
		Rules: map[string]string{
			"name":      "required|string|max:64",
			"starts_at": `required|regex:^\d{2}:\d{2}$`,
			"ends_at":   `required|regex:^\d{2}:\d{2}$`,
		},
		ImportExportKey: "shift",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key:              "holidays",
		Table:            "holidays",
		TitleSingular:    "Holiday",
		TitlePlural:      "Holidays",
		Module:           capability.ModuleHR,
		Section:          "HR",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "date"},
		Rules: map[string]string{
			"name": "required|string|max:128",
			"date": "required|date",
		},
		SoftDelete:      true,
		ImportExportKey: "holiday",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key:              "leave_types",
		Table:            "leave_types",
		TitleSingular:    "Leave Type",
		TitlePlural:      "Leave Types",
		Module:           capability.ModuleHR,
		Section:          "HR",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "days_per_year", "is_paid"},
		Rules: map[string]string{
			"name":          "required|string|max:64",
			"days_per_year": "integer|min:0|max:366",
			"is_paid":       "boolean",
		},
		ImportExportKey: "leave-type",
	})

	// --- Disciplinary ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "warning_types",
		Table:            "warning_types",
		TitleSingular:    "Warning Type",
		TitlePlural:      "Warning Types",
		Module:           capability.ModuleDisciplinary,
		Section:          "Disciplinary",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "severity"},
		Rules: map[string]string{
			"name":     "required|string|max:64",
			"severity": "in:minor,major,critical",
		},
	})

	// --- Warehouse ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "units",
		Table:            "units",
		TitleSingular:    "Unit",
		TitlePlural:      "Units",
		Module:           capability.ModuleWarehouse,
		Section:          "Inventory",
		SearchableFields: []string{"name", "code"},
		FillableFields:   []string{"name", "code"},
		Rules: map[string]string{
			"name": "required|string|max:64",
			"code": "required|string|max:8",
		},
		ImportExportKey: "unit",
	})

	// --- Accounting ---
	reg.MustRegister(descriptor.Descriptor{
		Key:              "tax_rates",
		Table:            "tax_rates",
		TitleSingular:    "Tax Rate",
		TitlePlural:      "Tax Rates",
		Module:           capability.ModuleAccounting,
		Section:          "Accounting",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "rate"},
		Rules: map[string]string{
			"name": "required|string|max:64",
			"rate": "required|numeric|min:0|max:100",
		},
		ImportExportKey: "tax-rate",
		Permissions: descriptor.Permissions{
			Edit:   `actor.role in ['admin', 'accountant']`,
			Delete: `actor.role == 'admin'`,
		},
	})

	return reg
}
