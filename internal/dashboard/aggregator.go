// Package dashboard builds the master-data overview: every visible entity
// type with live record counts, grouped into sections.
package dashboard

import (
	"context"
	"fmt"

	"masterdata/internal/core/capability"
	"masterdata/internal/descriptor"
	"masterdata/pkg/logger"
)

// Counter supplies live record counts. Satisfied by engine.Service.
type Counter interface {
	Count(ctx context.Context, e *descriptor.Entity) (int64, error)
}

// Card is one entity type on the dashboard.
type Card struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Module      string `json:"module"`
	Count       int64  `json:"count"`
	URL         string `json:"url"`
	ImportURL   string `json:"import_url,omitempty"`
	ExportURL   string `json:"export_url,omitempty"`
	TemplateURL string `json:"template_url,omitempty"`
}

// Section groups cards under a display label.
type Section struct {
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Aggregator assembles the dashboard from the descriptor registry and the
// capability flags. Visibility is a pure function of the flags.
type Aggregator struct {
	registry *descriptor.Registry
	caps     capability.Registry
	counter  Counter
}

// NewAggregator creates the dashboard aggregator.
func NewAggregator(registry *descriptor.Registry, caps capability.Registry, counter Counter) *Aggregator {
	return &Aggregator{registry: registry, caps: caps, counter: counter}
}

// Build returns the dashboard sections in descriptor registration order.
// A count failure degrades that card to 0; it never fails the dashboard.
func (a *Aggregator) Build(ctx context.Context) []Section {
	importExport := a.caps.Enabled(capability.ImportExport)

	var sections []Section
	index := map[string]int{}

	for _, e := range a.registry.List() {
		if !a.caps.Enabled(e.Module) {
			continue
		}

		count, err := a.counter.Count(ctx, e)
		if err != nil {
			logger.Warn(ctx, "dashboard count failed", "entity", e.Key, "error", err)
			count = 0
		}

		card := Card{
			Key:    e.Key,
			Title:  e.TitlePlural,
			Module: e.Module,
			Count:  count,
			URL:    fmt.Sprintf("/api/v1/%s/%s", e.Module, e.Key),
		}
		if importExport && e.ImportExportKey != "" {
			card.ImportURL = "/api/v1/master-data/import-export/import?type=" + e.ImportExportKey
			card.ExportURL = "/api/v1/master-data/import-export/export?type=" + e.ImportExportKey
			card.TemplateURL = "/api/v1/master-data/import-export/template?type=" + e.ImportExportKey
		}

		name := e.Section
		if name == "" {
			name = e.Module
		}
		i, ok := index[name]
		if !ok {
			sections = append(sections, Section{Name: name})
			i = len(sections) - 1
			index[name] = i
		}
		sections[i].Cards = append(sections[i].Cards, card)
	}

	return sections
}
