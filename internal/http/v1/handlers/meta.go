package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"masterdata/internal/core/apperror"
	"masterdata/internal/descriptor"
)

// entityMeta is the wire shape of one descriptor.
type entityMeta struct {
	Key             string                 `json:"key"`
	TitleSingular   string                 `json:"title_singular"`
	TitlePlural     string                 `json:"title_plural"`
	Module          string                 `json:"module"`
	Section         string                 `json:"section,omitempty"`
	Searchable      []string               `json:"searchable_fields"`
	Fields          []descriptor.FormField `json:"fields"`
	SoftDelete      bool                   `json:"soft_delete"`
	ImportExportKey string                 `json:"import_export_key,omitempty"`
}

// MetaHandler exposes descriptor metadata for generic UIs.
type MetaHandler struct {
	*BaseHandler
	registry *descriptor.Registry
}

// NewMetaHandler creates the metadata handler.
func NewMetaHandler(base *BaseHandler, registry *descriptor.Registry) *MetaHandler {
	return &MetaHandler{BaseHandler: base, registry: registry}
}

// List handles GET /meta.
func (h *MetaHandler) List(c *gin.Context) {
	entities := h.registry.List()
	items := make([]entityMeta, 0, len(entities))
	for _, e := range entities {
		items = append(items, toMeta(e))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get handles GET /meta/:key.
func (h *MetaHandler) Get(c *gin.Context) {
	key := c.Param("key")
	e, ok := h.registry.Get(key)
	if !ok {
		h.Error(c, apperror.NewNotFound("entity type", key))
		return
	}
	c.JSON(http.StatusOK, toMeta(e))
}

func toMeta(e *descriptor.Entity) entityMeta {
	return entityMeta{
		Key:             e.Key,
		TitleSingular:   e.TitleSingular,
		TitlePlural:     e.TitlePlural,
		Module:          e.Module,
		Section:         e.Section,
		Searchable:      e.SearchableFields,
		Fields:          e.FormFields(),
		SoftDelete:      e.SoftDelete,
		ImportExportKey: e.ImportExportKey,
	}
}
