package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"masterdata/internal/core/actor"
	"masterdata/internal/core/apperror"
	"masterdata/internal/core/id"
	"masterdata/internal/descriptor"
	"masterdata/internal/engine"
	"masterdata/internal/http/v1/dto"
	"masterdata/internal/metrics"
	"masterdata/internal/storage/postgres"
)

// Historian serves per-record audit trails. Nil when auditing is off.
type Historian interface {
	History(ctx context.Context, entityKey string, recordID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// MasterDataHandler is the generic handler behind every registered entity
// type's routes. The entity comes from the route registration closure.
type MasterDataHandler struct {
	*BaseHandler
	engine  *engine.Service
	history Historian
}

// NewMasterDataHandler creates the generic handler.
func NewMasterDataHandler(base *BaseHandler, eng *engine.Service, history Historian) *MasterDataHandler {
	return &MasterDataHandler{BaseHandler: base, engine: eng, history: history}
}

// RegisterEntity mounts the CRUD routes for one entity type under its
// module group.
func (h *MasterDataHandler) RegisterEntity(moduleGroup *gin.RouterGroup, e *descriptor.Entity) {
	g := moduleGroup.Group("/" + e.Key)

	g.GET("", h.listing(e))
	g.GET("/data", h.data(e))
	g.GET("/create", h.createForm(e))
	g.POST("", h.create(e))
	g.GET("/:id", h.get(e))
	g.GET("/:id/edit", h.editForm(e))
	g.GET("/:id/history", h.recordHistory(e))
	g.PUT("/:id", h.update(e))
	g.DELETE("/:id", h.remove(e))
}

// listing handles GET /{module}/{entity}: the listing page shell.
func (h *MasterDataHandler) listing(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		input := actor.FromContext(c.Request.Context()).PredicateInput()
		base := fmt.Sprintf("/api/v1/%s/%s", e.Module, e.Key)
		c.JSON(http.StatusOK, dto.ListingShell{
			Entity:    e.Key,
			Title:     e.TitlePlural,
			Module:    e.Module,
			Columns:   e.FillableFields,
			CanCreate: e.Can(descriptor.ActionCreate, input),
			DataURL:   base + "/data",
			CreateURL: base + "/create",
		})
	}
}

// data handles GET /{module}/{entity}/data: the grid rows.
func (h *MasterDataHandler) data(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := h.engine.TabularData(c.Request.Context(), e, engine.GridQuery{
			Search: c.Query("search"),
			Sort:   c.Query("sort"),
			Limit:  h.ParseIntQuery(c, "limit", 0),
			Offset: h.ParseIntQuery(c, "offset", 0),
		})
		if err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// createForm handles GET /{module}/{entity}/create.
func (h *MasterDataHandler) createForm(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.FormResponse{
			Entity: e.Key,
			Title:  e.TitleSingular,
			Fields: e.FormFields(),
			Record: e.EmptyRecord(),
		})
	}
}

// create handles POST /{module}/{entity}.
func (h *MasterDataHandler) create(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input map[string]any
		if !h.BindJSON(c, &input) {
			return
		}

		rec, err := h.engine.Create(c.Request.Context(), e, input)
		if err != nil {
			h.Error(c, err)
			return
		}

		metrics.RecordMutation(e.Key, engine.AuditCreate)
		c.JSON(http.StatusCreated, dto.Success(e.TitleSingular+" created successfully", rec))
	}
}

// get handles GET /{module}/{entity}/:id.
func (h *MasterDataHandler) get(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := h.recordID(c)
		if !ok {
			return
		}

		rec, err := h.engine.Get(c.Request.Context(), e, recordID)
		if err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// editForm handles GET /{module}/{entity}/:id/edit.
func (h *MasterDataHandler) editForm(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := h.recordID(c)
		if !ok {
			return
		}

		rec, err := h.engine.Get(c.Request.Context(), e, recordID)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.FormResponse{
			Entity: e.Key,
			Title:  e.TitleSingular,
			Fields: e.FormFields(),
			Record: rec,
		})
	}
}

// update handles PUT /{module}/{entity}/:id.
func (h *MasterDataHandler) update(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := h.recordID(c)
		if !ok {
			return
		}

		var input map[string]any
		if !h.BindJSON(c, &input) {
			return
		}

		rec, err := h.engine.Update(c.Request.Context(), e, recordID, input)
		if err != nil {
			h.Error(c, err)
			return
		}

		metrics.RecordMutation(e.Key, engine.AuditUpdate)
		c.JSON(http.StatusOK, dto.Success(e.TitleSingular+" updated successfully", rec))
	}
}

// remove handles DELETE /{module}/{entity}/:id.
func (h *MasterDataHandler) remove(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := h.recordID(c)
		if !ok {
			return
		}

		if err := h.engine.Delete(c.Request.Context(), e, recordID); err != nil {
			h.Error(c, err)
			return
		}

		metrics.RecordMutation(e.Key, engine.AuditDelete)
		c.JSON(http.StatusOK, dto.Success(e.TitleSingular+" deleted successfully", nil))
	}
}

// recordHistory handles GET /{module}/{entity}/:id/history.
func (h *MasterDataHandler) recordHistory(e *descriptor.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		recordID, ok := h.recordID(c)
		if !ok {
			return
		}

		if h.history == nil {
			c.JSON(http.StatusOK, gin.H{"items": []any{}})
			return
		}

		limit := h.ParseIntQuery(c, "limit", 50)
		entries, err := h.history.History(c.Request.Context(), e.Key, recordID, limit)
		if err != nil {
			h.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": entries})
	}
}

func (h *MasterDataHandler) recordID(c *gin.Context) (id.ID, bool) {
	recordID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return recordID, true
}
