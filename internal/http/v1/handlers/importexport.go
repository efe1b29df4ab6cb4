package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"masterdata/internal/core/apperror"
	"masterdata/internal/importexport"
)

// ImportExportHandler fronts the capability-gated import/export delegate.
type ImportExportHandler struct {
	*BaseHandler
	delegate *importexport.Delegate
}

// NewImportExportHandler creates the handler.
func NewImportExportHandler(base *BaseHandler, delegate *importexport.Delegate) *ImportExportHandler {
	return &ImportExportHandler{BaseHandler: base, delegate: delegate}
}

// Register mounts the import/export routes.
func (h *ImportExportHandler) Register(g *gin.RouterGroup) {
	ie := g.Group("/import-export")
	ie.GET("", h.Overview)
	ie.GET("/template", h.Template)
	ie.POST("/import", h.Import)
	ie.POST("/export", h.Export)
	ie.GET("/status", h.Status)
}

// Overview handles GET /master-data/import-export.
func (h *ImportExportHandler) Overview(c *gin.Context) {
	entries, err := h.delegate.Overview(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []importexport.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"types": entries})
}

// Template handles GET /master-data/import-export/template?type=.
func (h *ImportExportHandler) Template(c *gin.Context) {
	tmpl, err := h.delegate.Template(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.Error(c, err)
		return
	}

	contentType := tmpl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", `attachment; filename="`+tmpl.FileName+`"`)
	c.Data(http.StatusOK, contentType, tmpl.Content)
}

// Import handles POST /master-data/import-export/import.
// Multipart body: type (string), file (csv/xlsx/xls).
func (h *ImportExportHandler) Import(c *gin.Context) {
	req := importexport.ImportRequest{
		EntityKey: c.PostForm("type"),
	}

	fileHeader, err := c.FormFile("file")
	if err == nil && fileHeader != nil {
		f, err := fileHeader.Open()
		if err != nil {
			h.Error(c, apperror.NewValidation("cannot read uploaded file"))
			return
		}
		defer f.Close()
		req.FileName = fileHeader.Filename
		req.File = f
	}

	job, err := h.delegate.Import(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

type exportRequest struct {
	Type    string         `json:"type"`
	Format  string         `json:"format"`
	Filters map[string]any `json:"filters"`
}

// Export handles POST /master-data/import-export/export.
func (h *ImportExportHandler) Export(c *gin.Context) {
	var req exportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	job, err := h.delegate.Export(c.Request.Context(), importexport.ExportRequest{
		EntityKey: req.Type,
		Format:    req.Format,
		Filters:   req.Filters,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// Status handles GET /master-data/import-export/status?job_id=.
func (h *ImportExportHandler) Status(c *gin.Context) {
	job, err := h.delegate.Status(c.Request.Context(), c.Query("job_id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
