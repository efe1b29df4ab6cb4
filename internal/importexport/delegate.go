// Package importexport is the capability-gated facade in front of the
// optional bulk import/export addon. It owns no job state: requests are
// validated for shape and forwarded verbatim.
package importexport

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"masterdata/internal/core/apperror"
	"masterdata/internal/core/capability"
	"masterdata/internal/descriptor"
)

// GateError is the uniform `{"error": "..."}` body returned when the
// feature cannot be served. It deliberately bypasses the standard error
// envelope: the wire shape is part of the contract.
type GateError struct {
	Status  int
	Message string
}

func (e *GateError) Error() string {
	return e.Message
}

// AsGateError extracts a GateError from an error chain.
func AsGateError(err error) (*GateError, bool) {
	ge, ok := err.(*GateError)
	return ge, ok
}

var errDisabled = &GateError{
	Status:  http.StatusNotFound,
	Message: "Import/Export functionality is not available",
}

func errAddonMissing(service string) *GateError {
	return &GateError{
		Status:  http.StatusServiceUnavailable,
		Message: service + " service not available",
	}
}

// TemplateFile is a downloadable import template.
type TemplateFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ImportRequest is a bulk import submission.
type ImportRequest struct {
	EntityKey string
	FileName  string
	File      io.Reader
	Options   map[string]any
}

// ExportRequest is a bulk export submission.
type ExportRequest struct {
	EntityKey string
	Format    string
	Filters   map[string]any
}

// JobStatus is the addon's opaque view of an asynchronous job.
type JobStatus struct {
	JobID  string         `json:"job_id"`
	State  string         `json:"state"`
	Detail map[string]any `json:"detail,omitempty"`
}

// Addon is the contract of the optional import/export subsystem. Job
// lifecycle is owned entirely on that side.
type Addon interface {
	Template(ctx context.Context, entityKey string) (*TemplateFile, error)
	Import(ctx context.Context, req ImportRequest) (*JobStatus, error)
	Export(ctx context.Context, req ExportRequest) (*JobStatus, error)
	Status(ctx context.Context, jobID string) (*JobStatus, error)
}

// Resolver locates the addon at forward-time. Returning nil means the
// capability flag says "enabled" but the installation is inconsistent.
type Resolver func() Addon

// Accepted upload extensions and export formats.
var (
	uploadExtensions = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}
	exportFormats    = map[string]bool{"csv": true, "xlsx": true, "pdf": true}
)

// Delegate fronts the addon. Every operation checks the capability flag
// first; when disabled it short-circuits without touching the addon.
type Delegate struct {
	caps     capability.Registry
	registry *descriptor.Registry
	resolve  Resolver
}

// NewDelegate creates the facade. resolve may be nil (no addon shipped).
func NewDelegate(caps capability.Registry, registry *descriptor.Registry, resolve Resolver) *Delegate {
	return &Delegate{caps: caps, registry: registry, resolve: resolve}
}

func (d *Delegate) gate() error {
	if !d.caps.Enabled(capability.ImportExport) {
		return errDisabled
	}
	return nil
}

func (d *Delegate) addon(service string) (Addon, error) {
	if d.resolve == nil {
		return nil, errAddonMissing(service)
	}
	a := d.resolve()
	if a == nil {
		return nil, errAddonMissing(service)
	}
	return a, nil
}

func (d *Delegate) entity(typeKey string) (*descriptor.Entity, error) {
	if typeKey == "" {
		return nil, apperror.NewValidation("type is required")
	}
	e, ok := d.registry.ByImportExportKey(typeKey)
	if !ok {
		return nil, apperror.NewValidation("unknown import/export type").WithDetail("type", typeKey)
	}
	return e, nil
}

// Entry describes one importable/exportable entity type for the UI
// entry point.
type Entry struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// Overview lists every entity type the addon can work with.
func (d *Delegate) Overview(ctx context.Context) ([]Entry, error) {
	if err := d.gate(); err != nil {
		return nil, err
	}

	var entries []Entry
	for _, e := range d.registry.List() {
		if e.ImportExportKey == "" || !d.caps.Enabled(e.Module) {
			continue
		}
		entries = append(entries, Entry{Type: e.ImportExportKey, Title: e.TitlePlural})
	}
	return entries, nil
}

// Template fetches the import template for an entity type.
func (d *Delegate) Template(ctx context.Context, typeKey string) (*TemplateFile, error) {
	if err := d.gate(); err != nil {
		return nil, err
	}
	if _, err := d.entity(typeKey); err != nil {
		return nil, err
	}
	addon, err := d.addon("Import")
	if err != nil {
		return nil, err
	}
	return addon.Template(ctx, typeKey)
}

// Import validates the submission shape and forwards it.
func (d *Delegate) Import(ctx context.Context, req ImportRequest) (*JobStatus, error) {
	if err := d.gate(); err != nil {
		return nil, err
	}
	if _, err := d.entity(req.EntityKey); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if req.File == nil || !uploadExtensions[ext] {
		return nil, apperror.NewValidation("file must be one of: csv, xlsx, xls").
			WithDetail("file_name", req.FileName)
	}
	addon, err := d.addon("Import")
	if err != nil {
		return nil, err
	}
	return addon.Import(ctx, req)
}

// Export validates the requested format and forwards the submission.
func (d *Delegate) Export(ctx context.Context, req ExportRequest) (*JobStatus, error) {
	if err := d.gate(); err != nil {
		return nil, err
	}
	if _, err := d.entity(req.EntityKey); err != nil {
		return nil, err
	}
	if !exportFormats[strings.ToLower(req.Format)] {
		return nil, apperror.NewValidation("format must be one of: csv, xlsx, pdf").
			WithDetail("format", req.Format)
	}
	addon, err := d.addon("Export")
	if err != nil {
		return nil, err
	}
	return addon.Export(ctx, req)
}

// Status polls an opaque job id.
func (d *Delegate) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	if err := d.gate(); err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, apperror.NewValidation("job_id is required")
	}
	addon, err := d.addon("Import")
	if err != nil {
		return nil, err
	}
	return addon.Status(ctx, jobID)
}
