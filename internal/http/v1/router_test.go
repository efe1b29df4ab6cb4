package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterdata/internal/core/capability"
	"masterdata/internal/descriptor"
	"masterdata/internal/engine"
	"masterdata/internal/importexport"
	"masterdata/internal/storage/memory"
	"masterdata/pkg/logger"
)

type testEnv struct {
	router http.Handler
	caps   capability.Static
	addon  *recordingAddon
}

type recordingAddon struct {
	calls int
}

func (a *recordingAddon) Template(context.Context, string) (*importexport.TemplateFile, error) {
	a.calls++
	return &importexport.TemplateFile{FileName: "template.xlsx"}, nil
}

func (a *recordingAddon) Import(context.Context, importexport.ImportRequest) (*importexport.JobStatus, error) {
	a.calls++
	return &importexport.JobStatus{JobID: "job-1", State: "queued"}, nil
}

func (a *recordingAddon) Export(context.Context, importexport.ExportRequest) (*importexport.JobStatus, error) {
	a.calls++
	return &importexport.JobStatus{JobID: "job-2", State: "queued"}, nil
}

func (a *recordingAddon) Status(context.Context, string) (*importexport.JobStatus, error) {
	a.calls++
	return &importexport.JobStatus{JobID: "job-1", State: "done"}, nil
}

func newTestEnv(t *testing.T, caps capability.Static, resolve importexport.Resolver) *testEnv {
	t.Helper()

	reg := descriptor.NewRegistry()
	reg.MustRegister(descriptor.Descriptor{
		Key: "task_priorities", Table: "task_priorities",
		TitleSingular: "Task Priority", TitlePlural: "Task Priorities",
		Module: capability.ModuleProjects, Section: "Tasks",
		SearchableFields: []string{"name"},
		FillableFields:   []string{"name", "color", "level"},
		Rules: map[string]string{
			"name":  "required|string|max:64",
			"level": "integer|min:0|max:10",
		},
		ImportExportKey: "task-priority",
	})
	reg.MustRegister(descriptor.Descriptor{
		Key: "holidays", Table: "holidays",
		TitleSingular: "Holiday", TitlePlural: "Holidays",
		Module:         capability.ModuleHR,
		FillableFields: []string{"name", "date"},
		Rules:          map[string]string{"name": "required", "date": "required|date"},
	})

	eng := engine.NewService(memory.NewStore(), nil, nil)
	log, err := logger.New(logger.Config{Level: "error"})
	require.NoError(t, err)

	env := &testEnv{caps: caps}
	router := NewRouter(RouterConfig{
		Registry:     reg,
		Capabilities: caps,
		Engine:       eng,
		ImportExport: importexport.NewDelegate(caps, reg, resolve),
		Logger:       log,
	})
	env.router = router
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func allCaps() capability.Static {
	return capability.AllEnabled(
		capability.ModuleProjects, capability.ModuleHR, capability.ImportExport)
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodPost, "/api/v1/projects/task_priorities",
		map[string]any{"color": "#fff", "level": 99})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	details := body["details"].(map[string]any)
	fields := details["fields"].(map[string]any)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be at most 10", fields["level"])

	// Nothing persisted: the grid is still empty.
	w = env.do(t, http.MethodGet, "/api/v1/projects/task_priorities/data", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total_count"])
}

func TestCreate_FillableBounding(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodPost, "/api/v1/projects/task_priorities",
		map[string]any{"name": "Critical", "hacked_field": "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Critical", data["name"])
	_, leaked := data["hacked_field"]
	assert.False(t, leaked)
}

func TestCrudRoundTrip(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodPost, "/api/v1/projects/task_priorities",
		map[string]any{"name": "High", "level": 7})
	require.Equal(t, http.StatusCreated, w.Code)
	recID := decode(t, w)["data"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodGet, "/api/v1/projects/task_priorities/"+recID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "High", decode(t, w)["name"])

	w = env.do(t, http.MethodPut, "/api/v1/projects/task_priorities/"+recID,
		map[string]any{"level": 9})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(9), data["level"])
	assert.Equal(t, "High", data["name"])

	// Delete is idempotent at the not-found level: second call is 404.
	w = env.do(t, http.MethodDelete, "/api/v1/projects/task_priorities/"+recID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/projects/task_priorities/"+recID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTabularData_Search(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	for _, name := range []string{"Critical", "High", "Normal"} {
		w := env.do(t, http.MethodPost, "/api/v1/projects/task_priorities",
			map[string]any{"name": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/v1/projects/task_priorities/data?search=cri", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(3), body["total_count"])
	assert.Equal(t, float64(1), body["filtered_count"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	cells := rows[0].(map[string]any)["cells"].(map[string]any)
	assert.Equal(t, "Critical", cells["name"])
}

func TestListingShellAndForms(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodGet, "/api/v1/projects/task_priorities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	shell := decode(t, w)
	assert.Equal(t, "Task Priorities", shell["title"])
	assert.Equal(t, "/api/v1/projects/task_priorities/data", shell["data_url"])

	w = env.do(t, http.MethodGet, "/api/v1/projects/task_priorities/create", nil)
	require.Equal(t, http.StatusOK, w.Code)
	form := decode(t, w)
	record := form["record"].(map[string]any)
	assert.Contains(t, record, "name")
	assert.Contains(t, record, "color")
}

func TestModuleCapabilityGatesRoutes(t *testing.T) {
	// HR module off: its routes are not registered at all.
	caps := capability.AllEnabled(capability.ModuleProjects)
	env := newTestEnv(t, caps, nil)

	w := env.do(t, http.MethodGet, "/api/v1/hr/holidays", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/projects/task_priorities", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodPost, "/api/v1/projects/task_priorities",
		map[string]any{"name": "Critical"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/master-data/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	sections := decode(t, w)["sections"].([]any)
	require.Len(t, sections, 2)
	tasks := sections[0].(map[string]any)
	assert.Equal(t, "Tasks", tasks["name"])
	card := tasks["cards"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(1), card["count"])
	assert.Equal(t, "/api/v1/master-data/import-export/import?type=task-priority", card["import_url"])
}

func TestImportExport_CapabilityDisabled(t *testing.T) {
	caps := capability.AllEnabled(capability.ModuleProjects, capability.ModuleHR)
	addon := &recordingAddon{}
	env := newTestEnv(t, caps, func() importexport.Addon { return addon })

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("type", "task-priority"))
	fw, err := mw.CreateFormFile("file", "rows.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("name\nCritical\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/master-data/import-export/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error": "Import/Export functionality is not available"}`, w.Body.String())
	assert.Zero(t, addon.calls)
}

func TestImportExport_AddonMissing(t *testing.T) {
	env := newTestEnv(t, allCaps(), func() importexport.Addon { return nil })

	w := env.do(t, http.MethodGet, "/api/v1/master-data/import-export/template?type=task-priority", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error": "Import service not available"}`, w.Body.String())
}

func TestImportExport_ExportForwarded(t *testing.T) {
	addon := &recordingAddon{}
	env := newTestEnv(t, allCaps(), func() importexport.Addon { return addon })

	w := env.do(t, http.MethodPost, "/api/v1/master-data/import-export/export",
		map[string]any{"type": "task-priority", "format": "pdf"})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "job-2", decode(t, w)["job_id"])
	assert.Equal(t, 1, addon.calls)

	w = env.do(t, http.MethodPost, "/api/v1/master-data/import-export/export",
		map[string]any{"type": "task-priority", "format": "docx"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
}

func TestMetaEndpoints(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodGet, "/api/v1/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	assert.Len(t, items, 2)

	w = env.do(t, http.MethodGet, "/api/v1/meta/task_priorities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := decode(t, w)
	assert.Equal(t, "task-priority", meta["import_export_key"])

	w = env.do(t, http.MethodGet, "/api/v1/meta/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, allCaps(), nil)

	w := env.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// In-memory mode has no DB: ready is still ok.
	w = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
