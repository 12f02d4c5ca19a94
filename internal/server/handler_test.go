package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightpath-health/careassist/internal/assist"
	"github.com/lightpath-health/careassist/internal/metrics"
	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/pinecone"
	"github.com/lightpath-health/careassist/internal/protocol"
	"github.com/lightpath-health/careassist/internal/tasks"
)

type fakeAssist struct {
	view        assist.DetailView
	protoView   assist.ProtocolView
	cachedTasks []string
	err         error

	lastRequest assist.Request
}

func (f *fakeAssist) Assist(ctx context.Context, req assist.Request) (assist.DetailView, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeAssist) Protocol(ctx context.Context, todoID string, patientIndex int, role string) (assist.ProtocolView, error) {
	if f.err != nil {
		return assist.ProtocolView{}, f.err
	}
	return f.protoView, nil
}

func (f *fakeAssist) CachedTasks(patientIndex int, role string) []string {
	return f.cachedTasks
}

type fakeSearcher struct {
	results []protocol.Record
	stats   *pinecone.IndexStats
	err     error

	lastQuery   string
	lastFilters protocol.Filters
	lastTopK    int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, filters protocol.Filters, topK int) ([]protocol.Record, error) {
	f.lastQuery, f.lastFilters, f.lastTopK = query, filters, topK
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearcher) Stats(ctx context.Context) (*pinecone.IndexStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func newTestRouter(t *testing.T, fa *fakeAssist, fs *fakeSearcher) http.Handler {
	t.Helper()

	store, err := patient.NewStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save(0, patient.Record{
		"demographics": map[string]any{"name": "Maria Garcia"},
	})
	require.NoError(t, err)

	catalog, err := tasks.Load("")
	require.NoError(t, err)

	h := NewHandler(fa, fs, store, catalog, metrics.NewCollector())
	return NewRouter(h, nil)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTodosEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/todos", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var todos []tasks.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	assert.Len(t, todos, 31)
}

func TestPatientEndpoints(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/patients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []patient.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "Maria Garcia", summaries[0].Demographics["name"])

	rec = doJSON(t, router, http.MethodGet, "/api/patient/0", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/patient/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/patient/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskAssistanceEndpoint(t *testing.T) {
	fa := &fakeAssist{view: assist.DetailView{"task_title": "Hyperglycemia > 400, daily"}}
	router := newTestRouter(t, fa, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/task-assistance/BGM-104/0/RN?refresh=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "BGM-104", fa.lastRequest.TaskID)
	assert.Equal(t, 0, fa.lastRequest.PatientIndex)
	assert.Equal(t, "RN", fa.lastRequest.Role)
	assert.True(t, fa.lastRequest.Refresh)

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Hyperglycemia > 400, daily", view["task_title"])
}

func TestTaskAssistanceRejectsUnknownRole(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/task-assistance/BGM-104/0/MD", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskAssistanceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown task", assist.ErrUnknownTask, http.StatusNotFound},
		{"patient missing", patient.ErrNotFound, http.StatusNotFound},
		{"protocol missing", protocol.ErrNotFound, http.StatusNotFound},
		{"index down", pinecone.ErrIndexUnavailable, http.StatusBadGateway},
		{"bad model output", assist.ErrMalformedResponse, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeAssist{err: tt.err}, &fakeSearcher{})
			rec := doJSON(t, router, http.MethodGet, "/api/task-assistance/BGM-104/0/RN", nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetProtocolEndpoint(t *testing.T) {
	fa := &fakeAssist{protoView: assist.ProtocolView{
		TaskID:   "BGM-104",
		TaskName: "Hyperglycemia > 400, daily",
	}}
	router := newTestRouter(t, fa, &fakeSearcher{})

	idx := 0
	rec := doJSON(t, router, http.MethodPost, "/api/get-protocol", map[string]any{
		"todo_id": "BGM-104", "patient_index": idx,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view assist.ProtocolView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "BGM-104", view.TaskID)

	rec = doJSON(t, router, http.MethodPost, "/api/get-protocol", map[string]any{"todo_id": "BGM-104"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	fs := &fakeSearcher{results: []protocol.Record{{TaskCode: "BGM-104", Score: 0.91}}}
	router := newTestRouter(t, &fakeAssist{}, fs)

	rec := doJSON(t, router, http.MethodPost, "/api/search", map[string]any{
		"query": "severe hyperglycemia", "priority": "P0", "top_k": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "severe hyperglycemia", fs.lastQuery)
	assert.Equal(t, "P0", fs.lastFilters.Priority)
	assert.Equal(t, 5, fs.lastTopK)

	var resp struct {
		Results []protocol.Record `json:"results"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = doJSON(t, router, http.MethodPost, "/api/search", map[string]any{"top_k": 5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{err: pinecone.ErrIndexUnavailable})

	rec := doJSON(t, router, http.MethodPost, "/api/search", map[string]any{"query": "bp"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCheckCachedTasksEndpoint(t *testing.T) {
	fa := &fakeAssist{cachedTasks: []string{"BGM-104", "BP-105"}}
	router := newTestRouter(t, fa, &fakeSearcher{})

	idx := 0
	rec := doJSON(t, router, http.MethodPost, "/api/check-cached-tasks", map[string]any{
		"patient_index": idx,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		CachedTaskIDs []string `json:"cached_task_ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"BGM-104", "BP-105"}, resp.CachedTaskIDs)

	rec = doJSON(t, router, http.MethodPost, "/api/check-cached-tasks", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSavePatientEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/save-patient", map[string]any{
		"patient_index": 1,
		"patient_data": map[string]any{
			"demographics": map[string]any{"name": "Robert Chen"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success   bool   `json:"success"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Timestamp)

	rec = doJSON(t, router, http.MethodGet, "/api/patient/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Robert Chen"))

	rec = doJSON(t, router, http.MethodPost, "/api/save-patient", map[string]any{"patient_index": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	fs := &fakeSearcher{stats: &pinecone.IndexStats{TotalRecordCount: 74}}
	router := newTestRouter(t, &fakeAssist{}, fs)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(74), resp["protocol_records"])
}

func TestHealthDegradedWhenIndexDown(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{err: pinecone.ErrIndexUnavailable})

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}

func TestStatsEndpoint(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.GreaterOrEqual(t, snap.UptimeSeconds, float64(0))
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, &fakeAssist{}, &fakeSearcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/todos", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	assert.Equal(t, "abc-123", rec2.Header().Get("X-Request-ID"))
}
