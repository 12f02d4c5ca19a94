// Package server provides the HTTP API for the task assistance console.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lightpath-health/careassist/internal/assist"
	"github.com/lightpath-health/careassist/internal/metrics"
	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/pinecone"
	"github.com/lightpath-health/careassist/internal/protocol"
	"github.com/lightpath-health/careassist/internal/tasks"
)

// AssistService is the task assistance pipeline the handlers call into.
type AssistService interface {
	Assist(ctx context.Context, req assist.Request) (assist.DetailView, error)
	Protocol(ctx context.Context, todoID string, patientIndex int, role string) (assist.ProtocolView, error)
	CachedTasks(patientIndex int, role string) []string
}

// ProtocolSearcher exposes reranked protocol search and index stats.
type ProtocolSearcher interface {
	Search(ctx context.Context, query string, filters protocol.Filters, topK int) ([]protocol.Record, error)
	Stats(ctx context.Context) (*pinecone.IndexStats, error)
}

// Handler holds the dependencies shared by all API handlers.
type Handler struct {
	assist    AssistService
	protocols ProtocolSearcher
	patients  *patient.Store
	catalog   *tasks.Catalog
	collector *metrics.Collector
}

// NewHandler creates a Handler with common dependencies.
func NewHandler(assistSvc AssistService, protocols ProtocolSearcher, patients *patient.Store, catalog *tasks.Catalog, collector *metrics.Collector) *Handler {
	return &Handler{
		assist:    assistSvc,
		protocols: protocols,
		patients:  patients,
		catalog:   catalog,
		collector: collector,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// serviceError maps domain errors onto HTTP status codes.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assist.ErrUnknownTask),
		errors.Is(err, patient.ErrNotFound),
		errors.Is(err, protocol.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pinecone.ErrIndexUnavailable),
		errors.Is(err, assist.ErrMalformedResponse):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// RegisterRoutes mounts all API endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/todos", h.handleTodos)
	r.Get("/api/patients", h.handlePatients)
	r.Get("/api/patient/{index}", h.handlePatient)
	r.Get("/api/task-assistance/{task}/{patient}/{role}", h.handleTaskAssistance)
	r.Post("/api/get-protocol", h.handleGetProtocol)
	r.Post("/api/search", h.handleSearch)
	r.Post("/api/check-cached-tasks", h.handleCheckCachedTasks)
	r.Post("/api/save-patient", h.handleSavePatient)
	r.Get("/api/health", h.handleHealth)
	r.Get("/api/stats", h.handleStats)
}

func (h *Handler) handleTodos(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.catalog.All())
}

func (h *Handler) handlePatients(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.patients.List()
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, summaries)
}

func (h *Handler) handlePatient(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		Error(w, http.StatusBadRequest, "invalid patient index")
		return
	}

	rec, err := h.patients.Get(index)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleTaskAssistance(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task")
	index, err := strconv.Atoi(chi.URLParam(r, "patient"))
	if err != nil || index < 0 {
		Error(w, http.StatusBadRequest, "invalid patient index")
		return
	}
	role, ok := assist.NormalizeRole(chi.URLParam(r, "role"))
	if !ok {
		Error(w, http.StatusBadRequest, "unknown role: "+role)
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	view, err := h.assist.Assist(r.Context(), assist.Request{
		TaskID:       taskID,
		PatientIndex: index,
		Role:         role,
		Refresh:      refresh,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetProtocol(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TodoID       string `json:"todo_id"`
		PatientIndex *int   `json:"patient_index"`
		Role         string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TodoID == "" || req.PatientIndex == nil {
		Error(w, http.StatusBadRequest, "missing todo_id or patient_index")
		return
	}
	role, ok := assist.NormalizeRole(req.Role)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown role: "+role)
		return
	}

	view, err := h.assist.Protocol(r.Context(), req.TodoID, *req.PatientIndex, role)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, view)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query    string `json:"query"`
		Priority string `json:"priority"`
		Program  string `json:"program"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		Error(w, http.StatusBadRequest, "missing query")
		return
	}

	results, err := h.protocols.Search(r.Context(), req.Query, protocol.Filters{
		Priority: req.Priority,
		Program:  req.Program,
	}, req.TopK)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (h *Handler) handleCheckCachedTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientIndex *int   `json:"patient_index"`
		Role         string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientIndex == nil {
		Error(w, http.StatusBadRequest, "missing patient_index")
		return
	}
	role, ok := assist.NormalizeRole(req.Role)
	if !ok {
		Error(w, http.StatusBadRequest, "unknown role: "+role)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"cached_task_ids": h.assist.CachedTasks(*req.PatientIndex, role),
	})
}

func (h *Handler) handleSavePatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientIndex *int           `json:"patient_index"`
		PatientData  patient.Record `json:"patient_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientIndex == nil || req.PatientData == nil {
		Error(w, http.StatusBadRequest, "missing patient_index or patient_data")
		return
	}

	timestamp, err := h.patients.Save(*req.PatientIndex, req.PatientData)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"success": true, "timestamp": timestamp})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "healthy"}

	stats, err := h.protocols.Stats(r.Context())
	if err != nil {
		slog.Warn("index stats unavailable", "error", err)
		resp["status"] = "degraded"
	} else {
		resp["protocol_records"] = stats.TotalRecordCount
	}

	JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.collector.Snapshot())
}
