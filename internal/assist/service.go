package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightpath-health/careassist/internal/llm"
	"github.com/lightpath-health/careassist/internal/metrics"
	"github.com/lightpath-health/careassist/internal/patient"
	"github.com/lightpath-health/careassist/internal/protocol"
	"github.com/lightpath-health/careassist/internal/tasks"
)

// ErrUnknownTask indicates the task ID is not in the catalog.
var ErrUnknownTask = errors.New("unknown task")

// ProtocolResolver finds the care protocol for a task code.
type ProtocolResolver interface {
	Resolve(ctx context.Context, taskCode string) (*protocol.Record, error)
}

// Generator produces a completion from a system and user prompt.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, llm.Usage, error)
}

// Request identifies one task assistance generation.
type Request struct {
	TaskID       string
	PatientIndex int
	Role         string
	Refresh      bool
}

// ProtocolView is the protocol-only response for a task, without
// generating assistance.
type ProtocolView struct {
	TaskID              string         `json:"task_id"`
	TaskName            string         `json:"task_name"`
	TaskTitle           string         `json:"task_title"`
	Priority            string         `json:"priority"`
	Category            string         `json:"category"`
	PatientName         string         `json:"patient_name"`
	PatientIndex        int            `json:"patient_index"`
	Protocol            map[string]any `json:"protocol"`
	HasCachedAssistance bool           `json:"has_cached_assistance"`
}

// Service orchestrates protocol retrieval, prompt assembly, LLM
// generation, and the flat-file cache.
type Service struct {
	protocols ProtocolResolver
	generator Generator
	patients  *patient.Store
	cache     *Cache
	catalog   *tasks.Catalog
	collector *metrics.Collector
}

// NewService wires the assistance pipeline.
func NewService(protocols ProtocolResolver, generator Generator, patients *patient.Store, cache *Cache, catalog *tasks.Catalog, collector *metrics.Collector) *Service {
	return &Service{
		protocols: protocols,
		generator: generator,
		patients:  patients,
		cache:     cache,
		catalog:   catalog,
		collector: collector,
	}
}

// Assist returns the detail view for a request, serving from cache
// unless Refresh is set. A fresh generation is cached before return,
// so repeating the same request is idempotent.
func (s *Service) Assist(ctx context.Context, req Request) (DetailView, error) {
	if _, ok := s.catalog.Get(req.TaskID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, req.TaskID)
	}

	if !req.Refresh {
		start := time.Now()
		env, hit, err := s.cache.Get(req.TaskID, req.PatientIndex, req.Role)
		s.collector.RecordTiming(metrics.OpCacheRead, time.Since(start))
		if err != nil {
			return nil, err
		}
		if hit {
			slog.Info("task assistance cache hit",
				"task", req.TaskID, "patient", req.PatientIndex, "role", req.Role)
			view := env.DetailView.clone()
			view["from_cache"] = true
			view["cached_timestamp"] = env.Timestamp
			return view, nil
		}
		slog.Debug("task assistance cache miss",
			"task", req.TaskID, "patient", req.PatientIndex, "role", req.Role)
	}

	start := time.Now()
	chart, err := s.patients.Get(req.PatientIndex)
	s.collector.RecordTiming(metrics.OpPatientIO, time.Since(start))
	if err != nil {
		return nil, err
	}

	start = time.Now()
	proto, err := s.protocols.Resolve(ctx, req.TaskID)
	s.collector.RecordTiming(metrics.OpProtocolSearch, time.Since(start))
	if err != nil {
		return nil, err
	}

	clinicMember := chart.ClinicMember()
	clinicContext := ClinicContext(clinicMember)

	userPrompt, err := BuildPrompt(req.Role, clinicContext, clinicMember, chart, *proto)
	if err != nil {
		return nil, err
	}

	slog.Info("generating task assistance",
		"task", req.TaskID, "patient", req.PatientIndex, "role", req.Role, "clinic", clinicContext)

	start = time.Now()
	raw, usage, err := s.generator.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	s.collector.RecordLLMUsage(metrics.OpLLMGenerate, time.Since(start),
		int64(usage.PromptTokens), int64(usage.CompletionTokens))
	if err != nil {
		return nil, fmt.Errorf("generate assistance: %w", err)
	}

	view, err := ParseDetailView(raw)
	if err != nil {
		return nil, err
	}

	view["protocol"] = protocolPayload(*proto)
	view["user_context"] = map[string]any{
		"role":           req.Role,
		"clinic_context": clinicContext,
		"clinic_member":  clinicMember,
	}

	start = time.Now()
	path, err := s.cache.Put(req.TaskID, req.PatientIndex, req.Role, chart.Name(), view)
	s.collector.RecordTiming(metrics.OpCacheWrite, time.Since(start))
	if err != nil {
		return nil, err
	}

	result := view.clone()
	result["saved_filepath"] = path
	result["from_cache"] = false
	return result, nil
}

// Protocol retrieves the protocol for a task without generating
// assistance, reporting whether cached assistance already exists.
func (s *Service) Protocol(ctx context.Context, todoID string, patientIndex int, role string) (ProtocolView, error) {
	task, ok := s.catalog.Get(todoID)
	if !ok {
		return ProtocolView{}, fmt.Errorf("%w: %s", ErrUnknownTask, todoID)
	}

	start := time.Now()
	chart, err := s.patients.Get(patientIndex)
	s.collector.RecordTiming(metrics.OpPatientIO, time.Since(start))
	if err != nil {
		return ProtocolView{}, err
	}

	start = time.Now()
	proto, err := s.protocols.Resolve(ctx, todoID)
	s.collector.RecordTiming(metrics.OpProtocolSearch, time.Since(start))
	if err != nil {
		return ProtocolView{}, err
	}

	return ProtocolView{
		TaskID:              todoID,
		TaskName:            task.Name,
		TaskTitle:           task.Name,
		Priority:            task.Priority,
		Category:            task.Category,
		PatientName:         chart.Name(),
		PatientIndex:        patientIndex,
		Protocol:            protocolPayload(*proto),
		HasCachedAssistance: s.cache.Exists(todoID, patientIndex, role),
	}, nil
}

// CachedTasks lists the catalog task IDs that have cached assistance
// for a patient and role.
func (s *Service) CachedTasks(patientIndex int, role string) []string {
	cached := []string{}
	for _, task := range s.catalog.All() {
		if s.cache.Exists(task.ID, patientIndex, role) {
			cached = append(cached, task.ID)
		}
	}
	return cached
}

func protocolPayload(proto protocol.Record) map[string]any {
	return map[string]any{
		"task_code": orNA(proto.TaskCode),
		"task_name": orNA(proto.TaskName),
		"priority":  orNA(proto.Priority),
		"content":   orNA(proto.Content),
		"full_text": proto.FullText,
	}
}
