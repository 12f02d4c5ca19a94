package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/lightpath-health/careassist/internal/pinecone"
)

// sourceProtocol is one line of the clinical protocols JSONL export.
type sourceProtocol struct {
	ChunkID            string            `json:"chunk_id"`
	TaskCode           string            `json:"task_code"`
	TaskName           string            `json:"task_name"`
	Priority           string            `json:"priority"`
	Program            string            `json:"program"`
	Trigger            string            `json:"trigger"`
	TriggeringCriteria string            `json:"triggering_criteria"`
	Steps              map[string]string `json:"steps"`
	Roles              []string          `json:"roles"`
	Links              []string          `json:"links"`
	FullText           string            `json:"full_text"`
}

// Loader reads protocol chunks from JSONL and upserts them into the index.
type Loader struct {
	index     *pinecone.Client
	namespace string
}

// NewLoader creates a loader for the given index and namespace.
func NewLoader(index *pinecone.Client, namespace string) *Loader {
	return &Loader{index: index, namespace: namespace}
}

// LoadFile reads a JSONL file and uploads every protocol to the index.
// Returns the number of records uploaded.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open protocols file: %w", err)
	}
	defer f.Close()

	return l.Load(ctx, f)
}

// Load reads JSONL protocol chunks from r and uploads them.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	var records []map[string]any

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var p sourceProtocol
		if err := json.Unmarshal([]byte(text), &p); err != nil {
			return 0, fmt.Errorf("parse protocol line %d: %w", line, err)
		}

		records = append(records, indexRecord(p))
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read protocols: %w", err)
	}

	slog.Info("uploading protocol records", "count", len(records), "namespace", l.namespace)
	if err := l.index.UpsertRecords(ctx, l.namespace, records); err != nil {
		return 0, err
	}

	return len(records), nil
}

// indexRecord builds the searchable content block plus metadata for one chunk.
func indexRecord(p sourceProtocol) map[string]any {
	parts := []string{
		"Task: " + p.TaskName,
		"Code: " + p.TaskCode,
		"Priority: " + p.Priority,
		"Program: " + p.Program,
	}

	if p.Trigger != "" {
		parts = append(parts, "Trigger: "+p.Trigger)
	}
	if p.TriggeringCriteria != "" {
		parts = append(parts, "Criteria: "+p.TriggeringCriteria)
	}
	for _, variant := range stepVariantOrder(p.Steps) {
		parts = append(parts, fmt.Sprintf("Steps (%s): %s", variant, p.Steps[variant]))
	}
	if len(p.Roles) > 0 {
		parts = append(parts, "Roles: "+strings.Join(p.Roles, ", "))
	}

	record := map[string]any{
		"_id":       p.ChunkID,
		"content":   strings.Join(parts, "\n"),
		"task_code": p.TaskCode,
		"task_name": p.TaskName,
		"priority":  p.Priority,
		"program":   p.Program,
		"trigger":   p.Trigger,
		"full_text": p.FullText,
		"roles":     strings.Join(p.Roles, ","),
	}
	if len(p.Links) > 0 {
		record["links"] = strings.Join(p.Links, ",")
	}

	// Step variants are also stored as individual fields so callers can
	// select one deterministically without re-parsing the content block.
	for variant, text := range p.Steps {
		record["steps_"+variant] = text
	}

	return record
}

// stepVariantOrder returns variant keys in a stable order: the known
// variants first, then anything else sorted by name.
func stepVariantOrder(steps map[string]string) []string {
	known := []string{"general", "clinic", "non_clinic"}

	var out []string
	seen := map[string]bool{}
	for _, k := range known {
		if _, ok := steps[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}

	var rest []string
	for k := range steps {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
