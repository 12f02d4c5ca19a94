// Package protocol resolves clinical protocol records from the hosted index.
package protocol

import (
	"strings"

	"github.com/lightpath-health/careassist/internal/pinecone"
)

// Record is one clinical protocol chunk as stored in the index.
// Records are immutable once loaded; the index owns them.
type Record struct {
	TaskCode string   `json:"task_code"`
	TaskName string   `json:"task_name"`
	Priority string   `json:"priority"`
	Program  string   `json:"program"`
	Trigger  string   `json:"trigger,omitempty"`
	Content  string   `json:"content"`
	FullText string   `json:"full_text"`
	Roles    []string `json:"roles,omitempty"`
	Links    []string `json:"links,omitempty"`
	Score    float64  `json:"score"`

	// Steps holds the free-text step variants keyed by patient context
	// (general, clinic, non_clinic).
	Steps map[string]string `json:"steps,omitempty"`
}

// recordFromHit maps index metadata fields onto a Record.
func recordFromHit(hit pinecone.Hit) Record {
	rec := Record{
		TaskCode: fieldString(hit.Fields, "task_code"),
		TaskName: fieldString(hit.Fields, "task_name"),
		Priority: fieldString(hit.Fields, "priority"),
		Program:  fieldString(hit.Fields, "program"),
		Trigger:  fieldString(hit.Fields, "trigger"),
		Content:  fieldString(hit.Fields, "content"),
		FullText: fieldString(hit.Fields, "full_text"),
		Score:    hit.Score,
	}

	// Roles and links are stored comma-joined in record metadata
	rec.Roles = splitField(hit.Fields, "roles")
	rec.Links = splitField(hit.Fields, "links")

	for key, val := range hit.Fields {
		variant, ok := strings.CutPrefix(key, "steps_")
		if !ok {
			continue
		}
		if text, ok := val.(string); ok && text != "" {
			if rec.Steps == nil {
				rec.Steps = map[string]string{}
			}
			rec.Steps[variant] = text
		}
	}

	return rec
}

func splitField(fields map[string]any, key string) []string {
	raw := fieldString(fields, key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func fieldString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
