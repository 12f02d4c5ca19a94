// Package patient provides the flat-file patient chart store.
package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound indicates no chart file exists for the patient index.
var ErrNotFound = errors.New("patient not found")

// Record is one patient chart: demographics plus loosely-typed nested
// sections (conditions, devices, recent events, medications, messages,
// surveys). The chart shape is owned by whatever wrote it; the store
// never validates beyond JSON well-formedness.
type Record map[string]any

// Name returns the patient's display name, or "" when absent.
func (r Record) Name() string {
	demo, _ := r["demographics"].(map[string]any)
	name, _ := demo["name"].(string)
	return name
}

// ClinicMember returns the participant_overview.clinic_member flag,
// or "Unknown" when the chart does not carry one.
func (r Record) ClinicMember() string {
	overview, _ := r["participant_overview"].(map[string]any)
	if member, ok := overview["clinic_member"].(string); ok && member != "" {
		return member
	}
	return "Unknown"
}

// Summary is the listing view of a patient.
type Summary struct {
	Index        int            `json:"index"`
	Demographics map[string]any `json:"demographics"`
}

// Store keeps one JSON file per patient under a directory.
// Saves overwrite in place; concurrent writers race as last-write-wins.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create patients dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf("patient%d.json", index))
}

// List returns a summary per patient file, ordered by index.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read patients dir: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "patient") || !strings.HasSuffix(name, ".json") {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "patient"), ".json"))
		if err != nil {
			continue
		}

		rec, err := s.Get(index)
		if err != nil {
			return nil, err
		}
		demo, _ := rec["demographics"].(map[string]any)
		summaries = append(summaries, Summary{Index: index, Demographics: demo})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Index < summaries[j].Index })
	return summaries, nil
}

// Get reads one patient chart.
func (s *Store) Get(index int) (Record, error) {
	data, err := os.ReadFile(s.path(index))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("read patient %d: %w", index, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse patient %d: %w", index, err)
	}
	return rec, nil
}

// Save overwrites one patient chart in place, stamping
// metadata.last_modified. Last write wins.
func (s *Store) Save(index int, rec Record) (string, error) {
	timestamp := time.Now().Format(time.RFC3339)

	meta, _ := rec["metadata"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	meta["last_modified"] = timestamp
	rec["metadata"] = meta

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal patient %d: %w", index, err)
	}

	if err := os.WriteFile(s.path(index), data, 0644); err != nil {
		return "", fmt.Errorf("write patient %d: %w", index, err)
	}
	return timestamp, nil
}
