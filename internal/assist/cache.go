package assist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Envelope wraps a cached detail view with its request identity.
type Envelope struct {
	Timestamp    string     `json:"timestamp"`
	TodoID       string     `json:"todo_id"`
	PatientIndex int        `json:"patient_index"`
	PatientName  string     `json:"patient_name"`
	Role         string     `json:"role"`
	DetailView   DetailView `json:"detail_view"`
}

// Cache stores one JSON file per (task, patient, role) triple. Reads
// are cheap existence checks plus a decode; writes overwrite in place,
// so regenerating with refresh replaces the cached view.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) path(todoID string, patientIndex int, role string) string {
	name := fmt.Sprintf("%s_patient%d_%s.json", sanitize(todoID), patientIndex, sanitize(role))
	return filepath.Join(c.dir, name)
}

// Exists reports whether a cached view is present for the triple.
func (c *Cache) Exists(todoID string, patientIndex int, role string) bool {
	_, err := os.Stat(c.path(todoID, patientIndex, role))
	return err == nil
}

// Get loads a cached envelope, returning ok=false on a miss.
func (c *Cache) Get(todoID string, patientIndex int, role string) (Envelope, bool, error) {
	data, err := os.ReadFile(c.path(todoID, patientIndex, role))
	if errors.Is(err, os.ErrNotExist) {
		return Envelope{}, false, nil
	}
	if err != nil {
		return Envelope{}, false, fmt.Errorf("read cached assistance: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, false, fmt.Errorf("parse cached assistance: %w", err)
	}
	return env, true, nil
}

// Put writes an envelope for the triple, stamping its timestamp, and
// returns the file path it was saved to.
func (c *Cache) Put(todoID string, patientIndex int, role, patientName string, view DetailView) (string, error) {
	env := Envelope{
		Timestamp:    time.Now().Format(time.RFC3339),
		TodoID:       todoID,
		PatientIndex: patientIndex,
		PatientName:  patientName,
		Role:         role,
		DetailView:   view,
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cached assistance: %w", err)
	}

	path := c.path(todoID, patientIndex, role)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write cached assistance: %w", err)
	}
	return path, nil
}

// sanitize keeps cache filenames flat: anything outside a safe
// character set becomes an underscore.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}
