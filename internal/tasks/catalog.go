// Package tasks holds the care task catalog: the TODO codes the care
// team works from, with display names, priorities, and categories.
package tasks

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed tasks.yaml
var defaultCatalog []byte

// Task is one care task definition.
type Task struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Priority string `yaml:"priority" json:"priority"`
	Category string `yaml:"category" json:"category"`
}

// Catalog is an immutable, ID-indexed task list.
type Catalog struct {
	tasks []Task
	byID  map[string]Task
}

// Load reads a catalog from a YAML file. An empty path loads the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tasks file: %w", err)
		}
	}

	var doc struct {
		Tasks []Task `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tasks file: %w", err)
	}
	if len(doc.Tasks) == 0 {
		return nil, fmt.Errorf("tasks file defines no tasks")
	}

	byID := make(map[string]Task, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.ID == "" {
			return nil, fmt.Errorf("task with empty id in catalog")
		}
		if _, dup := byID[task.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %s", task.ID)
		}
		byID[task.ID] = task
	}

	return &Catalog{tasks: doc.Tasks, byID: byID}, nil
}

// Get looks up one task by ID.
func (c *Catalog) Get(id string) (Task, bool) {
	task, ok := c.byID[id]
	return task, ok
}

// All returns every task, sorted by ID.
func (c *Catalog) All() []Task {
	out := make([]Task, len(c.tasks))
	copy(out, c.tasks)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.tasks)
}
