package patient

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	rec := Record{
		"demographics": map[string]any{"name": "Maria Garcia", "age": float64(58)},
		"participant_overview": map[string]any{
			"clinic_member": "Yes",
		},
	}

	timestamp, err := store.Save(3, rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("Save returned non-RFC3339 timestamp %q: %v", timestamp, err)
	}

	got, err := store.Get(3)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "Maria Garcia" {
		t.Errorf("Name() = %q, want %q", got.Name(), "Maria Garcia")
	}

	meta, _ := got["metadata"].(map[string]any)
	if meta["last_modified"] != timestamp {
		t.Errorf("metadata.last_modified = %v, want %q", meta["last_modified"], timestamp)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	_, err = store.Get(99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(99) error = %v, want ErrNotFound", err)
	}
}

func TestStoreListOrdersByIndex(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for _, index := range []int{10, 2, 7} {
		rec := Record{"demographics": map[string]any{"name": "Patient"}}
		if _, err := store.Save(index, rec); err != nil {
			t.Fatalf("Save(%d): %v", index, err)
		}
	}

	// Files that do not match the patient naming scheme are skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	summaries, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var indexes []int
	for _, s := range summaries {
		indexes = append(indexes, s.Index)
	}
	want := []int{2, 7, 10}
	if len(indexes) != len(want) {
		t.Fatalf("List returned indexes %v, want %v", indexes, want)
	}
	for i := range want {
		if indexes[i] != want[i] {
			t.Fatalf("List returned indexes %v, want %v", indexes, want)
		}
	}
}

func TestClinicMember(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"yes", Record{"participant_overview": map[string]any{"clinic_member": "Yes"}}, "Yes"},
		{"no", Record{"participant_overview": map[string]any{"clinic_member": "No"}}, "No"},
		{"empty value", Record{"participant_overview": map[string]any{"clinic_member": ""}}, "Unknown"},
		{"missing overview", Record{}, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.ClinicMember(); got != tt.want {
				t.Errorf("ClinicMember() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeneratorProducesCompleteChart(t *testing.T) {
	g := NewGenerator(42)

	for i := 0; i < 20; i++ {
		rec := g.Generate()
		if rec.Name() == "" {
			t.Fatalf("chart %d has no name", i)
		}
		member := rec.ClinicMember()
		if member != "Yes" && member != "No" {
			t.Fatalf("chart %d clinic_member = %q, want Yes or No", i, member)
		}
		if _, ok := rec["conditions"]; !ok {
			t.Fatalf("chart %d has no conditions section", i)
		}
		if _, ok := rec["medications"]; !ok {
			t.Fatalf("chart %d has no medications section", i)
		}
	}
}

func TestGeneratorDeterministicWithSeed(t *testing.T) {
	a := NewGenerator(7).Generate()
	b := NewGenerator(7).Generate()
	if a.Name() != b.Name() {
		t.Errorf("same seed produced different names: %q vs %q", a.Name(), b.Name())
	}
}
