package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
)

func TestMemorySinkSaveGet(t *testing.T) {
	s := NewMemorySink()
	b, _ := board.FromRows([][]int{{1, 2}, {2, 1}})

	if err := s.Save("job-1", b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := s.Get("job-1")
	if !ok {
		t.Fatal("expected saved board to be retrievable")
	}
	if got[0][0] != 1 {
		t.Errorf("expected round-tripped board, got %v", got)
	}
}

func TestFileSinkWritesJSON(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, _ := board.FromRows([][]int{{1, 2}, {2, 1}})
	if err := s.Save("job-2", b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "job-2.json"))
	if err != nil {
		t.Fatalf("expected a written file: %v", err)
	}
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("expected valid JSON: %v", err)
	}
	if rows[0][0] != 1 {
		t.Errorf("unexpected contents: %v", rows)
	}
}
