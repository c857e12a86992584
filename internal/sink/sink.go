// Package sink implements the SolutionSink external collaborator: where
// a job's final solved board is persisted once the Aggregator marks it
// solved. Grounded on concurrentbackuputility.go's destination-directory
// handling (os.MkdirAll + os.Create per item).
package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
)

// MemorySink keeps solved boards in process memory, keyed by job ID.
// Useful for tests and for deployments with no durable storage need.
type MemorySink struct {
	mu     sync.RWMutex
	boards map[string]board.Board
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{boards: make(map[string]board.Board)}
}

// Save records b as jobID's solution.
func (s *MemorySink) Save(jobID string, b board.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[jobID] = b.Clone()
	return nil
}

// Get returns a previously saved solution, if any.
func (s *MemorySink) Get(jobID string) (board.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[jobID]
	return b, ok
}

// FileSink persists each solved board as a JSON file under Dir, one
// file per job.
type FileSink struct {
	Dir string
}

// NewFileSink creates a FileSink rooted at dir, creating it if absent.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("sink: creating %s: %w", dir, err)
	}
	return &FileSink{Dir: dir}, nil
}

// Save writes b to "{jobID}.json" under the sink's directory.
func (s *FileSink) Save(jobID string, b board.Board) error {
	path := filepath.Join(s.Dir, jobID+".json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("sink: creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b.ToRows()); err != nil {
		return fmt.Errorf("sink: encoding %s: %w", path, err)
	}
	return nil
}
