// Package registry holds per-job coordination state: the job's
// blueprint, outstanding sub-jobs, iteration counter, and lifecycle,
// each guarded by its own mutex so the Aggregator's per-job critical
// sections never contend across unrelated jobs. Grounded on
// concurrentjobscheduler.go's Job/JobStatus shape, generalized from a
// single schedulable unit of work to a job-of-many-subjobs model.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
)

// State is a job's lifecycle stage.
type State int

const (
	StateActive State = iota
	StateSolved
	StateUnsolvable
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "processing"
	case StateSolved:
		return "completed"
	case StateUnsolvable:
		return "unsolvable"
	case StateAbandoned:
		return "unsolvable"
	default:
		return "unknown"
	}
}

// SubJob is a single unit of work created by the Partitioner, consumed
// by exactly one worker pull and completed by one matching Result.
type SubJob struct {
	SubJobID        string
	JobID           string
	Spec            partition.SubJobSpec
	Iteration       int
	IsRequeue       bool
	ContextBlueprint board.Board
}

// Result is what a worker posts back for a SubJob it completed. A worker
// that cannot find any valid assignment for its partition sets
// Unsolvable instead of Values/SureMask.
type Result struct {
	SubJobID   string
	Spec       partition.SubJobSpec
	Values     []int
	SureMask   []bool
	Iteration  int
	Unsolvable bool
}

// Job is one /solve request's coordination state.
type Job struct {
	mu sync.Mutex

	ID               string
	Strategy         partition.Strategy
	InitialBlueprint board.Board
	CurrentBlueprint board.Board

	Iteration        int
	PendingSubJobs   map[string]*SubJob
	CompletedResults map[string]Result // subJobID -> Result; a selective requeue keeps the non-conflicting ones from earlier iterations
	ExpectedSubJobs  int               // results the current iteration waits for, including completions kept by a selective requeue
	NextSeq          int

	StartedAt      time.Time
	LastProgressAt time.Time
	TerminatedAt   time.Time

	State State

	// StaleIterationsWithoutProgress counts consecutive requeue rounds
	// that produced no new sure cell, for the abandon-after-K rule.
	StaleIterationsWithoutProgress int
	LastSureCellCount              int
}

// NewJob creates a job record in the active state from a validated,
// well-formed initial board.
func NewJob(id string, initial board.Board, strategy partition.Strategy) *Job {
	now := time.Now()
	return &Job{
		ID:               id,
		Strategy:         strategy,
		InitialBlueprint: initial.Clone(),
		CurrentBlueprint: initial.Clone(),
		Iteration:        1,
		PendingSubJobs:   make(map[string]*SubJob),
		CompletedResults: make(map[string]Result),
		NextSeq:          1,
		StartedAt:        now,
		LastProgressAt:   now,
		State:            StateActive,
	}
}

// Lock/Unlock expose the job's mutex to callers (Registry, Aggregator,
// Dispatcher) that need to serialize a multi-step operation on this job.
func (j *Job) Lock()   { j.mu.Lock() }
func (j *Job) Unlock() { j.mu.Unlock() }

// NextSubJobID returns the next "{jobId}.{seq}" identifier and advances
// the sequence counter. Callers must hold the job's lock.
func (j *Job) NextSubJobID() string {
	id := fmt.Sprintf("%s.%d", j.ID, j.NextSeq)
	j.NextSeq++
	return id
}

// ResetSeq resets the sub-job sequence counter to 1. The aggregator calls
// it when it partitions the whole board (at intake and on a full
// requeue); a selective requeue starts a new iteration without calling
// it, so that round's sub-job IDs continue the previous sequence.
func (j *Job) ResetSeq() {
	j.NextSeq = 1
}
