package aggregator

import (
	"testing"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/dispatcher"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

type memSink struct {
	saved map[string]board.Board
}

func newMemSink() *memSink { return &memSink{saved: make(map[string]board.Board)} }

func (s *memSink) Save(jobID string, b board.Board) error {
	s.saved[jobID] = b.Clone()
	return nil
}

func newHarness() (*registry.Registry, *dispatcher.Dispatcher, *memSink, *Aggregator) {
	reg := registry.New()
	disp := dispatcher.New(time.Minute)
	sink := newMemSink()
	return reg, disp, sink, New(reg, disp, sink)
}

func TestSeedSolvesByPropagationAlone(t *testing.T) {
	_, _, sink, agg := newHarness()

	b, err := board.FromRows([][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job := registry.NewJob("job-1", b, partition.Block)
	if err := agg.Seed(job); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if job.State != registry.StateSolved {
		t.Fatalf("expected job solved by propagation alone, got state=%v", job.State)
	}
	if _, ok := sink.saved["job-1"]; !ok {
		t.Error("expected solved board to reach the solution sink")
	}
	if len(job.PendingSubJobs) != 0 {
		t.Errorf("expected no outstanding sub-jobs, got %d", len(job.PendingSubJobs))
	}
}

func TestSeedCreatesSubJobsWhenPropagationInsufficient(t *testing.T) {
	_, disp, _, agg := newHarness()

	b, err := board.FromRows([][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job := registry.NewJob("job-2", b, partition.Column)
	if err := agg.Seed(job); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if job.State != registry.StateActive {
		t.Fatalf("expected job still active, got state=%v", job.State)
	}
	if disp.QueueLength() == 0 {
		t.Error("expected sub-jobs enqueued for an empty board")
	}

	clueCount := 0
	for r := 0; r < job.InitialBlueprint.N(); r++ {
		for c := 0; c < job.InitialBlueprint.N(); c++ {
			if job.InitialBlueprint[r][c] != 0 {
				clueCount++
			}
		}
	}
	if clueCount == 0 {
		t.Error("expected Seed to fix one partition's values as clues on a clueless board")
	}
}

func TestSubmitCompletesJobWhenAllSureCellsArrive(t *testing.T) {
	_, disp, _, agg := newHarness()

	b, err := board.FromRows([][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 0, 3},
		{4, 3, 2, 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job := registry.NewJob("job-3", b, partition.Column)
	job.Lock()
	if err := agg.repartitionLocked(job); err != nil {
		job.Unlock()
		t.Fatalf("repartition failed: %v", err)
	}
	job.Unlock()

	for {
		sj, ok := disp.Pull("worker-1")
		if !ok {
			break
		}
		values := make([]int, len(sj.Spec.Values))
		sureMask := make([]bool, len(values))
		// Fill in the known full solution's values for this partition.
		solved := [][]int{
			{1, 2, 3, 4},
			{3, 4, 1, 2},
			{2, 1, 4, 3},
			{4, 3, 2, 1},
		}
		for i, cell := range sj.Spec.Cells {
			values[i] = solved[cell.Row][cell.Col]
			sureMask[i] = true
		}

		agg.Submit(job, registry.Result{
			SubJobID:  sj.SubJobID,
			Spec:      sj.Spec,
			Values:    values,
			SureMask:  sureMask,
			Iteration: sj.Iteration,
		})
	}

	if job.State != registry.StateSolved {
		t.Fatalf("expected job solved after all partitions reported, got state=%v", job.State)
	}
}

func TestStaleIterationResultDropped(t *testing.T) {
	_, disp, _, agg := newHarness()
	b, _ := board.FromRows([][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	job := registry.NewJob("job-4", b, partition.Column)
	if err := agg.Seed(job); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sj, ok := disp.Pull("worker-1")
	if !ok {
		t.Fatal("expected a sub-job")
	}

	before := job.Iteration
	agg.Submit(job, registry.Result{
		SubJobID:  sj.SubJobID,
		Spec:      sj.Spec,
		Values:    []int{1, 2, 3, 4},
		SureMask:  []bool{true, true, true, true},
		Iteration: sj.Iteration - 1, // stale
	})

	if job.Iteration != before {
		t.Errorf("expected iteration unchanged by stale result, got %d want %d", job.Iteration, before)
	}
	if _, ok := job.CompletedResults[sj.SubJobID]; ok {
		t.Error("stale result should not have been recorded")
	}
}

func TestDuplicateSubmissionIgnored(t *testing.T) {
	_, disp, _, agg := newHarness()
	b, _ := board.FromRows([][]int{
		{1, 2, 3, 0},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})
	job := registry.NewJob("job-5", b, partition.Column)
	job.Lock()
	agg.repartitionLocked(job)
	job.Unlock()

	sj, ok := disp.Pull("worker-1")
	if !ok {
		t.Fatal("expected a sub-job")
	}
	res := registry.Result{
		SubJobID:  sj.SubJobID,
		Spec:      sj.Spec,
		Values:    sj.Spec.Values,
		SureMask:  make([]bool, len(sj.Spec.Values)),
		Iteration: sj.Iteration,
	}
	agg.Submit(job, res)
	firstBlueprint := job.CurrentBlueprint.Clone()
	agg.Submit(job, res)

	for r := range firstBlueprint {
		for c := range firstBlueprint[r] {
			if firstBlueprint[r][c] != job.CurrentBlueprint[r][c] {
				t.Fatalf("duplicate submission changed blueprint at (%d,%d)", r, c)
			}
		}
	}
}

func TestConflictingPartitionsMapsColumns(t *testing.T) {
	b, _ := board.FromRows([][]int{
		{1, 2, 3, 1},
		{3, 4, 1, 2},
		{2, 1, 4, 3},
		{4, 3, 2, 1},
	})

	conflicts := ConflictingPartitions(b, partition.Column)
	if !conflicts[partition.Index{Col: 0}] || !conflicts[partition.Index{Col: 3}] {
		t.Errorf("expected columns 0 and 3 flagged for the duplicated 1s in row 0, got %v", conflicts)
	}
}

func TestSelectiveRequeueAbandonsAfterThreshold(t *testing.T) {
	_, _, _, agg := newHarness()
	b, _ := board.FromRows([][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	job := registry.NewJob("job-7", b, partition.Column)
	agg.AbandonThreshold = 3

	// A conflict on column 0 that can never produce a new sure cell
	// (nothing elsewhere on the board constrains it) exercises the same
	// guess-and-re-conflict churn the empty-board seed can fall into.
	conflicts := map[partition.Index]bool{{Col: 0}: true}
	for i := 0; i < agg.AbandonThreshold; i++ {
		job.Lock()
		agg.selectiveRequeueLocked(job, conflicts)
		job.Unlock()
	}

	if job.State != registry.StateAbandoned {
		t.Fatalf("expected job abandoned after %d zero-progress selective requeues, got state=%v", agg.AbandonThreshold, job.State)
	}
	if job.StaleIterationsWithoutProgress < agg.AbandonThreshold {
		t.Errorf("expected StaleIterationsWithoutProgress >= %d, got %d", agg.AbandonThreshold, job.StaleIterationsWithoutProgress)
	}
	if job.TerminatedAt.IsZero() {
		t.Error("expected TerminatedAt to be set on abandon")
	}
}

func TestStallTriggersFullRequeue(t *testing.T) {
	_, disp, _, agg := newHarness()
	b, _ := board.FromRows([][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})
	job := registry.NewJob("job-6", b, partition.Column)
	if err := agg.Seed(job); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	for {
		if _, ok := disp.Pull("worker-1"); !ok {
			break
		}
	}

	job.Lock()
	job.LastProgressAt = time.Now().Add(-time.Hour)
	beforeIteration := job.Iteration
	job.Unlock()

	job.Lock()
	agg.tickJobLocked(job)
	job.Unlock()

	if job.Iteration <= beforeIteration {
		t.Errorf("expected full requeue to bump iteration past %d, got %d", beforeIteration, job.Iteration)
	}
}
