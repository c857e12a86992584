// Package aggregator merges worker Results into a job's current
// blueprint, detects completion and conflicts, and drives requeues. It
// is the hardest and most novel part of the system: the source repos'
// dozen near-identical master variants each hand-roll some version of
// this combine loop inline inside their HTTP handlers, so this package
// has no single teacher file to generalize from. It is built from
// scratch following the locking discipline of concurrentjobscheduler.go
// (state mutation only while holding the owning Job's mutex) and the
// dead-worker reclaim shape of concurrentloadbalancer.go (periodic
// sweep goroutine with a stop channel).
package aggregator

import (
	"log"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/dispatcher"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/solver"
)

// SolutionSink persists a job's final solved board.
type SolutionSink interface {
	Save(jobID string, b board.Board) error
}

// Aggregator owns the combine/conflict/requeue protocol for every job in
// a Registry, dispatching new sub-jobs through a Dispatcher.
type Aggregator struct {
	reg  *registry.Registry
	disp *dispatcher.Dispatcher
	sink SolutionSink

	// seedSolver pre-solves a single partition for Seed's empty-board
	// case; it never runs on the worker side.
	seedSolver solver.BlockSolver

	// AbandonThreshold is K in spec §4.4/§7: consecutive requeue rounds
	// without a new sure cell before a job is marked abandoned.
	AbandonThreshold int
}

const DefaultAbandonThreshold = 10

// New creates an Aggregator wired to the given registry, dispatcher, and
// solution sink.
func New(reg *registry.Registry, disp *dispatcher.Dispatcher, sink SolutionSink) *Aggregator {
	return &Aggregator{
		reg:              reg,
		disp:             disp,
		sink:             sink,
		seedSolver:       solver.NaiveSolver{UseHeuristics: true},
		AbandonThreshold: DefaultAbandonThreshold,
	}
}

// Seed partitions a newly-created job's initial blueprint and enqueues
// its first-iteration sub-jobs. If propagation alone leaves the board
// with no sure cell anywhere (the empty-board case of spec §8 scenario
// 5), propagation has nothing to cascade from and every worker result
// would be a pure guess with sureMask all false, so no cell would ever
// commit to the blueprint and the job would never converge. Seed
// pre-solves exactly one partition in that case and fixes its values
// into InitialBlueprint/CurrentBlueprint as clues before partitioning
// the rest, giving propagation something to work against.
func (a *Aggregator) Seed(job *registry.Job) error {
	job.Lock()
	defer job.Unlock()

	propagated, err := board.Propagate(job.CurrentBlueprint)
	if err != nil {
		return err // board.ErrInfeasible: intake returns 400 per spec.md §7
	}
	job.CurrentBlueprint = propagated
	if board.IsComplete(job.CurrentBlueprint) {
		if board.IsSolved(job.CurrentBlueprint) {
			a.markSolvedLocked(job, job.CurrentBlueprint)
		} else {
			a.markUnsolvableLocked(job)
		}
		return nil
	}

	if countSureCells(job.CurrentBlueprint) == 0 {
		if err := a.seedFirstPartitionLocked(job); err != nil {
			return err
		}
	}

	if err := a.repartitionLocked(job); err != nil {
		return err
	}
	a.checkCompletionLocked(job)
	return nil
}

// seedFirstPartitionLocked pre-solves the first partition under the
// job's strategy and commits every one of its cells as a fixed clue
// into both InitialBlueprint and CurrentBlueprint, regardless of the
// solver's own SureMask: on a blank board nothing is forced, so the
// seed is a deliberate choice, not a deduction, and any valid
// completion built from it satisfies spec §8 scenario 5's "terminate
// with any valid completion" requirement. Caller must hold job.Lock().
func (a *Aggregator) seedFirstPartitionLocked(job *registry.Job) error {
	specs, err := partition.Split(job.CurrentBlueprint, job.Strategy)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}
	spec := specs[0]

	result, err := a.seedSolver.Solve(solver.Partition{
		Cells:   spec.Cells,
		Values:  spec.Values,
		Context: job.CurrentBlueprint.ToRows(),
		N:       job.CurrentBlueprint.N(),
	})
	if err != nil {
		return err
	}

	for i, cell := range spec.Cells {
		job.InitialBlueprint[cell.Row][cell.Col] = result.Values[i]
		job.CurrentBlueprint[cell.Row][cell.Col] = result.Values[i]
	}

	if propagated, err := board.Propagate(job.CurrentBlueprint); err == nil {
		job.CurrentBlueprint = propagated
	}
	return nil
}

// Submit applies one worker Result to its owning job, per spec §4.4.
// Stale-iteration and duplicate submissions are dropped silently.
func (a *Aggregator) Submit(job *registry.Job, result registry.Result) {
	job.Lock()
	defer job.Unlock()

	if result.Iteration != job.Iteration {
		return
	}
	if job.State != registry.StateActive {
		return
	}
	if _, dup := job.CompletedResults[result.SubJobID]; dup {
		return
	}
	delete(job.PendingSubJobs, result.SubJobID)

	if result.Unsolvable {
		log.Printf("[aggregator] job %s: sub-job %s reported unsolvable, requeuing its partition", job.ID, result.SubJobID)
		a.selectiveRequeueLocked(job, map[partition.Index]bool{result.Spec.Index: true})
		return
	}

	job.CompletedResults[result.SubJobID] = result
	a.recomputeBlueprintLocked(job)
	job.LastProgressAt = time.Now()

	a.checkCompletionLocked(job)
}

// recomputeBlueprintLocked rebuilds CurrentBlueprint from InitialBlueprint
// plus every sure cell contributed by the current iteration's
// completions, then re-propagates. Caller must hold job.Lock().
func (a *Aggregator) recomputeBlueprintLocked(job *registry.Job) {
	next := job.InitialBlueprint.Clone()
	for _, res := range job.CompletedResults {
		overlaySure(next, res)
	}

	if propagated, err := board.Propagate(next); err == nil {
		next = propagated
	}
	// Infeasible propagation is left to the conflict/stall machinery
	// rather than treated as a hard error here: a bad overlay from one
	// partition is exactly what a later requeue round corrects.

	job.CurrentBlueprint = next
}

// overlaySure writes every sure cell of res onto b. Overlays are
// commutative and idempotent (spec §5), so submission order never
// changes the resulting blueprint.
func overlaySure(b board.Board, res registry.Result) {
	for i, cell := range res.Spec.Cells {
		if i < len(res.SureMask) && res.SureMask[i] && i < len(res.Values) {
			b[cell.Row][cell.Col] = res.Values[i]
		}
	}
}

// checkCompletionLocked implements spec §4.4's completion check. Caller
// must hold job.Lock().
func (a *Aggregator) checkCompletionLocked(job *registry.Job) {
	if board.IsComplete(job.CurrentBlueprint) {
		if board.IsSolved(job.CurrentBlueprint) {
			a.markSolvedLocked(job, job.CurrentBlueprint)
		} else {
			a.markUnsolvableLocked(job)
		}
		return
	}

	if len(job.PendingSubJobs) > 0 {
		return // iteration still has outstanding sub-jobs
	}
	if len(job.CompletedResults) < job.ExpectedSubJobs {
		return
	}

	tentative := a.tentativeBoardLocked(job)
	if board.IsSolved(tentative) {
		a.markSolvedLocked(job, tentative)
		return
	}

	conflicts := ConflictingPartitions(tentative, job.Strategy)
	if len(conflicts) > 0 {
		a.selectiveRequeueLocked(job, conflicts)
		return
	}
	a.fullRequeueLocked(job)
}

// tentativeBoardLocked overlays every completion's non-sure values onto
// a copy of CurrentBlueprint, sure cells taking precedence (they are
// already present in CurrentBlueprint). Caller must hold job.Lock().
func (a *Aggregator) tentativeBoardLocked(job *registry.Job) board.Board {
	out := job.CurrentBlueprint.Clone()
	for _, res := range job.CompletedResults {
		for i, cell := range res.Spec.Cells {
			if out[cell.Row][cell.Col] != 0 {
				continue
			}
			if i < len(res.Values) && res.Values[i] != 0 {
				out[cell.Row][cell.Col] = res.Values[i]
			}
		}
	}
	return out
}

func (a *Aggregator) markSolvedLocked(job *registry.Job, solved board.Board) {
	job.CurrentBlueprint = solved
	job.State = registry.StateSolved
	job.TerminatedAt = time.Now()
	job.PendingSubJobs = make(map[string]*registry.SubJob)
	if a.sink != nil {
		if err := a.sink.Save(job.ID, solved); err != nil {
			log.Printf("[aggregator] job %s: solution sink save failed: %v", job.ID, err)
		}
	}
}

// markUnsolvableLocked terminates a job whose blueprint has no empty
// cells left to partition but is not a valid solution: there is no
// further partition to requeue. Caller must hold job.Lock().
func (a *Aggregator) markUnsolvableLocked(job *registry.Job) {
	job.State = registry.StateUnsolvable
	job.TerminatedAt = time.Now()
	job.PendingSubJobs = make(map[string]*registry.SubJob)
}

// repartitionLocked splits CurrentBlueprint by the job's strategy and
// enqueues the resulting sub-jobs, resetting ExpectedSubJobs/PendingSubJobs
// for the current iteration. Caller must hold job.Lock().
func (a *Aggregator) repartitionLocked(job *registry.Job) error {
	specs, err := partition.Split(job.CurrentBlueprint, job.Strategy)
	if err != nil {
		return err
	}

	job.ResetSeq()
	job.PendingSubJobs = make(map[string]*registry.SubJob)
	subJobs := make([]*registry.SubJob, 0, len(specs))
	for _, spec := range specs {
		sj := &registry.SubJob{
			SubJobID:         job.NextSubJobID(),
			JobID:            job.ID,
			Spec:             spec,
			Iteration:        job.Iteration,
			ContextBlueprint: job.CurrentBlueprint.Clone(),
		}
		job.PendingSubJobs[sj.SubJobID] = sj
		subJobs = append(subJobs, sj)
	}
	job.ExpectedSubJobs = len(subJobs)

	if len(subJobs) == 0 {
		// Every partition is already full; the board must already be
		// solved or infeasible. checkCompletionLocked handles both.
		return nil
	}

	a.disp.EnqueueMany(subJobs)
	return nil
}
