package aggregator

import (
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/board"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/partition"
	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

// selectiveRequeueLocked implements spec §4.5's selective requeue: bump
// the iteration, drop the conflicting completions, zero the non-clue
// cells they own, and repartition only those indices. It tracks
// monotone sure-cell progress across rounds the same way
// fullRequeueLocked does, so a job whose completions keep producing
// localizable conflicts with no new sure cell (a pure-guess partition
// that can only ever re-conflict, e.g. the empty-board case) is marked
// abandoned past AbandonThreshold rather than selective-requeuing
// forever. This also bounds checkCompletionLocked's re-entry into this
// function: each zero-progress round still reaching the abandon branch
// returns without repartitioning or recursing further, so the
// recursion depth cannot exceed AbandonThreshold. Caller must hold
// job.Lock().
func (a *Aggregator) selectiveRequeueLocked(job *registry.Job, conflicts map[partition.Index]bool) {
	job.Iteration++

	for id, res := range job.CompletedResults {
		if conflicts[res.Spec.Index] {
			delete(job.CompletedResults, id)
		}
	}

	next := job.CurrentBlueprint.Clone()
	for idx := range conflicts {
		zeroNonClueCells(next, job.InitialBlueprint, idx, job.Strategy)
	}
	if propagated, err := board.Propagate(next); err == nil {
		next = propagated
	}

	before := countSureCells(job.CurrentBlueprint)
	after := countSureCells(next)
	if after > before {
		job.StaleIterationsWithoutProgress = 0
	} else {
		job.StaleIterationsWithoutProgress++
	}
	job.LastSureCellCount = after

	job.CurrentBlueprint = next

	if job.StaleIterationsWithoutProgress >= a.AbandonThreshold {
		job.State = registry.StateAbandoned
		job.TerminatedAt = time.Now()
		job.PendingSubJobs = make(map[string]*registry.SubJob)
		return
	}

	a.repartitionSubsetLocked(job, conflicts)
	a.checkCompletionLocked(job)
}

// fullRequeueLocked implements spec §4.5's full requeue: bump the
// iteration, drop every completion, reconstruct CurrentBlueprint from
// InitialBlueprint overlaid with whatever sure cells survive, and
// repartition from scratch. Caller must hold job.Lock().
func (a *Aggregator) fullRequeueLocked(job *registry.Job) {
	job.Iteration++

	surviving := job.CompletedResults
	job.CompletedResults = make(map[string]registry.Result)

	next := job.InitialBlueprint.Clone()
	for _, res := range surviving {
		overlaySure(next, res)
	}
	if propagated, err := board.Propagate(next); err == nil {
		next = propagated
	}

	before := countSureCells(job.CurrentBlueprint)
	after := countSureCells(next)
	if after > before {
		job.StaleIterationsWithoutProgress = 0
	} else {
		job.StaleIterationsWithoutProgress++
	}
	job.LastSureCellCount = after

	job.CurrentBlueprint = next

	if job.StaleIterationsWithoutProgress >= a.AbandonThreshold {
		job.State = registry.StateAbandoned
		job.TerminatedAt = time.Now()
		job.PendingSubJobs = make(map[string]*registry.SubJob)
		return
	}

	a.repartitionLocked(job)
	a.checkCompletionLocked(job)
}

// repartitionSubsetLocked repartitions only the given partition indices,
// appending their fresh sub-jobs onto the existing pending set (the
// iteration has already advanced via job.Iteration++). Caller must hold
// job.Lock().
func (a *Aggregator) repartitionSubsetLocked(job *registry.Job, indices map[partition.Index]bool) {
	specs, err := partition.Split(job.CurrentBlueprint, job.Strategy)
	if err != nil {
		return
	}

	subJobs := make([]*registry.SubJob, 0, len(indices))
	for _, spec := range specs {
		if !indices[spec.Index] {
			continue
		}
		sj := &registry.SubJob{
			SubJobID:         job.NextSubJobID(),
			JobID:            job.ID,
			Spec:             spec,
			Iteration:        job.Iteration,
			IsRequeue:        true,
			ContextBlueprint: job.CurrentBlueprint.Clone(),
		}
		job.PendingSubJobs[sj.SubJobID] = sj
		subJobs = append(subJobs, sj)
	}
	job.ExpectedSubJobs = len(job.CompletedResults) + len(subJobs)

	if len(subJobs) > 0 {
		a.disp.EnqueueMany(subJobs)
	}
}

// zeroNonClueCells clears every cell the given partition index owns
// that is not an original clue, per spec §4.5 step 3.
func zeroNonClueCells(b, initial board.Board, idx partition.Index, strategy partition.Strategy) {
	n := b.N()
	switch strategy {
	case partition.Column:
		for r := 0; r < n; r++ {
			if initial[r][idx.Col] == 0 {
				b[r][idx.Col] = 0
			}
		}
	case partition.Block:
		rBlk, cBlk, err := board.BlockDims(n)
		if err != nil {
			return
		}
		for i := idx.BlockRow * rBlk; i < (idx.BlockRow+1)*rBlk; i++ {
			for j := idx.BlockCol * cBlk; j < (idx.BlockCol+1)*cBlk; j++ {
				if initial[i][j] == 0 {
					b[i][j] = 0
				}
			}
		}
	}
}

// countSureCells returns the number of non-zero cells in b, used to
// detect whether a full requeue made monotone progress.
func countSureCells(b board.Board) int {
	n := b.N()
	count := 0
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if b[r][c] != 0 {
				count++
			}
		}
	}
	return count
}
