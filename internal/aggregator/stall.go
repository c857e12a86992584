package aggregator

import (
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

// DefaultStallBaseline is T_stall at N=9 (spec §4.4: "baseline 60-120s at
// N=9, scaled linearly with N/9").
const DefaultStallBaseline = 90 * time.Second

// TStall returns the stall timeout for an N x N board, scaling the
// baseline linearly with N/9.
func TStall(n int) time.Duration {
	if n <= 0 {
		return DefaultStallBaseline
	}
	return time.Duration(float64(DefaultStallBaseline) * float64(n) / 9.0)
}

// StartCombineLoop launches the 1 Hz timer described in spec §4.4 that
// re-runs the completion check for every active job (catching
// completions detected by a timer tick rather than a fresh Submit) and
// the stall check described in spec §4.4/§7. The returned function
// stops the loop.
func (a *Aggregator) StartCombineLoop(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				a.tick()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

func (a *Aggregator) tick() {
	for _, job := range a.reg.All() {
		job.Lock()
		a.tickJobLocked(job)
		job.Unlock()
	}
}

func (a *Aggregator) tickJobLocked(job *registry.Job) {
	if job.State != registry.StateActive {
		return
	}

	a.checkCompletionLocked(job)
	if job.State != registry.StateActive {
		return
	}

	stalled := time.Since(job.LastProgressAt) > TStall(job.CurrentBlueprint.N()) &&
		len(job.PendingSubJobs) > 0 &&
		a.disp.QueueLength() == 0
	if stalled {
		a.fullRequeueLocked(job)
	}
}
