// Package dispatcher implements the in-memory FIFO job queue: worker
// pull/submit, heartbeats, and dead-worker requeue. Grounded on
// concurrentjobscheduler.go's workerPool/jobQueue channel dispatch,
// adapted from a push model (the scheduler hands work to an idle
// worker's channel) to a pull model, since spec §4.3/§6 requires workers
// to poll /queue rather than be pushed to.
package dispatcher

import (
	"sync"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

// Defaults per spec §4.3.
const (
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultDeadThreshold     = 90 * time.Second
	DefaultSweepInterval     = 60 * time.Second
)

// assignment records which worker pulled a sub-job and when, so the
// dead-worker sweep can find and reclaim it.
type assignment struct {
	subJob     *registry.SubJob
	workerID   string
	assignedAt time.Time
}

// Dispatcher is the FIFO sub-job queue and pending-assignment table. The
// queue and pending map share one lock (spec §5); the worker heartbeat
// table has its own, separate lock.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []*registry.SubJob
	pending map[string]*assignment // subJobID -> assignment

	workersMu sync.Mutex
	workers   map[string]time.Time // workerID -> lastHeartbeatAt

	deadThreshold time.Duration
}

// New creates an empty Dispatcher with the given dead-worker threshold.
func New(deadThreshold time.Duration) *Dispatcher {
	if deadThreshold <= 0 {
		deadThreshold = DefaultDeadThreshold
	}
	return &Dispatcher{
		queue:         make([]*registry.SubJob, 0),
		pending:       make(map[string]*assignment),
		workers:       make(map[string]time.Time),
		deadThreshold: deadThreshold,
	}
}

// Enqueue appends a sub-job to the back of the queue.
func (d *Dispatcher) Enqueue(sj *registry.SubJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, sj)
}

// EnqueueMany appends several sub-jobs, preserving their given order.
func (d *Dispatcher) EnqueueMany(subJobs []*registry.SubJob) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, subJobs...)
}

// Pull pops the head of the queue for workerID, if any, and records the
// assignment so a later dead-worker sweep can reclaim it.
func (d *Dispatcher) Pull(workerID string) (*registry.SubJob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return nil, false
	}

	sj := d.queue[0]
	d.queue = d.queue[1:]
	d.pending[sj.SubJobID] = &assignment{subJob: sj, workerID: workerID, assignedAt: time.Now()}
	return sj, true
}

// Submit removes a sub-job's pending assignment. It returns the matching
// SubJob and true if one was outstanding (including one the worker
// re-submits after a requeue raced it); false if the assignment is
// unknown, which callers treat as a stale or duplicate submission.
func (d *Dispatcher) Submit(subJobID string) (*registry.SubJob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.pending[subJobID]
	if !ok {
		return nil, false
	}
	delete(d.pending, subJobID)
	return a.subJob, true
}

// Heartbeat records a liveness ping from a worker.
func (d *Dispatcher) Heartbeat(workerID string) {
	d.workersMu.Lock()
	defer d.workersMu.Unlock()
	d.workers[workerID] = time.Now()
}

// QueueLength returns the number of sub-jobs currently waiting to be
// pulled (not counting outstanding pulls).
func (d *Dispatcher) QueueLength() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// PendingCount returns the number of sub-jobs currently assigned to a
// worker but not yet submitted.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
