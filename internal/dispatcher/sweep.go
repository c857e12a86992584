package dispatcher

import (
	"log"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

// StartSweep launches a ticker-driven loop that reclaims sub-jobs
// assigned to workers whose last heartbeat is older than the
// dispatcher's dead threshold, re-enqueueing them at the back of the
// queue with IsRequeue set. Grounded on concurrentloadbalancer.go's
// HealthChecker.Start/checkAllServers ticker loop, adapted from marking
// servers unhealthy to reclaiming their in-flight work. The returned
// function stops the loop.
func (d *Dispatcher) StartSweep(interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				n := d.reclaimDeadWorkers()
				if n > 0 {
					log.Printf("[dispatcher] reclaimed %d sub-job(s) from dead workers", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// deadWorkers returns the set of workerIDs whose last heartbeat is older
// than the dead threshold.
func (d *Dispatcher) deadWorkers(now time.Time) map[string]bool {
	d.workersMu.Lock()
	defer d.workersMu.Unlock()

	dead := make(map[string]bool)
	for id, last := range d.workers {
		if now.Sub(last) > d.deadThreshold {
			dead[id] = true
			delete(d.workers, id)
		}
	}
	return dead
}

// reclaimDeadWorkers moves every pending assignment held by a dead
// worker back onto the queue, marked as a requeue.
func (d *Dispatcher) reclaimDeadWorkers() int {
	dead := d.deadWorkers(time.Now())
	if len(dead) == 0 {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	reclaimed := make([]*registry.SubJob, 0)
	for subJobID, a := range d.pending {
		if !dead[a.workerID] {
			continue
		}
		a.subJob.IsRequeue = true
		reclaimed = append(reclaimed, a.subJob)
		delete(d.pending, subJobID)
	}
	d.queue = append(d.queue, reclaimed...)
	return len(reclaimed)
}
