package dispatcher

import (
	"testing"
	"time"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

func TestPullFIFOOrder(t *testing.T) {
	d := New(time.Minute)
	a := &registry.SubJob{SubJobID: "job.1"}
	b := &registry.SubJob{SubJobID: "job.2"}
	d.EnqueueMany([]*registry.SubJob{a, b})

	got, ok := d.Pull("worker-1")
	if !ok || got.SubJobID != "job.1" {
		t.Fatalf("expected job.1 first, got %v ok=%v", got, ok)
	}
	got, ok = d.Pull("worker-1")
	if !ok || got.SubJobID != "job.2" {
		t.Fatalf("expected job.2 second, got %v ok=%v", got, ok)
	}
	if _, ok := d.Pull("worker-1"); ok {
		t.Fatal("expected empty queue after draining both sub-jobs")
	}
}

func TestSubmitClearsPendingAssignment(t *testing.T) {
	d := New(time.Minute)
	d.Enqueue(&registry.SubJob{SubJobID: "job.1"})
	d.Pull("worker-1")

	if d.PendingCount() != 1 {
		t.Fatalf("expected 1 pending assignment, got %d", d.PendingCount())
	}
	sj, ok := d.Submit("job.1")
	if !ok || sj.SubJobID != "job.1" {
		t.Fatalf("expected to find pending job.1, got %v ok=%v", sj, ok)
	}
	if d.PendingCount() != 0 {
		t.Fatalf("expected 0 pending assignments after submit, got %d", d.PendingCount())
	}
	if _, ok := d.Submit("job.1"); ok {
		t.Fatal("expected second submit of the same sub-job to be rejected")
	}
}

func TestReclaimDeadWorkersRequeues(t *testing.T) {
	d := New(10 * time.Millisecond)
	d.Enqueue(&registry.SubJob{SubJobID: "job.1"})
	d.Heartbeat("worker-1")
	d.Pull("worker-1")

	time.Sleep(20 * time.Millisecond)

	n := d.reclaimDeadWorkers()
	if n != 1 {
		t.Fatalf("expected 1 reclaimed sub-job, got %d", n)
	}
	if d.QueueLength() != 1 {
		t.Fatalf("expected reclaimed sub-job back in queue, queue length=%d", d.QueueLength())
	}
	if d.PendingCount() != 0 {
		t.Fatalf("expected pending assignment cleared, got %d", d.PendingCount())
	}

	sj, ok := d.Pull("worker-2")
	if !ok || !sj.IsRequeue {
		t.Fatalf("expected requeued sub-job with IsRequeue set, got %v ok=%v", sj, ok)
	}
}

func TestAliveWorkerNotReclaimed(t *testing.T) {
	d := New(time.Minute)
	d.Enqueue(&registry.SubJob{SubJobID: "job.1"})
	d.Heartbeat("worker-1")
	d.Pull("worker-1")
	d.Heartbeat("worker-1")

	if n := d.reclaimDeadWorkers(); n != 0 {
		t.Fatalf("expected 0 reclaimed sub-jobs for a live worker, got %d", n)
	}
}
