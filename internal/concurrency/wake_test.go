// File: internal/concurrency/wake_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Integration tests of the wake protocol over a live roster.

package concurrency

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestPool(t *testing.T, n int) *Pool {
	t.Helper()
	if n > 1 && Recommended() < n {
		t.Skipf("requires %d CPUs, host recommends %d", n, Recommended())
	}
	p := NewPool(false)
	p.Prepare(n)
	return p
}

// waitIdle blocks until the quick check observes a parked worker.
func waitIdle(t *testing.T, p *Pool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !p.HasIdle() {
		if time.Now().After(deadline) {
			t.Fatalf("Expected an idle worker within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for %s", what)
	}
}

// TestTrySpawn_Handoff tests the single-producer/single-idle-worker
// handoff, including the round-trip happens-before guarantee.
func TestTrySpawn_Handoff(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()
	waitIdle(t, p)

	cell := 0
	done := make(chan struct{})
	cell = 41
	if !p.TrySpawn(func(worker int) {
		// Writes sequenced before the successful TrySpawn are visible.
		cell++
		close(done)
	}) {
		t.Fatalf("Expected TrySpawn to claim the parked worker")
	}
	waitDone(t, done, "callback")
	if cell != 42 {
		t.Errorf("Expected cell 42, got %d", cell)
	}
}

// TestTrySpawn_NoIdleWorker tests the advisory miss: a roster with only
// the main worker has nobody parked.
func TestTrySpawn_NoIdleWorker(t *testing.T) {
	p := NewPool(false)
	p.Prepare(1)
	defer p.Shutdown()

	var ran atomic.Bool
	if p.TrySpawn(func(int) { ran.Store(true) }) {
		t.Fatalf("Expected TrySpawn to miss with an empty idle stack")
	}
	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Errorf("Expected the callback not to run")
	}
}

// TestTrySpawn_ExactlyOnce tests that every accepted callback runs exactly
// once across a burst of back-to-back TrySpawn calls from one producer.
func TestTrySpawn_ExactlyOnce(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()

	var runs atomic.Int64
	accepted := 0
	for i := 0; i < 200; i++ {
		if p.TrySpawn(func(int) { runs.Add(1) }) {
			accepted++
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() != int64(accepted) {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d runs, got %d", accepted, runs.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

// TestIdle_PredicateRelease tests scenario: a worker parks on a predicate,
// another thread flips the state and wakes it, Idle returns having run
// nothing but the no-op.
func TestIdle_PredicateRelease(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()
	waitIdle(t, p)

	type readyState struct{ done atomic.Bool }
	r := &readyState{}
	entered := make(chan int, 1)
	finished := make(chan struct{})

	if !p.TrySpawn(func(worker int) {
		entered <- worker
		p.Idle(r, func(v any) bool { return v.(*readyState).done.Load() })
		close(finished)
	}) {
		t.Fatalf("Expected TrySpawn to claim the parked worker")
	}

	var worker int
	select {
	case worker = <-entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for the worker to enter Idle")
	}

	r.done.Store(true)
	p.Wakeup(worker)
	waitDone(t, finished, "Idle to return")
}

// TestWakeup_Unparked tests that waking a worker that is busy (or whose
// mailbox is claimed) is harmless and idempotent.
func TestWakeup_Unparked(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()
	waitIdle(t, p)

	gate := make(chan struct{})
	started := make(chan int, 1)
	var runs atomic.Int64
	if !p.TrySpawn(func(worker int) {
		runs.Add(1)
		started <- worker
		<-gate
	}) {
		t.Fatalf("Expected TrySpawn to claim the parked worker")
	}
	worker := <-started
	// The worker is mid-callback with an empty mailbox; kicks must not
	// deliver anything beyond no-ops.
	p.Wakeup(worker)
	p.Wakeup(worker)
	close(gate)

	time.Sleep(20 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("Expected exactly one real delivery, got %d", got)
	}
}

// TestShutdown_AggregatesPanics tests that a callback panic surfaces in
// the aggregate shutdown error while ordinary termination contributes
// nothing.
func TestShutdown_AggregatesPanics(t *testing.T) {
	p := newTestPool(t, 2)
	waitIdle(t, p)

	if !p.TrySpawn(func(int) { panic("boom") }) {
		t.Fatalf("Expected TrySpawn to claim the parked worker")
	}
	waitDone(t, p.joins[1].done, "worker thread to unwind")

	err := p.Shutdown()
	if err == nil {
		t.Fatalf("Expected an aggregate error from shutdown")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected aggregate to contain the panic payload, got %v", err)
	}
}

// TestShutdown_Drains tests drain-completeness: after Shutdown returns,
// every worker thread has exited.
func TestShutdown_Drains(t *testing.T) {
	p := newTestPool(t, 2)
	waitIdle(t, p)
	if err := p.Shutdown(); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}
	for i := 1; i < p.NumWorkers(); i++ {
		select {
		case <-p.joins[i].done:
		default:
			t.Errorf("Expected worker %d to have exited", i)
		}
	}
}

// TestPrepare_Idempotent tests that later calls are no-ops.
func TestPrepare_Idempotent(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()

	before := p.NumWorkers()
	p.Prepare(1)
	p.PrepareOptional(0)
	if got := p.NumWorkers(); got != before {
		t.Errorf("Expected roster to stay at %d workers, got %d", before, got)
	}
}

// TestRoster_Identity tests Self, All order along the sibling ring, and
// membership checks.
func TestRoster_Identity(t *testing.T) {
	p := newTestPool(t, 2)
	defer p.Shutdown()

	if got := p.Self(); got != 0 {
		t.Errorf("Expected the preparing thread to be worker 0, got %d", got)
	}

	all := p.All()
	if len(all) != p.NumWorkers() {
		t.Fatalf("Expected %d ids, got %d", p.NumWorkers(), len(all))
	}
	for i, id := range all {
		if id != i {
			t.Errorf("Expected sibling ring order %d at position %d, got %d", i, i, id)
		}
	}

	if !p.IsManaged(0) || !p.IsManaged(p.NumWorkers()-1) {
		t.Errorf("Expected roster ids to be managed")
	}
	if p.IsManaged(-1) || p.IsManaged(p.NumWorkers()) {
		t.Errorf("Expected out-of-roster ids to be unmanaged")
	}

	waitIdle(t, p)
	got := make(chan int, 1)
	if !p.TrySpawn(func(worker int) { got <- p.Self() }) {
		t.Fatalf("Expected TrySpawn to claim the parked worker")
	}
	select {
	case id := <-got:
		if id != 1 {
			t.Errorf("Expected spawned worker to self-identify as 1, got %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for Self on the worker")
	}
}

// TestSelf_UnmanagedPanics tests the fail-stop contract for worker-only
// APIs.
func TestSelf_UnmanagedPanics(t *testing.T) {
	p := NewPool(false)

	defer func() {
		if recover() == nil {
			t.Errorf("Expected Self from an unmanaged thread to panic")
		}
	}()
	p.Self()
}
