// File: internal/dispatch/dispatch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Placement policy above the wake protocol. Submit first attempts the
// opportunistic TrySpawn handoff; on a miss the task lands in a FIFO
// overflow queue and a roster member is kicked. A resident drain callback
// polls the queue through Idle, so a parked drainer still serves direct
// TrySpawn traffic while it sleeps. In-flight work is bounded by a
// weighted semaphore.

package dispatch

import (
	"context"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"golang.org/x/sync/semaphore"

	"github.com/momentics/hioload-workers/api"
	"github.com/momentics/hioload-workers/internal/concurrency"
)

// Ensure compile-time interface compliance.
var _ api.Submitter = (*Dispatcher)(nil)

// Dispatcher chains TrySpawn with queued placement over one pool.
type Dispatcher struct {
	pool *concurrency.Pool

	mu   sync.Mutex
	fifo *queue.Queue // of func()

	sem *semaphore.Weighted

	// queueLimit caps the FIFO length when positive; zero means
	// unbounded. Adjustable at runtime through the control surface.
	queueLimit atomic.Int64

	// anchor is the worker id running the drain loop, -1 before Start.
	anchor atomic.Int64
	closed atomic.Bool
	done   chan struct{}

	// Counters exported through Snapshot.
	direct    atomic.Uint64
	queued    atomic.Uint64
	drained   atomic.Uint64
	panicked  atomic.Uint64
	submitted atomic.Uint64
}

// New creates a dispatcher over pool with at most bound tasks in flight.
func New(pool *concurrency.Pool, bound int64) *Dispatcher {
	if bound <= 0 {
		bound = int64(concurrency.Recommended()) * 64
	}
	d := &Dispatcher{
		pool: pool,
		fifo: queue.New(),
		sem:  semaphore.NewWeighted(bound),
		done: make(chan struct{}),
	}
	d.anchor.Store(-1)
	return d
}

// Start installs the resident drain loop on an idle worker. Right after
// Prepare the workers are still racing onto the idle stack, so the handoff
// is retried briefly before giving up.
func (d *Dispatcher) Start() error {
	for i := 0; i < 1000; i++ {
		if d.pool.TrySpawn(d.drainLoop) {
			return nil
		}
		if i%100 == 99 {
			time.Sleep(time.Millisecond)
		} else {
			runtime.Gosched()
		}
	}
	return api.ErrNoIdleWorker
}

// Submit places task on some managed worker. The fast path hands it to an
// idle worker directly; otherwise it is queued and the drain anchor kicked.
// Blocks only on the in-flight bound or ctx cancellation.
func (d *Dispatcher) Submit(ctx context.Context, task func()) error {
	if task == nil {
		return api.ErrNilTask
	}
	if d.closed.Load() {
		return api.ErrDispatcherClosed
	}
	if d.pool.Terminated() {
		return api.ErrPoolTerminated
	}
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if d.pool.TrySpawn(func(int) {
		d.runTask(task)
		d.drain()
	}) {
		d.submitted.Add(1)
		d.direct.Add(1)
		return nil
	}
	if limit := d.queueLimit.Load(); limit > 0 && int64(d.pending()) >= limit {
		d.sem.Release(1)
		return api.ErrQueueFull
	}
	d.mu.Lock()
	d.fifo.Add(task)
	d.mu.Unlock()
	d.submitted.Add(1)
	d.queued.Add(1)
	if a := d.anchor.Load(); a >= 0 {
		d.pool.Wakeup(int(a))
	}
	return nil
}

// drainLoop is the resident callback: park on the pool's idle stack until
// there is queued work or the dispatcher closes, then drain. While parked
// in Idle the anchor worker remains claimable by TrySpawn.
func (d *Dispatcher) drainLoop(id int) {
	defer close(d.done)
	d.anchor.Store(int64(id))
	for {
		d.pool.Idle(d, func(v any) bool {
			dd := v.(*Dispatcher)
			return dd.closed.Load() || dd.pending() > 0
		})
		d.drain()
		if d.pool.Terminated() {
			return
		}
		if d.closed.Load() && d.pending() == 0 {
			return
		}
	}
}

// drain runs queued tasks until the FIFO is empty.
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if d.fifo.Length() == 0 {
			d.mu.Unlock()
			return
		}
		task := d.fifo.Remove().(func())
		d.mu.Unlock()
		d.runTask(task)
		d.drained.Add(1)
	}
}

// runTask executes one task, releasing its in-flight slot and containing
// panics so a failing task cannot take the drain worker down with it.
func (d *Dispatcher) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
			log.Printf("[dispatch] task panic: %v", r)
		}
		d.sem.Release(1)
	}()
	task()
}

// SetQueueLimit adjusts the FIFO cap at runtime; non-positive limits mean
// unbounded. The facade applies the "dispatch.queue_limit" tunable here on
// every control reload.
func (d *Dispatcher) SetQueueLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	d.queueLimit.Store(int64(limit))
}

func (d *Dispatcher) pending() int {
	d.mu.Lock()
	n := d.fifo.Length()
	d.mu.Unlock()
	return n
}

// Close stops accepting tasks, wakes the drain loop, and waits for it to
// finish the queue. Safe to call more than once.
func (d *Dispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if a := d.anchor.Load(); a >= 0 {
		d.pool.Wakeup(int(a))
		<-d.done
	}
	return nil
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Submitted uint64
	Direct    uint64
	Queued    uint64
	Drained   uint64
	Panicked  uint64
	Pending   int
}

// Snapshot returns current counter values.
func (d *Dispatcher) Snapshot() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Direct:    d.direct.Load(),
		Queued:    d.queued.Load(),
		Drained:   d.drained.Load(),
		Panicked:  d.panicked.Load(),
		Pending:   d.pending(),
	}
}
