// File: internal/concurrency/wake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The wake protocol: TrySpawn, Wakeup, Idle, the worker main loop, and the
// shutdown drain. Producers pop the idle stack and publish into a slot
// mailbox; workers park on their own condition and re-enter the stack when
// done. The only process-wide synchronization point is the stack top.

package concurrency

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-workers/api"
)

// noopCallback is installed by Wakeup into an empty mailbox. Running it is
// how a kicked worker re-evaluates its surroundings.
func noopCallback(int) {}

// TrySpawn opportunistically hands cb to an idle worker. One relaxed load,
// one CAS attempt, one publish; any miss returns false immediately. The
// result is advisory; callers chain it with other placement strategies.
func (p *Pool) TrySpawn(cb api.Callback) bool {
	if cb == nil {
		panic("hioload-workers: TrySpawn with nil callback")
	}
	s, ok := p.idle.pop(p.slots)
	if !ok {
		p.misses.Add(1)
		return false
	}
	// The pop transferred ownership of the slot's stack entry to us. A
	// publish can still lose to a wakeup that fired first; that miss is
	// reported, not retried.
	if !s.publish(cb) {
		p.misses.Add(1)
		return false
	}
	p.spawns.Add(1)
	return true
}

// Wakeup ensures worker id is not left parked. An empty mailbox gets the
// no-op callback; an occupied one means the worker is already waking and
// the kick is dropped. The worker is never popped off the idle stack here;
// it re-evaluates its own membership when it next parks.
func (p *Pool) Wakeup(id int) {
	if !p.IsManaged(id) {
		panic(fmt.Sprintf("hioload-workers: Wakeup of unmanaged worker %d", id))
	}
	p.wakeups.Add(1)
	p.slots[id].kick(noopCallback)
}

// Idle parks the calling worker until until(ready) reports true. The
// predicate is re-checked under the slot lock before every wait, closing
// the race where a producer flips the condition and calls Wakeup between
// the outer check and the park. Callbacks delivered while parked run on
// the caller; shutdown also releases the loop.
func (p *Pool) Idle(ready any, until func(any) bool) {
	id, ok := p.lookupSelf()
	if !ok {
		panic("hioload-workers: Idle called from an unmanaged thread")
	}
	s := p.slots[id]
	for !until(ready) && !p.term.Load() {
		p.park(s, ready, until)
	}
}

// park is one parked episode of a slot's owner: enter the idle stack if
// not already on it, wait for a mailbox or the predicate, drain, run.
// A slot left on the stack by a wakeup that never popped it must not be
// pushed again: the single nextIdx link admits one entry per worker.
func (p *Pool) park(s *workerSlot, ready any, until func(any) bool) {
	if !s.onStack.Load() {
		// Order matters: mark before pushing, because a producer may
		// pop and clear the flag the instant the push lands.
		s.onStack.Store(true)
		p.idle.push(s)
	}
	s.mu.Lock()
	for s.mailbox == nil && !p.term.Load() && !(until != nil && until(ready)) {
		s.cond.Wait()
	}
	cb := s.mailbox
	s.mailbox = nil
	s.mu.Unlock()
	if cb != nil {
		cb(int(s.id))
	}
}

// runWorker is the main loop of a spawned worker. It returns nil on the
// ordinary shutdown path; a panic out of a user callback is captured and
// becomes the worker's join error, ending its thread early.
func (p *Pool) runWorker(s *workerSlot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d: callback panic: %v", s.id, r)
		}
	}()
	for !p.term.Load() {
		p.park(s, nil, nil)
	}
	return nil
}

// Shutdown sets the terminated flag, kicks every spawned worker, and joins
// them from the highest id down. Captured callback panics are aggregated in
// that join order (highest id first); the ordinary termination path
// contributes nothing.
func (p *Pool) Shutdown() error {
	if !p.initialized.Load() {
		return nil
	}
	p.term.Store(true)
	// Kick every slot, main included: a worker parked in Idle re-checks
	// the terminated flag only when signaled.
	for _, s := range p.slots {
		s.kick(noopCallback)
	}
	var errs []error
	for i := len(p.slots) - 1; i >= 1; i-- {
		j := p.joins[i]
		<-j.done
		if j.err != nil {
			errs = append(errs, j.err)
		}
	}
	return errors.Join(errs...)
}

// Stats is a snapshot of the pool counters.
type Stats struct {
	Spawns  uint64
	Misses  uint64
	Wakeups uint64
	Workers int
	Idle    int
}

// Snapshot returns current counter values. Collected without locks, so
// values may be mutually inconsistent under load.
func (p *Pool) Snapshot() Stats {
	return Stats{
		Spawns:  p.spawns.Load(),
		Misses:  p.misses.Load(),
		Wakeups: p.wakeups.Load(),
		Workers: p.NumWorkers(),
		Idle:    p.IdleDepth(),
	}
}
