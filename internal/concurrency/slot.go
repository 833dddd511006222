// File: internal/concurrency/slot.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-worker slot: park primitive plus single-slot mailbox. Exactly one
// worker thread owns a slot; the mutex guards the mailbox and the condition
// variable is bound to that mutex. Producers fill an empty mailbox under the
// lock, only the owner drains it.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-workers/api"
)

// workerSlot is the per-worker record. nextIdx and onStack are the hot
// fields touched by the lock-free stack; the trailing padding keeps them
// off neighboring slots' cache lines.
type workerSlot struct {
	mu   sync.Mutex
	cond *sync.Cond
	id   uint32

	// mailbox holds at most one pending callback; nil means empty.
	// Guarded by mu.
	mailbox api.Callback

	// nextIdx links this slot into the idle stack. Written by the owner
	// immediately before the push CAS, read by the producer that pops it;
	// meaningless while the slot is off the stack.
	nextIdx atomic.Uint32

	// onStack is true from the owner's push until a producer's successful
	// pop. The owner consults it when re-parking so a wakeup that never
	// popped the slot does not lead to a duplicate stack entry.
	onStack atomic.Bool

	_ [64]byte
}

func newWorkerSlot(id uint32) *workerSlot {
	s := &workerSlot{id: id}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// publish stores cb into the mailbox if it is empty and signals the owner.
// It returns false when the slot was already claimed by another producer.
// The lock is held only across the mailbox check and store, never across
// user work.
func (s *workerSlot) publish(cb api.Callback) bool {
	s.mu.Lock()
	if s.mailbox != nil {
		s.mu.Unlock()
		return false
	}
	s.mailbox = cb
	s.mu.Unlock()
	s.cond.Signal()
	return true
}

// kick installs cb only when the mailbox is empty, then signals. Used by
// Wakeup with the no-op callback: an occupied mailbox means the worker is
// already waking, so the kick is dropped.
func (s *workerSlot) kick(cb api.Callback) {
	s.mu.Lock()
	if s.mailbox == nil {
		s.mailbox = cb
	}
	s.mu.Unlock()
	s.cond.Signal()
}
