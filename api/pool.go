// File: api/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool contract: a fixed roster of managed worker threads with a lock-free
// idle registry. Producers hand callbacks to idle workers; workers park
// voluntarily and cannot be stolen from.

package api

import "context"

// Callback is a unit of work executed on a managed worker's own thread.
// It receives the id of the worker running it and may block, suspend, or
// run arbitrarily long.
type Callback func(worker int)

// Pool is the wake-protocol surface of the managed worker roster.
type Pool interface {
	// TrySpawn opportunistically hands cb to an idle worker. It returns
	// false immediately when no worker appears available or another
	// producer won the race; it never blocks on user work and never
	// retries internally.
	TrySpawn(cb Callback) bool

	// Wakeup ensures the worker with the given id is not left parked.
	// If its mailbox is empty a no-op callback is installed and the
	// worker is signaled; otherwise the call does nothing.
	Wakeup(worker int)

	// Idle parks the calling worker until until(ready) reports true.
	// The caller MUST be a managed worker thread. Callbacks delivered
	// while parked (including the wakeup no-op) run on the caller.
	Idle(ready any, until func(any) bool)

	// Self returns the id of the calling managed worker. Calling from an
	// unmanaged thread is a programming error and fails hard.
	Self() int

	// All returns a snapshot of every worker id, in sibling-ring order
	// starting from the main id.
	All() []int

	// IsManaged reports whether id names a roster member.
	IsManaged(worker int) bool

	// NumWorkers returns the fixed roster size.
	NumWorkers() int

	// HasIdle reports, with a single atomic load and no fence, whether
	// any worker had completed parking at the time of the call. The
	// answer is advisory.
	HasIdle() bool
}

// Submitter places tasks onto the pool through a policy layer that may
// queue when no worker is idle.
type Submitter interface {
	// Submit runs task on some managed worker, queueing it when the
	// opportunistic handoff misses. It blocks only on backpressure or
	// ctx cancellation.
	Submit(ctx context.Context, task func()) error
}
