// File: facade/global.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide default instance. The roster, idle stack, and terminated
// flag are global state by nature; Prepare is their one-shot constructor.
// All package-level functions delegate to a lazily installed Workers
// singleton, so library users need no facade plumbing of their own.

package facade

import (
	"context"
	"sync"

	"github.com/momentics/hioload-workers/api"
	"github.com/momentics/hioload-workers/internal/concurrency"
)

var (
	defaultMu      sync.Mutex
	defaultWorkers *Workers
)

// Prepare arms the process-wide pool with n workers (n above Recommended()
// is clamped to it, zero selects Recommended(), and a negative n returns an
// invalid-argument error); the calling thread becomes the main worker.
// Idempotent: only the first effective call installs workers.
func Prepare(n int) error {
	return prepare(n)
}

// PrepareOptional is Prepare with the count defaulted: non-positive n
// selects the recommended count.
func PrepareOptional(n int) error {
	if n <= 0 {
		n = concurrency.Recommended()
	}
	return prepare(n)
}

func prepare(n int) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultWorkers != nil {
		return nil
	}
	cfg := DefaultConfig()
	cfg.NumWorkers = n
	w, err := New(cfg)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defaultWorkers = w
	return nil
}

// Recommended returns the default worker count for this host.
func Recommended() int {
	return concurrency.Recommended()
}

func instance() *Workers {
	defaultMu.Lock()
	w := defaultWorkers
	defaultMu.Unlock()
	if w == nil {
		panic("hioload-workers: pool not prepared")
	}
	return w
}

// TrySpawn hands cb to an idle worker of the default pool.
func TrySpawn(cb api.Callback) bool {
	return instance().TrySpawn(cb)
}

// Wakeup kicks worker id of the default pool.
func Wakeup(id int) {
	instance().Wakeup(id)
}

// Idle parks the calling managed worker until until(ready) holds.
func Idle(ready any, until func(any) bool) {
	instance().Idle(ready, until)
}

// Self returns the calling worker's id in the default pool.
func Self() int {
	return instance().Self()
}

// All lists the default pool's worker ids in sibling-ring order.
func All() []int {
	return instance().All()
}

// IsManaged tests default-pool roster membership.
func IsManaged(id int) bool {
	return instance().IsManaged(id)
}

// Submit places a task through the default pool's dispatcher.
func Submit(ctx context.Context, task func()) error {
	return instance().Submit(ctx, task)
}

// Shutdown drains and joins the default pool. The exit-hook analogue:
// call it once from the main thread before process exit; worker callback
// panics come back aggregated.
func Shutdown() error {
	defaultMu.Lock()
	w := defaultWorkers
	defaultMu.Unlock()
	if w == nil {
		return nil
	}
	return w.Shutdown()
}
