// File: facade/workers.go
// Unified facade layer for the hioload-workers library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the Workers struct, which aggregates the managed
// worker roster, the dispatch layer, and the control surface behind a
// single facade. It initializes the pool, the bounded dispatcher, and
// control/metrics based on immutable configuration, and exposes the wake
// protocol (TrySpawn, Wakeup, Idle), worker identity (Self, All,
// IsManaged), task submission, runtime stats, and graceful shutdown.

package facade

import (
	"context"
	"log"
	"sync"

	"github.com/momentics/hioload-workers/api"
	"github.com/momentics/hioload-workers/control"
	"github.com/momentics/hioload-workers/internal/concurrency"
	"github.com/momentics/hioload-workers/internal/dispatch"
)

// Config holds parameters immutable per run.
type Config struct {
	NumWorkers    int   // Roster size; 0 selects the recommended count
	CPUAffinity   bool  // Whether to pin worker threads to CPU cores
	DispatchBound int64 // Max in-flight dispatcher tasks; 0 selects a default
	EnableDebug   bool  // Whether to register pool debug probes
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		NumWorkers:    0, // recommended count
		CPUAffinity:   true,
		DispatchBound: 0, // dispatcher default
		EnableDebug:   true,
	}
}

// Workers is the main facade type. It implements api.GracefulShutdown to
// allow unified shutdown logic.
type Workers struct {
	pool       *concurrency.Pool
	dispatcher *dispatch.Dispatcher
	control    *control.Adapter

	config  *Config
	mu      sync.Mutex
	started bool
	stopped bool
}

// Ensure compliance with the public contracts.
var (
	_ api.GracefulShutdown = (*Workers)(nil)
	_ api.Pool             = (*Workers)(nil)
	_ api.Submitter        = (*Workers)(nil)
)

// New constructs Workers with the given configuration. The roster is not
// armed until Start.
func New(cfg *Config) (*Workers, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.NumWorkers < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "negative worker count").
			WithContext("num_workers", cfg.NumWorkers)
	}
	if cfg.DispatchBound < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "negative dispatch bound").
			WithContext("dispatch_bound", cfg.DispatchBound)
	}
	w := &Workers{
		pool:    concurrency.NewPool(cfg.CPUAffinity),
		control: control.NewAdapter(),
		config:  cfg,
	}
	w.dispatcher = dispatch.New(w.pool, cfg.DispatchBound)
	return w, nil
}

// Start arms the roster and installs the dispatcher's drain loop. The
// calling thread becomes the main worker (id 0). Idempotent.
func (w *Workers) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	w.pool.PrepareOptional(w.config.NumWorkers)
	if err := w.dispatcher.Start(); err != nil {
		return err
	}
	if w.config.EnableDebug {
		w.control.RegisterProbe("pool.idle_depth", func() any { return w.pool.IdleDepth() })
		w.control.RegisterProbe("pool.has_idle", func() any { return w.pool.HasIdle() })
		w.control.RegisterProbe("pool.workers", func() any { return w.pool.NumWorkers() })
	}
	// The queue limit is the live knob: every reload re-reads it and
	// applies it to the dispatcher.
	w.control.OnReload(func() {
		if limit, ok := w.control.TunableInt("dispatch.queue_limit"); ok {
			w.dispatcher.SetQueueLimit(limit)
		}
	})
	_ = w.control.SetTunable("num_workers", w.pool.NumWorkers())
	_ = w.control.SetTunable("cpu_affinity", w.config.CPUAffinity)
	_ = w.control.SetTunable("dispatch_bound", w.config.DispatchBound)
	w.started = true
	log.Printf("[facade] started %d workers", w.pool.NumWorkers())
	return nil
}

// TrySpawn hands cb directly to an idle worker; see api.Pool.
func (w *Workers) TrySpawn(cb api.Callback) bool {
	return w.pool.TrySpawn(cb)
}

// Wakeup kicks a possibly parked worker; see api.Pool.
func (w *Workers) Wakeup(id int) {
	w.pool.Wakeup(id)
}

// Idle parks the calling worker on a predicate; see api.Pool.
func (w *Workers) Idle(ready any, until func(any) bool) {
	w.pool.Idle(ready, until)
}

// Self returns the calling worker's id; see api.Pool.
func (w *Workers) Self() int { return w.pool.Self() }

// All lists worker ids in sibling-ring order; see api.Pool.
func (w *Workers) All() []int { return w.pool.All() }

// IsManaged tests roster membership; see api.Pool.
func (w *Workers) IsManaged(id int) bool { return w.pool.IsManaged(id) }

// NumWorkers returns the roster size.
func (w *Workers) NumWorkers() int { return w.pool.NumWorkers() }

// HasIdle is the one-load idle quick check.
func (w *Workers) HasIdle() bool { return w.pool.HasIdle() }

// Submit places a task through the dispatcher; see api.Submitter.
func (w *Workers) Submit(ctx context.Context, task func()) error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if !started {
		return api.ErrNotPrepared
	}
	return w.dispatcher.Submit(ctx, task)
}

// Control exposes the runtime control surface.
func (w *Workers) Control() api.Control { return w.control }

// Terminated reports whether the roster drain has begun.
func (w *Workers) Terminated() bool { return w.pool.Terminated() }

// Affinity exposes thread pinning for callers managing their own threads.
func (w *Workers) Affinity() api.Affinity { return concurrency.ThreadAffinity{} }

// Stats copies the current pool and dispatcher counters onto the control
// board and returns the combined state dump.
func (w *Workers) Stats() map[string]any {
	ps := w.pool.Snapshot()
	w.control.StoreCounter("pool.spawns", int64(ps.Spawns))
	w.control.StoreCounter("pool.misses", int64(ps.Misses))
	w.control.StoreCounter("pool.wakeups", int64(ps.Wakeups))
	w.control.StoreCounter("pool.idle", int64(ps.Idle))
	ds := w.dispatcher.Snapshot()
	w.control.StoreCounter("dispatch.submitted", int64(ds.Submitted))
	w.control.StoreCounter("dispatch.direct", int64(ds.Direct))
	w.control.StoreCounter("dispatch.queued", int64(ds.Queued))
	w.control.StoreCounter("dispatch.drained", int64(ds.Drained))
	w.control.StoreCounter("dispatch.panicked", int64(ds.Panicked))
	w.control.StoreCounter("dispatch.pending", int64(ds.Pending))
	return w.control.DumpState()
}

// Shutdown drains the dispatcher, terminates the roster, and joins every
// worker. Callback panics captured by workers come back as one aggregate
// error. Idempotent: only the first call drains; later calls return nil.
func (w *Workers) Shutdown() error {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()
	if err := w.dispatcher.Close(); err != nil {
		log.Printf("[facade] dispatcher close: %v", err)
	}
	err := w.pool.Shutdown()
	if err != nil {
		log.Printf("[facade] shutdown with worker failures: %v", err)
	} else {
		log.Printf("[facade] shutdown complete")
	}
	return err
}
