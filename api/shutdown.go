// File: api/shutdown.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Drain contract of roster-owning components.

package api

// GracefulShutdown is implemented by components that own managed worker
// threads and can wind them down.
type GracefulShutdown interface {
	// Shutdown sets the process-wide terminated flag, wakes every parked
	// worker, and joins the worker threads. Callback panics captured by
	// workers surface as one aggregate error whose entries run from the
	// highest worker id down; the ordinary terminate path contributes
	// nothing. Later calls are no-ops.
	Shutdown() error

	// Terminated reports whether the drain has begun. Workers observe the
	// same flag at their poll points.
	Terminated() bool
}
