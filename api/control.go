// File: api/control.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime observability and tuning surface of the worker pool. Counters
// mirror the pool and dispatcher hot-path atomics; probes snapshot live
// state such as idle-stack depth; tunables are the knobs that may change
// after Start (currently the dispatcher queue limit).

package api

// Control exposes pool counters, live-state probes, and tunable knobs.
type Control interface {
	// SetTunable updates a live-adjustable knob and notifies reload
	// listeners. Unknown keys are stored; consumers decide relevance.
	SetTunable(key string, value any) error

	// Tunable reads a knob back, with ok reporting presence.
	Tunable(key string) (value any, ok bool)

	// OnReload registers fn to run after every tunable change.
	OnReload(fn func())

	// Counters returns the current counter values (spawns, misses,
	// wakeups, dispatch traffic).
	Counters() map[string]int64

	// RegisterProbe installs a named live-state probe. A probe must be
	// cheap and safe to run from any thread.
	RegisterProbe(name string, fn func() any)

	// DumpState merges counters with probe output into one snapshot,
	// probe keys prefixed "debug.".
	DumpState() map[string]any
}
