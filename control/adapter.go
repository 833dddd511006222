// control/adapter.go
// Author: momentics <momentics@gmail.com>
//
// Adapter binds tunables, counters and probes into the api.Control
// contract for the facade. Tunable changes are themselves counted, so the
// board records how often operators retuned a running pool.

package control

import (
	"github.com/momentics/hioload-workers/api"
)

// Adapter implements api.Control over the control package primitives.
type Adapter struct {
	tunables *TunableStore
	counters *CounterBoard
	probes   *ProbeSet
}

// Ensure compile-time interface compliance.
var _ api.Control = (*Adapter)(nil)

// NewAdapter constructs a control adapter with runtime probes installed.
func NewAdapter() *Adapter {
	a := &Adapter{
		tunables: NewTunableStore(),
		counters: NewCounterBoard(),
		probes:   NewProbeSet(),
	}
	RegisterRuntimeProbes(a.probes)
	return a
}

// SetTunable stores a knob, counts the change, and lets the store notify
// reload listeners.
func (a *Adapter) SetTunable(key string, value any) error {
	a.tunables.Set(key, value)
	a.counters.Add("control.reloads", 1)
	return nil
}

// Tunable reads a knob back.
func (a *Adapter) Tunable(key string) (any, bool) {
	return a.tunables.Get(key)
}

// TunableInt reads an integer knob; reload listeners use it to apply
// typed values without re-validating the store.
func (a *Adapter) TunableInt(key string) (int, bool) {
	return a.tunables.GetInt(key)
}

// OnReload registers a listener for tunable changes.
func (a *Adapter) OnReload(fn func()) {
	a.tunables.OnReload(fn)
}

// Counters returns the current counter values.
func (a *Adapter) Counters() map[string]int64 {
	return a.counters.Counters()
}

// StoreCounter copies one absolute counter value onto the board. The
// facade feeds pool and dispatcher snapshots through here.
func (a *Adapter) StoreCounter(key string, v int64) {
	a.counters.Store(key, v)
}

// RegisterProbe installs a named live-state probe.
func (a *Adapter) RegisterProbe(name string, fn func() any) {
	a.probes.Register(name, fn)
}

// DumpState merges counters with probe output, probe keys prefixed
// "debug.".
func (a *Adapter) DumpState() map[string]any {
	out := make(map[string]any)
	for k, v := range a.counters.Counters() {
		out[k] = v
	}
	for k, v := range a.probes.DumpState() {
		out["debug."+k] = v
	}
	return out
}
