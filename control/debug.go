// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Live-state probes. A probe is a cheap closure over one subsystem
// (idle-stack depth, roster size, runtime stats) that operators run on
// demand; registration order is preserved so dumps read in the order the
// subsystems came up.

package control

import (
	"runtime"
	"sync"
)

// StateProbe reports one subsystem's live state.
type StateProbe func() any

// ProbeSet is an ordered registry of named state probes.
type ProbeSet struct {
	mu     sync.RWMutex
	order  []string
	probes map[string]StateProbe
}

// NewProbeSet creates an empty probe set.
func NewProbeSet() *ProbeSet {
	return &ProbeSet{probes: make(map[string]StateProbe)}
}

// Register installs a named probe. Re-registering a name replaces the
// probe but keeps its original position.
func (ps *ProbeSet) Register(name string, p StateProbe) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exists := ps.probes[name]; !exists {
		ps.order = append(ps.order, name)
	}
	ps.probes[name] = p
}

// Names returns the registered probe names in registration order.
func (ps *ProbeSet) Names() []string {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]string, len(ps.order))
	copy(out, ps.order)
	return out
}

// Run executes one probe by name.
func (ps *ProbeSet) Run(name string) (any, bool) {
	ps.mu.RLock()
	p, ok := ps.probes[name]
	ps.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p(), true
}

// DumpState runs every probe and collects the results by name.
func (ps *ProbeSet) DumpState() map[string]any {
	ps.mu.RLock()
	names := make([]string, len(ps.order))
	copy(names, ps.order)
	probes := make([]StateProbe, 0, len(names))
	for _, n := range names {
		probes = append(probes, ps.probes[n])
	}
	ps.mu.RUnlock()

	out := make(map[string]any, len(names))
	for i, n := range names {
		out[n] = probes[i]()
	}
	return out
}

// RegisterRuntimeProbes installs the baseline Go-runtime probes every
// deployment wants available.
func RegisterRuntimeProbes(ps *ProbeSet) {
	ps.Register("runtime.goroutines", func() any { return runtime.NumGoroutine() })
	ps.Register("runtime.gomaxprocs", func() any { return runtime.GOMAXPROCS(0) })
	ps.Register("runtime.numcpu", func() any { return runtime.NumCPU() })
}
