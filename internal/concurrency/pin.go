// File: internal/concurrency/pin.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral surface for CPU pinning of worker threads. The real
// implementations live in pin_linux.go and pin_stub.go behind build tags;
// pinning is a performance concern and unsupported platforms degrade to
// no-ops.

package concurrency

import "github.com/momentics/hioload-workers/api"

// ThreadAffinity exposes thread pinning through the api.Affinity contract.
// The caller is responsible for holding runtime.LockOSThread while pinned.
type ThreadAffinity struct{}

// Ensure compile-time interface compliance.
var _ api.Affinity = ThreadAffinity{}

// Pin locks the calling OS thread to the given CPU core.
func (ThreadAffinity) Pin(cpuID int) error {
	return pinCurrentThread(cpuID)
}

// Unpin restores the default affinity mask for the calling thread.
func (ThreadAffinity) Unpin() error {
	return unpinCurrentThread()
}

// Current returns the CPU the calling thread last ran on.
func (ThreadAffinity) Current() (int, error) {
	return currentCPU()
}
