//go:build !linux
// +build !linux

// File: internal/concurrency/pin_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub pinning for platforms without sched_setaffinity support. Pinning is
// advisory, so pin/unpin degrade to no-ops; querying the CPU is reported
// unsupported.

package concurrency

import "github.com/momentics/hioload-workers/api"

func pinCurrentThread(cpuID int) error {
	return nil
}

func unpinCurrentThread() error {
	return nil
}

func currentCPU() (int, error) {
	return -1, api.ErrNotSupported
}
