//go:build linux
// +build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux thread pinning through sched_setaffinity. Pure Go via x/sys/unix,
// no cgo or libnuma required.

package concurrency

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pinCurrentThread binds the calling OS thread to a single CPU core.
func pinCurrentThread(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return unix.SchedSetaffinity(0, &set)
}

// unpinCurrentThread widens the calling thread's mask back to all CPUs.
func unpinCurrentThread() error {
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < runtime.NumCPU(); i++ {
		set.Set(i)
	}
	return unix.SchedSetaffinity(0, &set)
}

// currentCPU returns the CPU the calling thread last ran on.
func currentCPU() (int, error) {
	var cpu, node uint32
	_, _, errno := unix.RawSyscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0)
	if errno != 0 {
		return 0, errno
	}
	return int(cpu), nil
}
