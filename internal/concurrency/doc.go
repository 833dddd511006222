// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-free idle-worker registry and wake protocol for hioload-workers.
// A fixed roster of OS-thread-locked workers shares one Treiber stack of
// idle indices; the top is a single tagged atomic word, so any thread can
// test for an idle worker with one relaxed load and claim one with a CAS.
// Per-worker handoff goes through a mutex/cond guarded single-slot mailbox.
// Cross-platform CPU pinning lives behind build tags in the pin_* files.
package concurrency
