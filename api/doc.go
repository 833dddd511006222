// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package api defines the public contracts of hioload-workers: the callback
// type handed to managed workers, the pool and dispatch interfaces, affinity
// control, runtime control/metrics, and graceful shutdown. Implementations
// live in internal/concurrency, internal/dispatch, and control; the facade
// package aggregates them.
package api
