// File: control/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package control provides the runtime observability surface of
// hioload-workers: a counter/metrics registry fed by the pool and
// dispatcher, a dynamic configuration store with reload listeners, and a
// debug-probe registry for live state snapshots. The Adapter type bundles
// the three behind the api.Control contract for the facade.
package control
