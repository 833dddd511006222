// File: internal/concurrency/idle_stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Treiber stack of idle worker indices. The whole structure is one tagged
// atomic word holding the top; pushes are owner-side CAS loops, pops are
// single-shot advisory CAS attempts by producers. A plain load answers
// "is anyone idle" without writing a cache line.

package concurrency

import "sync/atomic"

// idleStack holds the top-of-stack tagged word, padded so the hottest
// atomic in the process sits alone on its cache line.
type idleStack struct {
	_   [64]byte
	top atomic.Uint64
	_   [64]byte
}

// reset installs the empty sentinel with tag zero. Must run before the
// first push; the zero value of an atomic word is index 0, not none.
func (st *idleStack) reset() {
	st.top.Store(none)
}

// hasIdle reports whether some worker had completed its push at load time.
// Advisory: a worker mid-push is not yet visible.
func (st *idleStack) hasIdle() bool {
	return targetOf(st.top.Load()) != none
}

// push links s as the new top. Called only by the slot's owner, which sets
// onStack before calling. The CAS publishes nextIdx: the link is written
// before the new top becomes visible.
func (st *idleStack) push(s *workerSlot) {
	for {
		old := st.top.Load()
		s.nextIdx.Store(targetOf(old))
		if st.top.CompareAndSwap(old, makeTagged(old, s.id)) {
			return
		}
	}
}

// pop tries once to unlink the top slot. ok is false when the stack is
// empty or another producer won the CAS; the caller decides whether to
// retry. Reading nextIdx of a slot that may be concurrently re-pushed is
// safe: a stale link makes the CAS fail on the tag.
func (st *idleStack) pop(slots []*workerSlot) (s *workerSlot, ok bool) {
	old := st.top.Load()
	idx := targetOf(old)
	if idx == none {
		return nil, false
	}
	s = slots[idx]
	next := s.nextIdx.Load()
	if !st.top.CompareAndSwap(old, makeTagged(old, next)) {
		return nil, false
	}
	s.onStack.Store(false)
	return s, true
}

// depth walks the list for debug probes. The walk is racy and bounded by
// the roster size; the result is a point-in-time estimate only.
func (st *idleStack) depth(slots []*workerSlot) int {
	n := 0
	idx := targetOf(st.top.Load())
	for idx != none && n < len(slots) {
		n++
		idx = slots[idx].nextIdx.Load()
	}
	return n
}
