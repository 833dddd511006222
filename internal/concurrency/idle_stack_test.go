// File: internal/concurrency/idle_stack_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "testing"

func makeSlots(n int) []*workerSlot {
	slots := make([]*workerSlot, n)
	for i := range slots {
		slots[i] = newWorkerSlot(uint32(i))
	}
	return slots
}

// TestIdleStack_PushPop tests LIFO behavior and the onStack handshake.
func TestIdleStack_PushPop(t *testing.T) {
	slots := makeSlots(3)
	var st idleStack
	st.reset()

	for _, s := range slots {
		s.onStack.Store(true)
		st.push(s)
	}
	if !st.hasIdle() {
		t.Fatalf("Expected stack to report idle workers")
	}
	if d := st.depth(slots); d != 3 {
		t.Errorf("Expected depth 3, got %d", d)
	}

	for want := 2; want >= 0; want-- {
		s, ok := st.pop(slots)
		if !ok {
			t.Fatalf("Expected pop to succeed for index %d", want)
		}
		if int(s.id) != want {
			t.Errorf("Expected index %d, got %d", want, s.id)
		}
		if s.onStack.Load() {
			t.Errorf("Expected pop to clear onStack for %d", s.id)
		}
	}
	if _, ok := st.pop(slots); ok {
		t.Errorf("Expected pop on empty stack to fail")
	}
	if st.hasIdle() {
		t.Errorf("Expected drained stack to read empty")
	}
}

// TestIdleStack_ABADefeat tests that a producer holding a stale top
// observation loses its CAS after a pop/re-push cycle, even though the
// same index is back at the top.
func TestIdleStack_ABADefeat(t *testing.T) {
	slots := makeSlots(2)
	var st idleStack
	st.reset()

	slots[1].onStack.Store(true)
	st.push(slots[1])

	// A slow producer reads the top and stalls here.
	stale := st.top.Load()

	// Meanwhile the worker is claimed and re-parks.
	if _, ok := st.pop(slots); !ok {
		t.Fatalf("Expected pop to succeed")
	}
	slots[1].onStack.Store(true)
	st.push(slots[1])

	if targetOf(st.top.Load()) != targetOf(stale) {
		t.Fatalf("Test setup broken: same index should be back on top")
	}

	// The slow producer resumes with its stale word; the tag must sink it.
	next := slots[1].nextIdx.Load()
	if st.top.CompareAndSwap(stale, makeTagged(stale, next)) {
		t.Errorf("Expected stale CAS to fail on tag mismatch")
	}
	if d := st.depth(slots); d != 1 {
		t.Errorf("Expected depth 1 after failed stale CAS, got %d", d)
	}
}

// TestSlot_PublishClaims tests mailbox monotonicity: one producer fills an
// empty mailbox, later producers are refused, the wakeup kick of an
// occupied mailbox is dropped.
func TestSlot_PublishClaims(t *testing.T) {
	s := newWorkerSlot(4)

	delivered := 0
	real := func(int) { delivered++ }

	if !s.publish(real) {
		t.Fatalf("Expected publish into empty mailbox to succeed")
	}
	if s.publish(func(int) { t.Errorf("second callback must not be stored") }) {
		t.Errorf("Expected publish into occupied mailbox to fail")
	}

	// A concurrent wakeup finds the mailbox occupied: no-op dropped.
	s.kick(noopCallback)

	// Owner drains exactly one callback: the real one.
	s.mu.Lock()
	cb := s.mailbox
	s.mailbox = nil
	s.mu.Unlock()
	if cb == nil {
		t.Fatalf("Expected a callback in the mailbox")
	}
	cb(int(s.id))
	if delivered != 1 {
		t.Errorf("Expected exactly one delivery, got %d", delivered)
	}

	// Mailbox is empty again; a kick now installs the no-op.
	s.kick(noopCallback)
	s.mu.Lock()
	if s.mailbox == nil {
		t.Errorf("Expected kick to install the no-op into an empty mailbox")
	}
	s.mailbox = nil
	s.mu.Unlock()
}
