// File: internal/concurrency/benchmark_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"testing"
)

// BenchmarkHasIdle measures the producer quick check: one relaxed load.
func BenchmarkHasIdle(b *testing.B) {
	var st idleStack
	st.reset()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = st.hasIdle()
		}
	})
}

// BenchmarkPushPop measures one park/claim cycle on the stack alone.
func BenchmarkPushPop(b *testing.B) {
	slots := makeSlots(1)
	var st idleStack
	st.reset()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slots[0].onStack.Store(true)
		st.push(slots[0])
		if _, ok := st.pop(slots); !ok {
			b.Fatalf("pop failed")
		}
	}
}

// BenchmarkTrySpawnMiss measures the cost of the advisory miss path.
func BenchmarkTrySpawnMiss(b *testing.B) {
	p := NewPool(false)
	p.Prepare(1) // main only: the idle stack stays empty
	cb := func(int) {}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if p.TrySpawn(cb) {
			b.Fatalf("unexpected spawn")
		}
	}
}
