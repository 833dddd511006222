// File: internal/concurrency/roster.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed worker roster and one-shot initialization. Prepare spawns n-1
// OS-thread-locked workers, registers the preparing thread as the main
// worker (id 0), splices every id into the circular sibling ring, and
// releases the workers into their main loops only once all siblings are
// installed. The roster is frozen for the process lifetime.

package concurrency

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-workers/api"
)

// Compile-time compliance with the public pool contract.
var _ api.Pool = (*Pool)(nil)

// Pool is the managed worker roster plus its idle registry. The zero value
// is not usable; construct with NewPool and arm with Prepare.
type Pool struct {
	pinCPU      bool
	initialized atomic.Bool
	term        atomic.Bool

	// Populated once under Prepare, read-only thereafter.
	slots    []*workerSlot
	siblings []uint32
	joins    []*workerJoin

	idle idleStack

	// Worker identity, keyed by goroutine id of the owning thread.
	idMu  sync.RWMutex
	byGID map[int64]uint32

	// Counters exported through Stats.
	spawns  atomic.Uint64
	misses  atomic.Uint64
	wakeups atomic.Uint64
}

// workerJoin is the join handle of a spawned worker: done closes when the
// worker's thread exits, err carries a captured callback panic.
type workerJoin struct {
	done chan struct{}
	err  error
}

// NewPool allocates an unprepared pool. When pinCPU is set, each spawned
// worker pins its OS thread to a core before entering the main loop.
func NewPool(pinCPU bool) *Pool {
	p := &Pool{
		pinCPU: pinCPU,
		byGID:  make(map[int64]uint32),
	}
	p.idle.reset()
	return p
}

// Recommended returns the worker count Prepare clamps to.
func Recommended() int {
	return runtime.NumCPU()
}

// Prepare arms the roster with n workers: the caller's thread as the main
// worker plus n-1 spawned ones. n is clamped into [1, Recommended()]; a
// non-positive n is a programming error. Only the first call takes effect.
// Prepare returns after every spawned worker has installed its slot.
func (p *Pool) Prepare(n int) {
	if n <= 0 {
		panic(fmt.Sprintf("hioload-workers: invalid worker count %d", n))
	}
	if r := Recommended(); n > r {
		n = r
	}
	if !p.initialized.CompareAndSwap(false, true) {
		return
	}
	if n-1 >= none {
		panic("hioload-workers: roster exceeds index width")
	}

	p.slots = make([]*workerSlot, n)
	p.siblings = make([]uint32, n)
	p.joins = make([]*workerJoin, n)

	// The preparing thread is the main worker. It owns a slot so it can
	// park through Idle, but it never runs the spawned main loop.
	p.slots[0] = newWorkerSlot(0)
	p.register(0)

	// Sibling ring: a permutation cycle over all ids starting at main.
	for i := range p.siblings {
		p.siblings[i] = uint32((i + 1) % n)
	}

	var ready sync.WaitGroup
	ready.Add(n - 1)
	for i := 1; i < n; i++ {
		id := uint32(i)
		j := &workerJoin{done: make(chan struct{})}
		p.joins[i] = j
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if p.pinCPU {
				// Pinning is advisory; a restricted environment may
				// refuse the affinity call.
				_ = pinCurrentThread(int(id) % runtime.NumCPU())
			}
			s := newWorkerSlot(id)
			p.slots[id] = s
			p.register(id)
			ready.Done()
			// Enter the main loop only once all siblings are installed.
			ready.Wait()
			j.err = p.runWorker(s)
			close(j.done)
		}()
	}
	ready.Wait()
}

// PrepareOptional is Prepare with the count defaulted: non-positive n means
// Recommended().
func (p *Pool) PrepareOptional(n int) {
	if n <= 0 {
		n = Recommended()
	}
	p.Prepare(n)
}

// register binds the calling goroutine's thread to worker id.
func (p *Pool) register(id uint32) {
	gid := goroutineID()
	p.idMu.Lock()
	p.byGID[gid] = id
	p.idMu.Unlock()
}

// Self returns the id of the calling managed worker. Calling from an
// unmanaged thread fails hard.
func (p *Pool) Self() int {
	id, ok := p.lookupSelf()
	if !ok {
		panic("hioload-workers: Self called from an unmanaged thread")
	}
	return int(id)
}

func (p *Pool) lookupSelf() (uint32, bool) {
	gid := goroutineID()
	p.idMu.RLock()
	id, ok := p.byGID[gid]
	p.idMu.RUnlock()
	return id, ok
}

// All returns every worker id following the sibling ring from main.
func (p *Pool) All() []int {
	if !p.initialized.Load() {
		return nil
	}
	out := make([]int, 0, len(p.slots))
	out = append(out, 0)
	for next := p.siblings[0]; next != 0; next = p.siblings[next] {
		out = append(out, int(next))
	}
	return out
}

// IsManaged reports whether id names a roster member.
func (p *Pool) IsManaged(id int) bool {
	return p.initialized.Load() && id >= 0 && id < len(p.slots)
}

// NumWorkers returns the fixed roster size, zero before Prepare.
func (p *Pool) NumWorkers() int {
	return len(p.slots)
}

// HasIdle is the relaxed quick check: one atomic load, no cacheline write.
func (p *Pool) HasIdle() bool {
	return p.idle.hasIdle()
}

// Terminated reports whether shutdown has begun.
func (p *Pool) Terminated() bool {
	return p.term.Load()
}

// IdleDepth estimates how many workers are parked. Debug use only.
func (p *Pool) IdleDepth() int {
	if !p.initialized.Load() {
		return 0
	}
	return p.idle.depth(p.slots)
}

// goroutineID parses the current goroutine id from the runtime stack
// header ("goroutine N [running]:"). Go exposes no thread-local storage;
// this is the established workaround for owner-identity lookups.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	head := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(head, ' '); i > 0 {
		if id, err := strconv.ParseInt(head[:i], 10, 64); err == nil {
			return id
		}
	}
	panic("hioload-workers: unparsable goroutine header")
}
