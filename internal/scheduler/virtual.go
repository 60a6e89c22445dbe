package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a Scheduler whose clock only moves when Advance is called.
type Virtual struct {
	mu  sync.Mutex
	now time.Time
	seq uint64
	q   queue
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	e := &entry{due: v.now.Add(d), seq: v.seq, fn: fn}
	heap.Push(&v.q, e)
	return &virtualTask{v: v, e: e}
}

// Advance moves the clock forward by d, running every callback that falls due
// in order. The clock reads each callback's due time while it runs. Callbacks
// scheduled during Advance run too if they fall within the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	end := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		e := v.q.peek()
		if e == nil || e.due.After(end) {
			v.now = end
			v.mu.Unlock()
			return
		}
		heap.Pop(&v.q)
		e.done = true
		v.now = e.due
		v.mu.Unlock()

		e.fn()
	}
}

// RunPending advances the clock to each pending callback in turn until none
// remain.
func (v *Virtual) RunPending() {
	for {
		v.mu.Lock()
		e := v.q.peek()
		var d time.Duration
		if e != nil {
			d = e.due.Sub(v.now)
		}
		v.mu.Unlock()
		if e == nil {
			return
		}
		v.Advance(d)
	}
}

// Pending reports how many callbacks are waiting.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Len()
}

type virtualTask struct {
	v *Virtual
	e *entry
}

func (t *virtualTask) Cancel() bool {
	t.v.mu.Lock()
	defer t.v.mu.Unlock()
	return t.v.q.remove(t.e)
}
