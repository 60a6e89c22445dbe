package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Wall is a Scheduler backed by the system clock. Callbacks run one at a time
// on a single worker goroutine, in due order.
type Wall struct {
	mu      sync.Mutex
	seq     uint64
	q       queue
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

func NewWall() *Wall {
	w := &Wall{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Wall) Now() time.Time { return time.Now() }

// AfterFunc schedules fn. After Stop the callback never runs.
func (w *Wall) AfterFunc(d time.Duration, fn func()) Task {
	w.mu.Lock()
	w.seq++
	e := &entry{due: time.Now().Add(d), seq: w.seq, fn: fn}
	if w.stopped {
		e.done = true
		e.index = -1
	} else {
		heap.Push(&w.q, e)
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return &wallTask{w: w, e: e}
}

// Stop discards pending callbacks and waits for the worker to exit.
func (w *Wall) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	for w.q.Len() > 0 {
		heap.Pop(&w.q).(*entry).done = true
	}
	w.mu.Unlock()

	close(w.stop)
	<-w.done
}

func (w *Wall) run() {
	defer close(w.done)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		w.mu.Lock()
		e := w.q.peek()
		var wait time.Duration
		if e != nil {
			wait = time.Until(e.due)
			if wait <= 0 {
				heap.Pop(&w.q)
				e.done = true
				w.mu.Unlock()
				e.fn()
				continue
			}
		} else {
			wait = time.Hour
		}
		w.mu.Unlock()

		timer.Reset(wait)
		select {
		case <-w.stop:
			return
		case <-w.wake:
		case <-timer.C:
		}
	}
}

type wallTask struct {
	w *Wall
	e *entry
}

func (t *wallTask) Cancel() bool {
	t.w.mu.Lock()
	defer t.w.mu.Unlock()
	return t.w.q.remove(t.e)
}
