// Package scheduler runs callbacks after a delay against either the wall
// clock or a manually advanced virtual clock.
package scheduler

import (
	"container/heap"
	"time"
)

// Task is a scheduled callback.
type Task interface {
	// Cancel stops the callback from running. It reports false when the
	// callback already ran or was cancelled.
	Cancel() bool
}

type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Task
}

type entry struct {
	due   time.Time
	seq   uint64
	fn    func()
	index int
	done  bool
}

// queue orders entries by due time, then by scheduling order.
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

func (q *queue) remove(e *entry) bool {
	if e.done || e.index < 0 {
		return false
	}
	heap.Remove(q, e.index)
	e.done = true
	return true
}

func (q queue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
