// Package runloop provides a virtual-time cooperative scheduler and an
// adapter that drives it from a single host timer, so that timed work can be
// ordered and run on a UI goroutine without a dedicated loop goroutine.
package runloop

import (
	"container/heap"
	"sync"
	"time"
)

// Clock reports the current time of a Loop.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Item is one scheduled unit of work.
type Item struct {
	when  time.Time
	seq   uint64
	fn    func()
	index int
	loop  *Loop
}

// When returns the time the item is scheduled for.
func (i *Item) When() time.Time { return i.when }

// Cancel removes the item from its loop if it has not run yet.
// Calling it on an item that already ran is a no-op.
func (i *Item) Cancel() {
	if i == nil || i.loop == nil {
		return
	}
	l := i.loop
	l.mu.Lock()
	if i.index >= 0 && i.index < len(l.queue) && l.queue[i.index] == i {
		heap.Remove(&l.queue, i.index)
	}
	l.mu.Unlock()
}

// Loop is a single-threaded scheduler in virtual time. Items may be scheduled
// from any goroutine but only run inside Dispatch, on whatever goroutine calls it.
type Loop struct {
	mu     sync.Mutex
	clock  Clock
	queue  itemQueue
	seq    uint64
	notify func(time.Time)
}

// New returns an empty loop reading time from clock.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Loop{clock: clock}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time { return l.clock.Now() }

// SetNotifyEarlierWakeup installs the hook called whenever a newly scheduled
// item becomes the earliest pending one. The hook runs on the scheduling
// goroutine, outside the loop's lock.
func (l *Loop) SetNotifyEarlierWakeup(fn func(when time.Time)) {
	l.mu.Lock()
	l.notify = fn
	l.mu.Unlock()
}

// Schedule queues fn to run at when. Items with equal times run in
// scheduling order.
func (l *Loop) Schedule(when time.Time, fn func()) *Item {
	l.mu.Lock()
	l.seq++
	it := &Item{when: when, seq: l.seq, fn: fn, loop: l}
	heap.Push(&l.queue, it)
	earliest := l.queue[0] == it
	notify := l.notify
	l.mu.Unlock()

	if earliest && notify != nil {
		notify(when)
	}
	return it
}

// ScheduleAfter queues fn to run d after the loop's current time.
func (l *Loop) ScheduleAfter(d time.Duration, fn func()) *Item {
	return l.Schedule(l.Now().Add(d), fn)
}

// Peek returns the time of the earliest pending item.
func (l *Loop) Peek() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return time.Time{}, false
	}
	return l.queue[0].when, true
}

// Empty reports whether nothing is pending.
func (l *Loop) Empty() bool {
	return l.Len() == 0
}

// Len returns the number of pending items.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Dispatch runs exactly the earliest pending item, regardless of whether it
// is due. It returns false when there was nothing to run.
func (l *Loop) Dispatch() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	it := heap.Pop(&l.queue).(*Item)
	l.mu.Unlock()

	it.fn()
	return true
}

type itemQueue []*Item

func (q itemQueue) Len() int { return len(q) }

func (q itemQueue) Less(i, j int) bool {
	if q[i].when.Equal(q[j].when) {
		return q[i].seq < q[j].seq
	}
	return q[i].when.Before(q[j].when)
}

func (q itemQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *itemQueue) Push(x any) {
	it := x.(*Item)
	it.index = len(*q)
	*q = append(*q, it)
}

func (q *itemQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*q = old[:n-1]
	return it
}
