package eventloop

import (
	"container/heap"
	"time"
)

// Virtual is a Scheduler driven by a manually advanced clock. Timers fire in
// due-time order, ties broken by registration order, and each callback runs
// to completion before the next one starts.
type Virtual struct {
	now   time.Duration
	seq   uint64
	queue timerQueue
}

// NewVirtual returns a virtual scheduler at time zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now returns the virtual time elapsed since creation.
func (v *Virtual) Now() time.Duration {
	return v.now
}

// Pending returns the number of timers that have not fired or been stopped.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.queue {
		if !t.stopped {
			n++
		}
	}
	return n
}

// AfterFunc schedules fn to run d after the current virtual time. Negative
// delays are treated as zero.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := &virtualTimer{due: v.now + d, seq: v.seq, fn: fn}
	heap.Push(&v.queue, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now + d
	for v.queue.Len() > 0 {
		next := v.queue[0]
		if next.due > target {
			break
		}
		heap.Pop(&v.queue)
		if next.stopped {
			continue
		}
		if next.due > v.now {
			v.now = next.due
		}
		next.fired = true
		if next.fn != nil {
			next.fn()
		}
	}
	v.now = target
}

// AdvanceTo moves the clock to the absolute virtual time at.
func (v *Virtual) AdvanceTo(at time.Duration) {
	if at <= v.now {
		v.Advance(0)
		return
	}
	v.Advance(at - v.now)
}

type virtualTimer struct {
	due     time.Duration
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
	index   int
}

func (t *virtualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type timerQueue []*virtualTimer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].seq < q[j].seq
	}
	return q[i].due < q[j].due
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
