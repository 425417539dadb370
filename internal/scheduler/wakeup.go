package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/manav03panchal/clockset/internal/logging"
)

// maxSleepCap bounds every sleep so a suspended machine or a wall-clock
// step delays a due wake-up by at most this much.
const maxSleepCap = 60 * time.Second

type opKind int

const (
	opRegister opKind = iota
	opCancel
	opPending
)

// op is one request to the scheduler goroutine. All requests share a
// single channel so they are applied in the order they were made.
type op struct {
	kind  opKind
	id    string
	at    time.Time
	reply chan []string
}

// Wakeups fires callbacks at absolute times. A single goroutine owns a
// min-heap of pending ids; Register, Cancel and Pending only enqueue requests.
type Wakeups struct {
	ops    chan op
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	fireWG sync.WaitGroup
}

// NewWakeups creates and starts a wake-up scheduler. onFire runs on its own
// goroutine for each batch of due ids, so it may call back into Register or
// Cancel. The scheduler exits when ctx is cancelled or Stop is called.
func NewWakeups(ctx context.Context, onFire func(id string)) *Wakeups {
	ctx, cancel := context.WithCancel(ctx)
	w := &Wakeups{
		ops:    make(chan op, 128),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(onFire)
	return w
}

// Register schedules id to fire at or after at. An existing registration
// with the same id is replaced.
func (w *Wakeups) Register(id string, at time.Time) {
	select {
	case w.ops <- op{kind: opRegister, id: id, at: at}:
	case <-w.ctx.Done():
	}
}

// Cancel removes a pending id. Cancelling an unknown or fired id is a no-op.
func (w *Wakeups) Cancel(id string) {
	select {
	case w.ops <- op{kind: opCancel, id: id}:
	case <-w.ctx.Done():
	}
}

// Pending returns the sorted ids still waiting to fire.
func (w *Wakeups) Pending() []string {
	reply := make(chan []string, 1)
	select {
	case w.ops <- op{kind: opPending, reply: reply}:
	case <-w.done:
		return nil
	}
	select {
	case ids := <-reply:
		return ids
	case <-w.done:
		return nil
	}
}

// Stop ends the scheduler and waits for in-flight callbacks. Pending
// wake-ups are dropped.
func (w *Wakeups) Stop() {
	w.cancel()
	<-w.done
	w.fireWG.Wait()
}

func (w *Wakeups) run(onFire func(string)) {
	defer close(w.done)

	h := &wakeupHeap{}
	var seq uint64

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until((*h)[0].at)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	timerCh := resetTimer()

	for {
		select {
		case <-w.ctx.Done():
			return

		case o := <-w.ops:
			switch o.kind {
			case opRegister:
				heapRemoveByID(h, o.id)
				seq++
				heapPush(h, entry{id: o.id, at: o.at, seq: seq})
				timerCh = resetTimer()
			case opCancel:
				heapRemoveByID(h, o.id)
				timerCh = resetTimer()
			case opPending:
				ids := make([]string, 0, h.Len())
				for _, e := range *h {
					ids = append(ids, e.id)
				}
				sort.Strings(ids)
				o.reply <- ids
			}

		case <-timerCh:
			now := time.Now()
			var due []string
			for h.Len() > 0 && !(*h)[0].at.After(now) {
				due = append(due, heapPop(h).id)
			}
			if len(due) > 0 {
				w.fireWG.Add(1)
				go w.fire(onFire, due)
			}
			timerCh = resetTimer()
		}
	}
}

func (w *Wakeups) fire(onFire func(string), ids []string) {
	defer w.fireWG.Done()
	for _, id := range ids {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("wake-up callback panicked", logging.KeyWakeup, id, "panic", r)
				}
			}()
			onFire(id)
		}()
	}
}
