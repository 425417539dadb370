package scheduler

import (
	"container/heap"
	"time"
)

// entry is one pending wake-up. seq breaks ties between equal times so
// wake-ups registered together fire in registration order.
type entry struct {
	id  string
	at  time.Time
	seq uint64
}

// wakeupHeap implements container/heap.Interface, earliest first.
type wakeupHeap []entry

func (h wakeupHeap) Len() int { return len(h) }
func (h wakeupHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h wakeupHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *wakeupHeap) Push(x any) {
	*h = append(*h, x.(entry))
}

func (h *wakeupHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *wakeupHeap, e entry) {
	heap.Push(h, e)
}

// heapPop removes and returns the earliest entry. Panics if the heap is empty.
func heapPop(h *wakeupHeap) entry {
	return heap.Pop(h).(entry)
}

// heapRemoveByID removes the entry with the given id, if present.
func heapRemoveByID(h *wakeupHeap, id string) bool {
	for i, e := range *h {
		if e.id == id {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
