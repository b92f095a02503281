package tasks

import "time"

// event is a pending task request in the host heap
type event struct {
	name      string
	triggerAt time.Time
}

// eventHeap is a min-heap of events ordered by triggerAt
type eventHeap []event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].triggerAt.Before(h[j].triggerAt) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
