package expiring

import "time"

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	index     int
}

// expiryHeap is a min-heap on expiresAt; it implements container/heap.Interface.
type expiryHeap[V any] []*entry[V]

func (h expiryHeap[V]) Len() int { return len(h) }

func (h expiryHeap[V]) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}

func (h expiryHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap[V]) Push(x any) {
	e := x.(*entry[V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap[V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

func (h expiryHeap[V]) peek() *entry[V] {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
