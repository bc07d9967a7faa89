package loader

import "container/heap"

// queueItem wraps a Request with the sequence number that breaks
// ties between equal priorities in FIFO order.
type queueItem struct {
	req  Request
	seq  uint64
	heapIndex int
}

// priorityQueue is a container/heap.Interface ordering items by
// descending Priority, then ascending seq (first in, first out
// among equal priorities).
type priorityQueue []*queueItem

func (q priorityQueue) Len() int { return len(q) }

func (q priorityQueue) Less(i, j int) bool {
	if q[i].req.Priority != q[j].req.Priority {
		return q[i].req.Priority > q[j].req.Priority
	}
	return q[i].seq < q[j].seq
}

func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *priorityQueue) Push(x any) {
	it := x.(*queueItem)
	it.heapIndex = len(*q)
	*q = append(*q, it)
}

func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// Queue is a thread-unsafe priority queue of Requests; Pool wraps it
// with the locking and condition-variable wakeups workers need.
type Queue struct {
	items priorityQueue
	seq   uint64
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	q := &Queue{}
	heap.Init(&q.items)
	return q
}

// Push inserts req, ordering it after any equal-or-higher-priority
// request already queued.
func (q *Queue) Push(req Request) {
	q.seq++
	heap.Push(&q.items, &queueItem{req: req, seq: q.seq})
}

// Pop removes and returns the highest-priority, oldest request. ok is
// false if the queue is empty.
func (q *Queue) Pop() (req Request, ok bool) {
	if q.items.Len() == 0 {
		return Request{}, false
	}
	it := heap.Pop(&q.items).(*queueItem)
	return it.req, true
}

// Len reports the number of queued requests.
func (q *Queue) Len() int { return q.items.Len() }
