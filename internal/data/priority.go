package data

import (
	"time"

	"dnsanon/internal/logline"
)

// Group is the ordered sequence of records sharing one transaction key, in arrival order.
type Group struct {
	Key     string
	Records []*logline.Record

	// Insertion sequence of the group, breaking ties between groups opened at the same instant
	seq uint64
	// Position of the group in the age queue, maintained by heap.Interface
	index int
}

// Opened returns the ingestion time of the group's first record.
func (g *Group) Opened() time.Time {
	return g.Records[0].Timestamp
}

// Last returns the most recently inserted record.
func (g *Group) Last() *logline.Record {
	return g.Records[len(g.Records)-1]
}

// ageQueue implements heap.Interface and holds Groups, oldest first.
// This implementation is adapted from the container/heap documentation:
// https://golang.org/pkg/container/heap/
type ageQueue []*Group

// Len returns the current size of the queue.
func (q ageQueue) Len() int {
	return len(q)
}

// Less instructs heap.Interface how to sort groups within the heap. The queue is a min heap on the
// group's opening time, so popping yields the oldest group; groups opened at the same instant pop
// in insertion order.
func (q ageQueue) Less(i, j int) bool {
	if oi, oj := q[i].Opened(), q[j].Opened(); !oi.Equal(oj) {
		return oi.Before(oj)
	}

	return q[i].seq < q[j].seq
}

// Swap swaps the ith and jth groups in the backing data structure.
func (q ageQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

// Push adds a new group to the backing data structure.
func (q *ageQueue) Push(x interface{}) {
	group := x.(*Group)
	group.index = len(*q)
	*q = append(*q, group)
}

// Pop removes the last group from the backing data structure.
func (q *ageQueue) Pop() interface{} {
	old := *q
	n := len(old)
	group := old[n-1]
	old[n-1] = nil
	group.index = -1
	*q = old[0 : n-1]

	return group
}
