package data

import (
	"container/heap"
	"time"

	"dnsanon/internal/logline"
)

// CorrelationBuffer holds open transactions until they complete or expire. Each key maps to a
// non-empty, arrival-ordered Group; a group leaves the buffer exactly once, through TakeTerminal
// or one of the Drain methods.
//
// The buffer is not safe for concurrent use; it is owned by the single goroutine driving the
// filter.
type CorrelationBuffer struct {
	groups   map[string]*Group
	queue    ageQueue
	capacity int
	seq      uint64
}

// NewCorrelationBuffer creates an empty buffer. The capacity bounds the number of open groups
// reported by DrainOverflow; any non-positive capacity disables the bound.
func NewCorrelationBuffer(capacity int) *CorrelationBuffer {
	return &CorrelationBuffer{
		groups:   make(map[string]*Group),
		queue:    make(ageQueue, 0),
		capacity: capacity,
	}
}

// Insert appends a record to the group for the key, creating the group if absent.
func (b *CorrelationBuffer) Insert(key string, record *logline.Record) {
	group, ok := b.groups[key]
	if !ok {
		group = &Group{Key: key, seq: b.seq}
		group.Records = append(group.Records, record)
		b.seq++
		b.groups[key] = group
		heap.Push(&b.queue, group)

		return
	}

	group.Records = append(group.Records, record)
}

// TakeTerminal removes and returns the group for the key if its most recently inserted record is
// terminal. Otherwise the group, if any, stays in place.
func (b *CorrelationBuffer) TakeTerminal(key string) (*Group, bool) {
	group, ok := b.groups[key]
	if !ok || !group.Last().Terminal() {
		return nil, false
	}

	b.remove(group)

	return group, true
}

// DrainExpired removes and returns, oldest first, every group whose first record was ingested
// before now-deadline.
func (b *CorrelationBuffer) DrainExpired(now time.Time, deadline time.Duration) []*Group {
	cutoff := now.Add(-deadline)

	var expired []*Group
	for b.queue.Len() > 0 && b.queue[0].Opened().Before(cutoff) {
		expired = append(expired, b.pop())
	}

	return expired
}

// DrainOverflow removes and returns, oldest first, the groups in excess of the buffer capacity.
func (b *CorrelationBuffer) DrainOverflow() []*Group {
	if b.capacity <= 0 {
		return nil
	}

	var evicted []*Group
	for b.queue.Len() > b.capacity {
		evicted = append(evicted, b.pop())
	}

	return evicted
}

// DrainAll removes and returns every open group, oldest first.
func (b *CorrelationBuffer) DrainAll() []*Group {
	var all []*Group
	for b.queue.Len() > 0 {
		all = append(all, b.pop())
	}

	return all
}

// Oldest returns the open group with the earliest first record, without removing it.
func (b *CorrelationBuffer) Oldest() (*Group, bool) {
	if b.queue.Len() == 0 {
		return nil, false
	}

	return b.queue[0], true
}

// Contains indicates whether the key has an open group.
func (b *CorrelationBuffer) Contains(key string) bool {
	_, ok := b.groups[key]
	return ok
}

// Len returns the number of open groups.
func (b *CorrelationBuffer) Len() int {
	return len(b.groups)
}

// pop removes the oldest group from both the queue and the index.
func (b *CorrelationBuffer) pop() *Group {
	group := heap.Pop(&b.queue).(*Group)
	delete(b.groups, group.Key)

	return group
}

// remove removes an arbitrary group from both the queue and the index.
func (b *CorrelationBuffer) remove(group *Group) {
	heap.Remove(&b.queue, group.index)
	delete(b.groups, group.Key)
}
