package storage

import (
	"fmt"
	"sync"

	"github.com/roman-kulish/flight-control/internal/telemetry"
)

type node struct {
	record *telemetry.Record
	next   *node
}

// RecordBuffer is a thread-safe buffer of tick records kept in tick order.
// Records may arrive out of order; Flush always hands out the oldest ticks
// first.
type RecordBuffer struct {
	capacity   int // Number of records at which the buffer counts as full
	flushCount int // Number of records Flush removes

	mu   sync.Mutex
	head *node
	tail *node
	size int
}

// NewRecordBuffer creates a buffer that is full at capacity records and
// hands out flushCount records per Flush.
func NewRecordBuffer(capacity, flushCount int) (*RecordBuffer, error) {
	if capacity <= 0 || flushCount <= 0 || flushCount > capacity {
		return nil, fmt.Errorf("invalid buffer parameters: capacity=%d, flushCount=%d", capacity, flushCount)
	}
	return &RecordBuffer{
		capacity:   capacity,
		flushCount: flushCount,
	}, nil
}

// Insert adds a record in tick order. Records with equal ticks keep their
// arrival order.
func (rb *RecordBuffer) Insert(r *telemetry.Record) error {
	if r == nil {
		return fmt.Errorf("cannot insert nil record")
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := &node{record: r}
	rb.size++

	switch {
	case rb.head == nil:
		rb.head, rb.tail = n, n

	case r.Tick >= rb.tail.record.Tick: // common case: appending in order
		rb.tail.next = n
		rb.tail = n

	case r.Tick < rb.head.record.Tick:
		n.next = rb.head
		rb.head = n

	default:
		current := rb.head
		for current.next != nil && current.next.record.Tick <= r.Tick {
			current = current.next
		}
		n.next = current.next
		current.next = n
	}

	return nil
}

// IsFull returns true if the buffer has reached its capacity.
func (rb *RecordBuffer) IsFull() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.size >= rb.capacity
}

// Flush removes and returns the oldest records. It returns flushCount
// records plus any overflow beyond capacity, or nil if the buffer is empty.
func (rb *RecordBuffer) Flush() []*telemetry.Record {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	count := rb.flushCount
	if rb.size > rb.capacity {
		count += rb.size - rb.capacity
	}
	return rb.take(min(count, rb.size))
}

// DrainAll removes and returns all records, or nil if the buffer is empty.
func (rb *RecordBuffer) DrainAll() []*telemetry.Record {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.take(rb.size)
}

// Size returns the current number of records in the buffer.
func (rb *RecordBuffer) Size() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

func (rb *RecordBuffer) take(count int) []*telemetry.Record {
	if count <= 0 {
		return nil
	}

	results := make([]*telemetry.Record, 0, count)
	current := rb.head
	for i := 0; i < count && current != nil; i++ {
		results = append(results, current.record)
		current = current.next
	}

	rb.head = current
	if rb.head == nil {
		rb.tail = nil
	}
	rb.size -= len(results)
	return results
}
