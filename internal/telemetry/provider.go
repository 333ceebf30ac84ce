package telemetry

import (
	"sync"
)

// Provider hands out the most recent telemetry record.
type Provider interface {
	Get() *Record
}

// Latest keeps the last record it was given. It is safe for concurrent use.
type Latest struct {
	mu     sync.RWMutex
	record *Record
}

func (l *Latest) Set(r *Record) {
	l.mu.Lock()
	l.record = r
	l.mu.Unlock()
}

func (l *Latest) Get() *Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.record
}
