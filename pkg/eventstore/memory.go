package eventstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local journal with the same semantics as
// EventStore. Used by the memory storage driver and in tests.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	events []Event
	byPO   map[string][]int
}

// NewMemoryStore creates an empty journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byPO: make(map[string][]int)}
}

// Append appends events if expectedVersion matches the current version.
func (m *MemoryStore) Append(_ context.Context, poNumber string, expectedVersion int, events []Event) error {
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.byPO[poNumber]) != expectedVersion {
		return ErrConcurrencyConflict
	}
	for i, e := range events {
		m.nextID++
		e.ID = m.nextID
		e.AggregateID = AggregateID(poNumber)
		e.PONumber = poNumber
		e.Version = expectedVersion + i + 1
		e.CreatedAt = time.Now().UTC()
		m.events = append(m.events, e)
		m.byPO[poNumber] = append(m.byPO[poNumber], len(m.events)-1)
	}
	return nil
}

// Load returns the events of one order, oldest first.
func (m *MemoryStore) Load(_ context.Context, poNumber string, fromVersion, toVersion int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, idx := range m.byPO[poNumber] {
		e := m.events[idx]
		if e.Version < fromVersion || (toVersion > 0 && e.Version > toVersion) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// CurrentVersion returns the latest version for an order.
func (m *MemoryStore) CurrentVersion(_ context.Context, poNumber string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byPO[poNumber]), nil
}

// Stream returns up to batchSize events with id > fromID.
func (m *MemoryStore) Stream(_ context.Context, fromID int64, batchSize int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, e := range m.events {
		if e.ID <= fromID {
			continue
		}
		out = append(out, e)
		if batchSize > 0 && len(out) == batchSize {
			break
		}
	}
	return out, nil
}
