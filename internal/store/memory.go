package store

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive events via buffered channels (buffer size 100).
// Sends are non-blocking; if a subscriber's buffer is full the event is
// dropped for that subscriber.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event

	subMu       sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string]Event),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Update stores event under its table name and notifies subscribers.
//
// An event with a lower generation than the stored one is kept out of the
// latest-state map (a slow stale load must not overwrite a newer state)
// but is still published.
func (m *MemoryStore) Update(event Event) {
	m.mu.Lock()
	if prev, ok := m.events[event.Table]; !ok || event.Generation >= prev.Generation {
		m.events[event.Table] = event
	}
	m.mu.Unlock()

	m.notifySubscribers(event)
}

// Get returns the latest event for table.
func (m *MemoryStore) Get(table string) (Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[table]
	return e, ok
}

// GetAll returns a snapshot of the latest events, ordered by table name.
func (m *MemoryStore) GetAll() []Event {
	m.mu.RLock()
	results := make([]Event, 0, len(m.events))
	for _, e := range m.events {
		results = append(results, e)
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool { return results[i].Table < results[j].Table })
	return results
}

// Subscribe creates a subscription with a buffer of 100 events.
//
// Callers must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers is non-blocking: full buffers drop the event.
func (m *MemoryStore) notifySubscribers(event Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
