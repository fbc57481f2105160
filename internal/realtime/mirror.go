package realtime

import "sync"

// Outcome tells what applying a change did to a mirror.
type Outcome int

const (
	Ignored Outcome = iota
	Appended
	Replaced
)

// Change is a typed row change.
type Change[T any] struct {
	Type   EventType
	Record T
}

// Mirror keeps an in-memory, ordered copy of a server-side list.
//
// INSERT appends at the tail unless an entry with the same id (or the same
// correlation id, for optimistic local copies) is already present, in which
// case that entry is replaced in place. UPDATE replaces the entry with the
// same id and never changes the length.
type Mirror[T any] struct {
	mu          sync.RWMutex
	items       []T
	id          func(T) string
	correlation func(T) string
}

// NewMirror builds a mirror. correlation may be nil when the entity has none.
func NewMirror[T any](id func(T) string, correlation func(T) string) *Mirror[T] {
	return &Mirror[T]{id: id, correlation: correlation}
}

// Reset replaces the contents with a fresh snapshot.
func (m *Mirror[T]) Reset(items []T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(make([]T, 0, len(items)), items...)
}

// Items returns a copy of the current list.
func (m *Mirror[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]T, 0, len(m.items)), m.items...)
}

func (m *Mirror[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Apply merges one change into the list.
func (m *Mirror[T]) Apply(c Change[T]) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch c.Type {
	case Insert:
		if i := m.indexOf(c.Record, true); i >= 0 {
			m.items[i] = c.Record
			suppressedDuplicates.Inc()
			return Replaced
		}
		m.items = append(m.items, c.Record)
		return Appended
	case Update:
		if i := m.indexOf(c.Record, false); i >= 0 {
			m.items[i] = c.Record
			return Replaced
		}
	}
	return Ignored
}

func (m *Mirror[T]) indexOf(rec T, byCorrelation bool) int {
	id := m.id(rec)
	var corr string
	if byCorrelation && m.correlation != nil {
		corr = m.correlation(rec)
	}
	for i, it := range m.items {
		if id != "" && m.id(it) == id {
			return i
		}
		if corr != "" && m.correlation(it) == corr {
			return i
		}
	}
	return -1
}
