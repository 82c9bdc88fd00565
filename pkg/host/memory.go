package host

import "sync"

// Memory is an in-memory browser. It keeps a history stack of locations and
// fires listeners synchronously, on the goroutine that caused the change,
// the way a browser raises popstate and hashchange.
type Memory struct {
	mu        sync.Mutex
	entries   []Location
	index     int
	listeners map[EventKind]map[int]func(Location)
	nextID    int
}

// NewMemory creates a Memory host positioned at initial
// ("/path?query#fragment"). An empty initial URL means "/".
func NewMemory(initial string) *Memory {
	return &Memory{
		entries:   []Location{ParseURL(initial)},
		listeners: make(map[EventKind]map[int]func(Location)),
	}
}

// Location implements Host.
func (m *Memory) Location() Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Push implements Host. Forward entries are discarded.
func (m *Memory) Push(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushLocked(ParseURL(path))
}

// SetFragment implements Host.
func (m *Memory) SetFragment(fragment string) {
	m.mu.Lock()
	cur := m.entries[m.index]
	if cur.Fragment == fragment {
		m.mu.Unlock()
		return
	}
	next := cur
	next.Fragment = fragment
	m.pushLocked(next)
	m.mu.Unlock()

	m.fire(EventHashChange, next)
}

// Assign simulates the user typing a URL into the address bar of an
// already-loaded page. Only a fragment change is observable without a reload,
// so a path change is pushed silently and a fragment change raises
// hashchange.
func (m *Memory) Assign(url string) {
	loc := ParseURL(url)

	m.mu.Lock()
	cur := m.entries[m.index]
	m.pushLocked(loc)
	m.mu.Unlock()

	if cur.Fragment != loc.Fragment {
		m.fire(EventHashChange, loc)
	}
}

// Back moves one entry back and raises popstate (and hashchange when the
// fragment differs). It returns false at the start of history.
func (m *Memory) Back() bool {
	return m.traverse(-1)
}

// Forward moves one entry forward. It returns false at the end of history.
func (m *Memory) Forward() bool {
	return m.traverse(1)
}

// Len returns the number of history entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Listen implements Host.
func (m *Memory) Listen(kind EventKind, fn func(Location)) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listeners[kind] == nil {
		m.listeners[kind] = make(map[int]func(Location))
	}
	id := m.nextID
	m.nextID++
	m.listeners[kind][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners[kind], id)
	}
}

func (m *Memory) traverse(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	prev := m.entries[m.index]
	m.index = target
	loc := m.entries[target]
	m.mu.Unlock()

	m.fire(EventPopState, loc)
	if prev.Fragment != loc.Fragment {
		m.fire(EventHashChange, loc)
	}
	return true
}

func (m *Memory) pushLocked(loc Location) {
	m.entries = append(m.entries[:m.index+1], loc)
	m.index = len(m.entries) - 1
}

func (m *Memory) fire(kind EventKind, loc Location) {
	m.mu.Lock()
	fns := make([]func(Location), 0, len(m.listeners[kind]))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[kind][id]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(loc)
	}
}
