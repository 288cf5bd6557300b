// Package handles maps Go values to small integer ids that can cross the
// native boundary.
//
// Native code cannot hold Go pointers, so anything it has to hand back to us
// later (callback userdata, pinned managed objects) is registered here and
// referred to by its uintptr id. A value stays reachable until its id is
// unregistered.
package handles

import (
	"sync"
)

// Table is a thread-safe id -> value map. The zero id is never issued.
type Table struct {
	mu      sync.RWMutex
	entries map[uintptr]any
	nextID  uintptr
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[uintptr]any), nextID: 1}
}

// Register stores v and returns its id.
//
// Thread-safe.
func (t *Table) Register(v any) uintptr {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.entries[id] = v
	return id
}

// Lookup returns the value registered under id, or nil.
//
// Thread-safe.
func (t *Table) Lookup(id uintptr) any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[id]
}

// Unregister drops id. It reports false if id was not registered, which
// callers use to detect a second release of the same id.
//
// Thread-safe.
func (t *Table) Unregister(id uintptr) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// Take unregisters id and returns the value it held.
func (t *Table) Take(id uintptr) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	return v, ok
}

// Count returns the number of registered ids.
// Useful for leak checks in tests.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
