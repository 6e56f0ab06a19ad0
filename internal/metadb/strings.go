package metadb

import "sync"

// StringTable is a process-wide (per Writer instance) deduplicating string
// store. intern may be called concurrently during the notification phase;
// emit runs alone once all notifications have been delivered.
type StringTable struct {
	mu     sync.RWMutex
	index  map[string]uint64 // string -> relative offset within the eventual strings section
	order  []string          // insertion order, for emit
	cursor uint64            // size of the strings interned so far, i.e. next relative offset
}

// NewStringTable returns an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]uint64)}
}

// Intern returns a stable relative offset for s. Equal inputs always
// return the equal offset; the first call for a given s reserves space for
// it at the end of the (eventual) strings section.
func (t *StringTable) Intern(s string) uint64 {
	t.mu.RLock()
	if off, ok := t.index[s]; ok {
		t.mu.RUnlock()
		return off
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if off, ok := t.index[s]; ok { // lost the race
		return off
	}
	off := t.cursor
	t.index[s] = off
	t.order = append(t.order, s)
	t.cursor += uint64(len(s)) + 1 // + NUL
	return off
}

// Size returns the total byte size the strings section will occupy.
func (t *StringTable) Size() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor
}

// Emit writes every interned string, in insertion order, as a single
// NUL-terminated sequence, and returns the base offset of the section. A
// relative offset returned by Intern resolves to base+relative.
func (t *StringTable) Emit(l *Layout) (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	buf := make([]byte, 0, t.cursor)
	for _, s := range t.order {
		buf = putString(buf, s)
	}
	base, err := l.Allocate(uint64(len(buf)), 8)
	if err != nil {
		return 0, err
	}
	if err := l.WriteAt(base, buf); err != nil {
		return 0, err
	}
	return base, nil
}
