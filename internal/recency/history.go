// Package recency keeps the most-recently-used ordering of tabs.
package recency

import "github.com/atomicstack/tab-popup-control/internal/tab"

// DefaultLimit caps the number of remembered tabs.
const DefaultLimit = 50

// History is an ordered, duplicate-free list of tab IDs, most recent first.
// It is not safe for concurrent use; the registry loop owns it.
type History struct {
	ids   []tab.ID
	limit int
}

// New returns an empty history holding at most limit entries. A limit <= 0
// falls back to DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Record moves id to the front, dropping any earlier occurrence and
// truncating to the limit.
func (h *History) Record(id tab.ID) {
	h.remove(id)
	h.ids = append(h.ids, "")
	copy(h.ids[1:], h.ids)
	h.ids[0] = id
	if len(h.ids) > h.limit {
		h.ids = h.ids[:h.limit]
	}
}

// Forget removes id. Unknown ids are ignored.
func (h *History) Forget(id tab.ID) {
	h.remove(id)
}

// Len reports the number of remembered ids.
func (h *History) Len() int {
	return len(h.ids)
}

// Snapshot returns a copy of the ids, most recent first.
func (h *History) Snapshot() []tab.ID {
	dup := make([]tab.ID, len(h.ids))
	copy(dup, h.ids)
	return dup
}

// Order sorts candidates by recency. Ids found in the history come first in
// history order; everything else follows in its original relative order.
func (h *History) Order(candidates []tab.Tab) []tab.Tab {
	remaining := make(map[tab.ID]tab.Tab, len(candidates))
	for _, t := range candidates {
		remaining[t.ID] = t
	}
	ordered := make([]tab.Tab, 0, len(candidates))
	for _, id := range h.ids {
		if t, ok := remaining[id]; ok {
			ordered = append(ordered, t)
			delete(remaining, id)
		}
	}
	for _, t := range candidates {
		if _, ok := remaining[t.ID]; ok {
			ordered = append(ordered, t)
			delete(remaining, t.ID)
		}
	}
	return ordered
}

func (h *History) remove(id tab.ID) {
	for i, existing := range h.ids {
		if existing == id {
			h.ids = append(h.ids[:i], h.ids[i+1:]...)
			return
		}
	}
}
