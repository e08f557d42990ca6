package state

import "github.com/atomicstack/tab-popup-control/internal/tab"

// TabStore is the registry's cache of the browser's tabs, in the order the
// browser reported them.
type TabStore interface {
	Entries() []tab.Tab
	SetEntries([]tab.Tab)
	InWindow(id tab.WindowID) []tab.Tab
	Get(id tab.ID) (tab.Tab, bool)
	Len() int
}

type tabStore struct {
	entries []tab.Tab
	index   map[tab.ID]int
}

func NewTabStore() TabStore {
	return &tabStore{index: map[tab.ID]int{}}
}

func (s *tabStore) Entries() []tab.Tab {
	return tab.Clone(s.entries)
}

func (s *tabStore) SetEntries(entries []tab.Tab) {
	s.entries = tab.Clone(entries)
	s.index = make(map[tab.ID]int, len(entries))
	for i, t := range s.entries {
		s.index[t.ID] = i
	}
}

func (s *tabStore) InWindow(id tab.WindowID) []tab.Tab {
	var out []tab.Tab
	for _, t := range s.entries {
		if t.WindowID == id {
			out = append(out, t)
		}
	}
	return out
}

func (s *tabStore) Get(id tab.ID) (tab.Tab, bool) {
	i, ok := s.index[id]
	if !ok {
		return tab.Tab{}, false
	}
	return s.entries[i], true
}

func (s *tabStore) Len() int {
	return len(s.entries)
}
