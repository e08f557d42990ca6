// Package overlay holds the switcher's per-page state machine. It knows
// nothing about terminals; internal/ui drives it and draws Render's output.
package overlay

import (
	"fmt"
	"strings"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

// MatchMode selects how the query is matched against tabs.
type MatchMode string

const (
	MatchSubstring MatchMode = "substring"
	MatchFuzzy     MatchMode = "fuzzy"
)

// ParseMatchMode accepts the config spelling of a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchSubstring:
		return MatchSubstring, nil
	case MatchFuzzy:
		return MatchFuzzy, nil
	}
	return "", fmt.Errorf("unknown match mode %q", s)
}

// Transition reports what Toggle did.
type Transition int

const (
	Shown Transition = iota
	Hidden
)

// Session is the overlay state. The zero value is a hidden session using
// substring matching.
type Session struct {
	Mode MatchMode

	visible     bool
	full        []tab.Tab
	filtered    []tab.Tab
	query       string
	queryCursor int
	selected    int
	offset      int
	currentID   tab.ID
	cycling     bool
}

func NewSession(mode MatchMode) *Session {
	return &Session{Mode: mode}
}

// Toggle shows the session with tabs when hidden and hides it when
// visible. Hiding leaves the content alone.
func (s *Session) Toggle(tabs []tab.Tab, currentID tab.ID) Transition {
	if s.visible {
		s.Hide()
		return Hidden
	}
	s.Show(tabs, currentID)
	return Shown
}

// Show resets the session around tabs, which arrive in recency order. The
// current tab moves to index 1 unless it already leads the list, so index
// 0 is the most recently used other tab.
func (s *Session) Show(tabs []tab.Tab, currentID tab.ID) {
	s.full = PinCurrent(tabs, currentID)
	s.currentID = currentID
	s.query = ""
	s.queryCursor = 0
	s.selected = 0
	s.offset = 0
	s.cycling = false
	s.visible = true
	s.applyFilter()
}

// Hide makes the session invisible without touching its content.
func (s *Session) Hide() {
	s.visible = false
	s.cycling = false
}

// Cancel hides without switching.
func (s *Session) Cancel() {
	s.Hide()
}

// Commit returns the selected tab, if any, and hides.
func (s *Session) Commit() (tab.Tab, bool) {
	t, ok := s.Selection()
	s.Hide()
	return t, ok
}

func (s *Session) Visible() bool {
	return s.visible
}

func (s *Session) Cycling() bool {
	return s.cycling
}

func (s *Session) CurrentID() tab.ID {
	return s.currentID
}

// Full returns every tab the session was shown with, pinned order.
func (s *Session) Full() []tab.Tab {
	return tab.Clone(s.full)
}

// Tabs returns the filtered tabs.
func (s *Session) Tabs() []tab.Tab {
	return tab.Clone(s.filtered)
}

func (s *Session) Selected() int {
	return s.selected
}

func (s *Session) Selection() (tab.Tab, bool) {
	if s.selected < 0 || s.selected >= len(s.filtered) {
		return tab.Tab{}, false
	}
	return s.filtered[s.selected], true
}

// PinCurrent returns a copy of tabs with currentID moved to index 1. A
// current tab at index 0 or missing from the list leaves the order alone.
func PinCurrent(tabs []tab.Tab, currentID tab.ID) []tab.Tab {
	out := tab.Clone(tabs)
	idx := tab.IndexOf(out, currentID)
	if idx <= 1 {
		return out
	}
	current := out[idx]
	copy(out[2:idx+1], out[1:idx])
	out[1] = current
	return out
}
