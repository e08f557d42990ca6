package overlay

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

func (s *Session) Query() string {
	return s.query
}

// QueryCursor returns the rune offset of the query cursor.
func (s *Session) QueryCursor() int {
	runes := []rune(s.query)
	if s.queryCursor < 0 {
		return 0
	}
	if s.queryCursor > len(runes) {
		return len(runes)
	}
	return s.queryCursor
}

// SetQuery replaces the query, re-filters and resets the selection.
func (s *Session) SetQuery(query string, cursor int) {
	s.query = query
	runes := []rune(query)
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(runes) {
		cursor = len(runes)
	}
	s.queryCursor = cursor
	s.selected = 0
	s.offset = 0
	s.cycling = false
	s.applyFilter()
}

// ClearQuery empties the query. It reports whether anything changed.
func (s *Session) ClearQuery() bool {
	if s.query == "" {
		return false
	}
	s.SetQuery("", 0)
	return true
}

// InsertText inserts text at the query cursor.
func (s *Session) InsertText(text string) bool {
	insert := []rune(text)
	if len(insert) == 0 {
		return false
	}
	runes := []rune(s.query)
	pos := s.QueryCursor()
	updated := make([]rune, 0, len(runes)+len(insert))
	updated = append(updated, runes[:pos]...)
	updated = append(updated, insert...)
	updated = append(updated, runes[pos:]...)
	s.SetQuery(string(updated), pos+len(insert))
	return true
}

// DeleteRuneBackward deletes the rune before the query cursor.
func (s *Session) DeleteRuneBackward() bool {
	runes := []rune(s.query)
	pos := s.QueryCursor()
	if pos == 0 || len(runes) == 0 {
		return false
	}
	updated := append(runes[:pos-1], runes[pos:]...)
	s.SetQuery(string(updated), pos-1)
	return true
}

// DeleteWordBackward deletes the word preceding the query cursor.
func (s *Session) DeleteWordBackward() bool {
	runes := []rune(s.query)
	pos := s.QueryCursor()
	if pos == 0 || len(runes) == 0 {
		return false
	}
	i := wordStart(runes, pos)
	updated := append(runes[:i], runes[pos:]...)
	s.SetQuery(string(updated), i)
	return true
}

func (s *Session) MoveQueryCursorStart() bool {
	if s.QueryCursor() == 0 {
		return false
	}
	s.queryCursor = 0
	return true
}

func (s *Session) MoveQueryCursorEnd() bool {
	end := len([]rune(s.query))
	if s.QueryCursor() == end {
		return false
	}
	s.queryCursor = end
	return true
}

func (s *Session) MoveQueryCursorRuneBackward() bool {
	if s.QueryCursor() == 0 {
		return false
	}
	s.queryCursor = s.QueryCursor() - 1
	return true
}

func (s *Session) MoveQueryCursorRuneForward() bool {
	pos := s.QueryCursor()
	if pos >= len([]rune(s.query)) {
		return false
	}
	s.queryCursor = pos + 1
	return true
}

func (s *Session) MoveQueryCursorWordBackward() bool {
	pos := s.QueryCursor()
	i := wordStart([]rune(s.query), pos)
	if i == pos {
		return false
	}
	s.queryCursor = i
	return true
}

func (s *Session) MoveQueryCursorWordForward() bool {
	runes := []rune(s.query)
	pos := s.QueryCursor()
	i := pos
	for i < len(runes) && !unicode.IsSpace(runes[i]) {
		i++
	}
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if i == pos {
		return false
	}
	s.queryCursor = i
	return true
}

func wordStart(runes []rune, pos int) int {
	i := pos
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return i
}

func (s *Session) applyFilter() {
	s.filtered = Filter(s.full, s.query, s.Mode)
}

// Filter returns the tabs matching query, keeping their order. A query that
// is blank after trimming matches everything. Substring mode compares the
// lower-cased query, untrimmed, against title and URL.
func Filter(tabs []tab.Tab, query string, mode MatchMode) []tab.Tab {
	if strings.TrimSpace(query) == "" {
		return tab.Clone(tabs)
	}
	out := make([]tab.Tab, 0, len(tabs))
	if mode == MatchFuzzy {
		needle := strings.TrimSpace(query)
		for _, t := range tabs {
			if fuzzy.MatchFold(needle, t.Title) || fuzzy.MatchFold(needle, t.URL) {
				out = append(out, t)
			}
		}
		return out
	}
	lower := strings.ToLower(query)
	for _, t := range tabs {
		if strings.Contains(strings.ToLower(t.Title), lower) || strings.Contains(strings.ToLower(t.URL), lower) {
			out = append(out, t)
		}
	}
	return out
}
