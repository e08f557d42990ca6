package ui

import (
	"unicode"

	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) updateFilterCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.filterCursor, cmd = m.filterCursor.Update(msg)
	return cmd
}

func (m *Model) noteFilterCursorChange(before int) {
	if before != m.session.QueryCursor() {
		m.filterCursorDirty = true
	}
}

// handleTextInput edits the query. It reports whether the key was consumed.
func (m *Model) handleTextInput(msg tea.KeyMsg) bool {
	s := m.session
	switch msg.String() {
	case "ctrl+u":
		before := s.QueryCursor()
		if !s.ClearQuery() {
			return false
		}
		m.noteFilterCursorChange(before)
		m.queryEdited()
		events.Filter.Cleared()
		return true
	case "ctrl+w":
		before := s.QueryCursor()
		if !s.DeleteWordBackward() {
			return false
		}
		m.noteFilterCursorChange(before)
		m.queryEdited()
		events.Filter.WordBackspace(s.Query())
		return true
	case "ctrl+a":
		before := s.QueryCursor()
		if !s.MoveQueryCursorStart() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.Cursor(s.QueryCursor())
		return true
	case "ctrl+e":
		before := s.QueryCursor()
		if !s.MoveQueryCursorEnd() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.Cursor(s.QueryCursor())
		return true
	case "alt+b":
		before := s.QueryCursor()
		if !s.MoveQueryCursorWordBackward() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.CursorWord(s.QueryCursor())
		return true
	case "alt+f":
		before := s.QueryCursor()
		if !s.MoveQueryCursorWordForward() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.CursorWord(s.QueryCursor())
		return true
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		return m.removeFilterRune()
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		for _, r := range msg.Runes {
			if unicode.IsControl(r) {
				return false
			}
		}
		return m.appendToFilter(string(msg.Runes))
	case tea.KeySpace:
		return m.appendToFilter(" ")
	case tea.KeyLeft:
		before := s.QueryCursor()
		if !s.MoveQueryCursorRuneBackward() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.Cursor(s.QueryCursor())
		return true
	case tea.KeyRight:
		before := s.QueryCursor()
		if !s.MoveQueryCursorRuneForward() {
			return false
		}
		m.noteFilterCursorChange(before)
		events.Filter.Cursor(s.QueryCursor())
		return true
	}
	return false
}

func (m *Model) appendToFilter(text string) bool {
	if text == "" {
		return false
	}
	before := m.session.QueryCursor()
	if !m.session.InsertText(text) {
		return false
	}
	m.noteFilterCursorChange(before)
	m.queryEdited()
	events.Filter.Append(m.session.Query(), len(m.session.Tabs()))
	return true
}

func (m *Model) removeFilterRune() bool {
	before := m.session.QueryCursor()
	if !m.session.DeleteRuneBackward() {
		return false
	}
	m.noteFilterCursorChange(before)
	m.queryEdited()
	events.Filter.Backspace(m.session.Query(), len(m.session.Tabs()))
	return true
}

func (m *Model) queryEdited() {
	m.cycleSeq++
	m.forceClearInfo()
	m.errMsg = ""
	m.syncViewport()
}

func (m *Model) filterPrompt() string {
	render := func(style *lipgloss.Style, value string) string {
		if style == nil || value == "" {
			return value
		}
		return style.Render(value)
	}
	if styles.Cursor != nil {
		m.filterCursor.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		m.filterCursor.TextStyle = styles.Filter.Copy()
	} else {
		m.filterCursor.TextStyle = lipgloss.Style{}
	}
	prompt := "» "
	if styles.FilterPrompt != nil {
		prompt = styles.FilterPrompt.Render(prompt)
	}
	text := m.session.Query()
	if text == "" {
		runes := []rune(overlay.Placeholder)
		var caretRune, rest string
		if len(runes) > 0 {
			caretRune = string(runes[0])
			rest = string(runes[1:])
		}
		if styles.FilterPlaceholder != nil {
			m.filterCursor.TextStyle = styles.FilterPlaceholder.Copy()
		}
		return prompt + m.renderFilterCursor(caretRune) + render(styles.FilterPlaceholder, rest)
	}
	runes := []rune(text)
	pos := m.session.QueryCursor()
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	before := render(styles.Filter, string(runes[:pos]))
	caretRune := " "
	after := ""
	if pos < len(runes) {
		caretRune = string(runes[pos])
		after = render(styles.Filter, string(runes[pos+1:]))
	}
	return prompt + before + m.renderFilterCursor(caretRune) + after
}

func (m *Model) renderFilterCursor(char string) string {
	if char == "" {
		char = " "
	}
	m.filterCursor.SetChar(char)

	base := m.filterCursor.TextStyle.Copy()
	base = base.Inline(true)

	if m.filterCursor.Blink {
		return base.Render(char)
	}

	if styles.Cursor != nil {
		cursorStyle := styles.Cursor.Copy().Inline(true)
		base = base.Inherit(cursorStyle).Blink(false)
		return base.Render(char)
	}

	return base.Reverse(true).Render(char)
}
