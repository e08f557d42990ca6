package ui

import (
	"time"

	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

// cycleCommitMsg fires when cycle mode has been idle for the commit delay.
// Only the tick matching the latest cycle counts.
type cycleCommitMsg struct {
	seq int
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if !m.session.Visible() {
		return m.handleHiddenKey(keyMsg)
	}
	return m.handleVisibleKey(keyMsg)
}

func (m *Model) handleHiddenKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case "ctrl+k":
		return m.requestToggle()
	}
	return nil
}

// handleVisibleKey consumes every key while the switcher is open. Keys
// other than the cycle keys end cycle mode.
func (m *Model) handleVisibleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+k", "tab":
		return m.cycle(true)
	case "shift+tab":
		return m.cycle(false)
	case "enter":
		return m.commit()
	case "esc":
		m.cancel()
		return nil
	}
	m.leaveCycle()
	if m.handleTextInput(msg) {
		return nil
	}
	switch msg.String() {
	case "up", "ctrl+p":
		m.moveSelection(m.session.MoveUp)
	case "down", "ctrl+n":
		m.moveSelection(m.session.MoveDown)
	case "pgup":
		m.moveSelection(func() bool { return m.session.MovePageUp(m.maxVisibleItems()) })
	case "pgdown":
		m.moveSelection(func() bool { return m.session.MovePageDown(m.maxVisibleItems()) })
	case "home":
		m.moveSelection(m.session.MoveHome)
	case "end":
		m.moveSelection(m.session.MoveEnd)
	}
	return nil
}

func (m *Model) requestToggle() tea.Cmd {
	m.errMsg = ""
	return m.bus.Execute(command.Request{Message: protocol.ToggleRequest{}})
}

func (m *Model) moveSelection(move func() bool) {
	if move() {
		events.Overlay.Move(m.session.Selected())
	}
	m.syncViewport()
}

func (m *Model) cycle(forward bool) tea.Cmd {
	moved := false
	if forward {
		moved = m.session.CycleForward()
	} else {
		moved = m.session.CycleBackward()
	}
	if !moved {
		return nil
	}
	events.Overlay.Cycle(forward, m.session.Selected())
	m.syncViewport()
	m.cycleSeq++
	if m.cycleDelay <= 0 {
		return nil
	}
	seq := m.cycleSeq
	return tea.Tick(m.cycleDelay, func(time.Time) tea.Msg {
		return cycleCommitMsg{seq: seq}
	})
}

func (m *Model) leaveCycle() {
	if m.session.Cycling() {
		m.session.EndCycle()
	}
	m.cycleSeq++
}

func (m *Model) handleCycleCommitMsg(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(cycleCommitMsg)
	if !ok {
		return nil
	}
	if tick.seq != m.cycleSeq || !m.session.Visible() || !m.session.Cycling() {
		return nil
	}
	return m.commit()
}

// commit hides the switcher and asks the daemon to switch to the selected
// tab. The switcher stays hidden whether or not the request succeeds.
func (m *Model) commit() tea.Cmd {
	m.cycleSeq++
	selected, ok := m.session.Commit()
	events.Overlay.Hide(events.HideCommit)
	m.forceClearInfo()
	if !ok {
		return nil
	}
	events.Overlay.Commit(string(selected.ID))
	return m.bus.Execute(command.Request{Message: protocol.SwitchToTab{TabID: selected.ID}})
}

func (m *Model) cancel() {
	m.cycleSeq++
	m.session.Cancel()
	events.Overlay.Hide(events.HideEscape)
	m.forceClearInfo()
	m.errMsg = ""
}

func (m *Model) syncViewport() {
	m.session.EnsureVisible(m.maxVisibleItems())
}
