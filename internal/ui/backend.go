package ui

import (
	"fmt"

	"github.com/atomicstack/tab-popup-control/internal/backend"
	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

type replyFailedMsg struct {
	err error
}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.backend != nil {
		waitCmd := waitForBackendEvent(m.backend)
		if cmd != nil {
			return tea.Batch(cmd, waitCmd)
		}
		return waitCmd
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(msg tea.Msg) tea.Cmd {
	m.backend = nil
	m.connected = false
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	switch evt.Kind {
	case backend.KindConnected:
		m.connected = true
		m.errMsg = ""
		if m.verbose {
			m.setInfo(fmt.Sprintf("Connected as page %s", evt.PageID))
		}
	case backend.KindDisconnected:
		m.connected = false
		if evt.Err != nil {
			m.errMsg = fmt.Sprintf("daemon unreachable: %v", evt.Err)
		} else {
			m.errMsg = "daemon unreachable"
		}
	case backend.KindPush:
		return m.applyPush(evt.Push)
	}
	return nil
}

// applyPush handles a message the daemon sent to this page and answers it.
func (m *Model) applyPush(env protocol.Envelope) tea.Cmd {
	switch msg := env.Message.(type) {
	case protocol.ShowSwitcher:
		m.cycleSeq++
		if m.session.Toggle(msg.Tabs, msg.CurrentTabID) == overlay.Shown {
			events.Overlay.Show(string(msg.CurrentTabID), len(msg.Tabs))
			m.errMsg = ""
			m.forceClearInfo()
			m.filterCursorDirty = true
			m.syncViewport()
		} else {
			events.Overlay.Hide(events.HideToggle)
		}
		return m.replyCmd(env.ID, protocol.Ack{})
	case nil:
		return nil
	default:
		return m.replyCmd(env.ID, protocol.Errorf("overlay cannot handle %s", msg.Action()))
	}
}

func (m *Model) replyCmd(replyTo string, msg protocol.Message) tea.Cmd {
	if m.client == nil || replyTo == "" {
		return nil
	}
	client := m.client
	return func() tea.Msg {
		if err := client.Reply(replyTo, msg); err != nil {
			logging.Error(err)
			return replyFailedMsg{err: err}
		}
		return nil
	}
}

func (m *Model) handleReplyFailedMsg(msg tea.Msg) tea.Cmd {
	failed, ok := msg.(replyFailedMsg)
	if !ok || failed.err == nil {
		return nil
	}
	m.errMsg = failed.err.Error()
	return nil
}
