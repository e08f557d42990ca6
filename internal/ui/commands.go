package ui

import (
	"fmt"

	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/ui/command"
	tea "github.com/charmbracelet/bubbletea"
)

// handleCommandResultMsg reports how a daemon request settled. Failures
// land in the status line and leave the session as it is.
func (m *Model) handleCommandResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(command.Result)
	if !ok {
		return nil
	}
	if result.Err != nil {
		m.errMsg = fmt.Sprintf("%s: %v", result.Label, result.Err)
		m.forceClearInfo()
		events.Action.Error(result.Err)
		return nil
	}
	if m.verbose {
		m.setInfo(fmt.Sprintf("%s acknowledged", result.Label))
	} else {
		m.forceClearInfo()
	}
	events.Action.Success(result.Label)
	return nil
}
