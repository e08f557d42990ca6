// Package ui contains the Bubble Tea program that hosts the tab switcher
// overlay. The Model type focuses on message orchestration, while dedicated
// helpers own navigation, query input, rendering and daemon traffic.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function (key presses, window size, daemon events, request results).
//   - While the switcher is hidden only ctrl+k (ask the daemon to open it)
//     and the quit keys are recognised. While it is visible every key is
//     consumed: text edits the query, arrows move the selection, ctrl+k and
//     tab cycle, enter commits and esc cancels.
//
// State ownership:
//   - The switcher state lives in overlay.Session, a terminal-agnostic state
//     machine. The view draws overlay.Render's frame and nothing else.
//   - Requests to the daemon run through the internal/ui/command bus as
//     tea.Cmd values; their results come back as command.Result messages.
//
// Backend interactions:
//   - A backend.Watcher keeps the websocket to the daemon alive. Update waits
//     for its events: pushes (the daemon's toggleSwitcher carrying tabs) are
//     applied to the session and answered with an ack.
//
// Terminals do not report key releases, so releasing the shortcut modifier
// cannot commit a cycle. Cycling instead arms a timer; when no further
// cycle key arrives within the commit delay the selection commits.
package ui
