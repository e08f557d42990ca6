package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/backend"
	"github.com/atomicstack/tab-popup-control/internal/overlay"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/theme"
	"github.com/atomicstack/tab-popup-control/internal/ui/command"
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCycleCommitDelay is how long cycle mode waits for another cycle
// key before committing the selection.
const DefaultCycleCommitDelay = 800 * time.Millisecond

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Client is the daemon connection the overlay talks through.
type Client interface {
	Request(ctx context.Context, msg protocol.Message) (protocol.Message, error)
	Reply(replyTo string, msg protocol.Message) error
}

// Options configures a Model.
type Options struct {
	Width            int
	Height           int
	ShowFooter       bool
	Verbose          bool
	Match            overlay.MatchMode
	CycleCommitDelay time.Duration
	RequestTimeout   time.Duration
}

// Model implements the Bubble Tea model for the tab switcher overlay.
type Model struct {
	session *overlay.Session

	errMsg      string
	infoMsg     string
	infoExpire  time.Time
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	verbose     bool
	connected   bool

	cycleDelay time.Duration
	cycleSeq   int

	client  Client
	backend *backend.Watcher
	bus     *command.Bus

	filterCursor      cursor.Model
	filterCursorDirty bool

	handlers map[reflect.Type]msgHandler
}

// NewModel initialises the UI around a hidden session. watcher may be nil,
// in which case no pushes arrive and client alone carries requests.
func NewModel(opts Options, client Client, watcher *backend.Watcher) *Model {
	if client == nil && watcher != nil {
		client = watcher
	}
	m := &Model{
		session:    overlay.NewSession(opts.Match),
		showFooter: opts.ShowFooter,
		verbose:    opts.Verbose,
		cycleDelay: opts.CycleCommitDelay,
		client:     client,
		backend:    watcher,
		bus:        command.New(client, opts.RequestTimeout),
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	m.filterCursor = c
	m.registerHandlers()
	return m
}

// Session exposes the overlay state.
func (m *Model) Session() *overlay.Session {
	return m.session
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.backend != nil {
		cmds = append(cmds, waitForBackendEvent(m.backend))
	}
	if cmd := m.filterCursor.Focus(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
		reflect.TypeOf(command.Result{}):    m.handleCommandResultMsg,
		reflect.TypeOf(cycleCommitMsg{}):    m.handleCycleCommitMsg,
		reflect.TypeOf(replyFailedMsg{}):    m.handleReplyFailedMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}
