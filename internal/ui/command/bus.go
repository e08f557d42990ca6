package command

import (
	"context"
	"fmt"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	tea "github.com/charmbracelet/bubbletea"
)

// DefaultTimeout bounds how long a request waits for the daemon's reply.
const DefaultTimeout = 5 * time.Second

// Sender delivers a request to the daemon and returns its reply.
type Sender interface {
	Request(ctx context.Context, msg protocol.Message) (protocol.Message, error)
}

// Request encapsulates a message bound for the daemon.
type Request struct {
	ID      string
	Label   string
	Message protocol.Message
}

// Result is the tea.Msg produced once a request settles.
type Result struct {
	ID    string
	Label string
	Reply protocol.Message
	Err   error
}

// Bus coordinates the execution of daemon requests.
type Bus struct {
	sender  Sender
	timeout time.Duration
}

// New initialises a command bus instance.
func New(sender Sender, timeout time.Duration) *Bus {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bus{sender: sender, timeout: timeout}
}

// Execute wraps a request into a Bubble Tea command while emitting trace logs.
func (b *Bus) Execute(req Request) tea.Cmd {
	if req.ID == "" {
		req.ID = protocol.NewID()
	}
	if req.Label == "" && req.Message != nil {
		req.Label = string(req.Message.Action())
	}
	events.Command.Queue(req.ID, req.Label)
	return func() tea.Msg {
		if b.sender == nil || req.Message == nil {
			events.Command.Skip(req.ID, req.Label)
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		reply, err := b.sender.Request(ctx, req.Message)
		events.Command.Result(req.ID, req.Label, fmt.Sprintf("%T", reply))
		return Result{ID: req.ID, Label: req.Label, Reply: reply, Err: err}
	}
}
