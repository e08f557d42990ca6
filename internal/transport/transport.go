// Package transport carries protocol messages between the registry daemon
// and its pages over WebSocket text frames.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/atomicstack/tab-popup-control/internal/protocol"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrPageNotFound = errors.New("page not found")
)

// Handler answers page requests. A returned error is sent back to the page
// as an error reply.
type Handler interface {
	Handle(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error)
}

type HandlerFunc func(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error)

func (f HandlerFunc) Handle(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error) {
	return f(ctx, pageID, msg)
}

// waiters tracks requests awaiting their single reply.
type waiters struct {
	mu      sync.Mutex
	pending map[string]chan protocol.Message
	closed  bool
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[string]chan protocol.Message)}
}

func (w *waiters) add(id string) (chan protocol.Message, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	ch := make(chan protocol.Message, 1)
	w.pending[id] = ch
	return ch, nil
}

func (w *waiters) remove(id string) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

// resolve delivers a reply; it reports false when nobody is waiting.
func (w *waiters) resolve(id string, msg protocol.Message) bool {
	w.mu.Lock()
	ch, ok := w.pending[id]
	if ok {
		delete(w.pending, id)
	}
	w.mu.Unlock()
	if ok {
		ch <- msg
	}
	return ok
}

func (w *waiters) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	for id, ch := range w.pending {
		close(ch)
		delete(w.pending, id)
	}
}

// await blocks for the reply on ch. Error replies become errors.
func await(ctx context.Context, w *waiters, id string, ch chan protocol.Message) (protocol.Message, error) {
	select {
	case reply, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		if failure, isErr := reply.(protocol.ErrorReply); isErr {
			return nil, failure
		}
		return reply, nil
	case <-ctx.Done():
		w.remove(id)
		return nil, ctx.Err()
	}
}
