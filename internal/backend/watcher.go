// Package backend keeps an overlay connected to the daemon. The Watcher
// dials, forwards pushed messages as events and redials after a drop.
package backend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
	"github.com/atomicstack/tab-popup-control/internal/transport"
)

// ErrNotConnected is returned by Request and Reply between connections.
var ErrNotConnected = errors.New("not connected to daemon")

// DefaultRetryInterval spaces out redial attempts.
const DefaultRetryInterval = time.Second

// Kind represents the type of event emitted by the watcher.
type Kind int

const (
	KindConnected Kind = iota
	KindPush
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindPush:
		return "push"
	case KindDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Event conveys a connection change or a message pushed by the daemon.
type Event struct {
	Kind   Kind
	PageID string
	Push   protocol.Envelope
	Err    error
}

// Conn is the subset of *transport.Client the watcher drives.
type Conn interface {
	PageID() string
	Request(ctx context.Context, msg protocol.Message) (protocol.Message, error)
	Reply(replyTo string, msg protocol.Message) error
	Incoming() <-chan protocol.Envelope
	Close() error
	Err() error
}

var dial = func(ctx context.Context, url string) (Conn, error) {
	return transport.Dial(ctx, url, protocol.RoleOverlay)
}

// Watcher maintains the overlay's connection to the daemon and publishes
// events.
type Watcher struct {
	url      string
	throttle *throttle

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup

	mu   sync.Mutex
	conn Conn
}

// NewWatcher starts connecting to the daemon websocket at url, waiting at
// least retry between dial attempts.
func NewWatcher(url string, retry time.Duration) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		url:      url,
		throttle: newThrottle(retry),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 16),
	}

	w.wg.Add(1)
	go w.run()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of backend events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher and closes the live connection, if any.
func (w *Watcher) Stop() {
	w.cancel()
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Wait blocks until the connection goroutine has exited and the events
// channel is closed. Call after Stop when a clean shutdown is required.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// Connected reports whether a connection is currently established.
func (w *Watcher) Connected() bool {
	return w.current() != nil
}

// Request sends msg over the live connection and waits for its reply.
func (w *Watcher) Request(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	conn := w.current()
	if conn == nil {
		return nil, ErrNotConnected
	}
	return conn.Request(ctx, msg)
}

// Reply answers a push received on the live connection.
func (w *Watcher) Reply(replyTo string, msg protocol.Message) error {
	conn := w.current()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Reply(replyTo, msg)
}

func (w *Watcher) current() Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn
}

func (w *Watcher) setConn(conn Conn) {
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for w.throttle.wait(w.ctx) {
		conn, err := dial(w.ctx, w.url)
		if err != nil {
			if w.ctx.Err() != nil {
				return
			}
			logging.Debug("daemon dial failed", "url", w.url, "err", err)
			if !w.emit(Event{Kind: KindDisconnected, Err: err}) {
				return
			}
			continue
		}
		w.setConn(conn)
		logging.Info("connected to daemon", "url", w.url, "page", conn.PageID())
		if !w.emit(Event{Kind: KindConnected, PageID: conn.PageID()}) {
			conn.Close()
			w.setConn(nil)
			return
		}
		alive := w.pump(conn)
		w.setConn(nil)
		conn.Close()
		if !alive {
			return
		}
		err = conn.Err()
		logging.Warn("daemon connection lost", "url", w.url, "err", err)
		if !w.emit(Event{Kind: KindDisconnected, PageID: conn.PageID(), Err: err}) {
			return
		}
	}
}

// pump forwards pushes until the connection ends. It reports false when
// the watcher itself stopped.
func (w *Watcher) pump(conn Conn) bool {
	incoming := conn.Incoming()
	for {
		select {
		case <-w.ctx.Done():
			return false
		case env, ok := <-incoming:
			if !ok {
				return w.ctx.Err() == nil
			}
			if !w.emit(Event{Kind: KindPush, PageID: conn.PageID(), Push: env}) {
				return false
			}
		}
	}
}

func (w *Watcher) emit(evt Event) bool {
	select {
	case <-w.ctx.Done():
		return false
	case w.events <- evt:
		return true
	}
}
