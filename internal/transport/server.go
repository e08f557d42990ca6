package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"

	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/logging/events"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
)

type page struct {
	id      string
	conn    net.Conn
	writeMu sync.Mutex
	waiters *waiters

	mu   sync.Mutex
	role protocol.Role
}

func (p *page) write(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if err := wsutil.WriteServerText(p.conn, data); err != nil {
		return fmt.Errorf("write to page %s: %w", p.id, err)
	}
	events.Transport.Send(p.id, string(env.Message.Action()), env.ID)
	return nil
}

// Server is the daemon side of the channel. Each connection is a page.
type Server struct {
	handler Handler

	mu       sync.Mutex
	pages    map[string]*page
	overlays []string
}

func NewServer(handler Handler) *Server {
	return &Server{handler: handler, pages: make(map[string]*page)}
}

// SetHandler replaces the request handler. It lets a handler that itself
// pushes through the server be built after it.
func (s *Server) SetHandler(handler Handler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func (s *Server) currentHandler() Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler
}

// ServeWS upgrades the request and serves the page until it disconnects.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		logging.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &page{id: uuid.NewString(), conn: conn, waiters: newWaiters()}
	s.mu.Lock()
	s.pages[p.id] = p
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.drop(p)
	}()

	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) {
				logging.Debug("page read loop exit", "page", p.id, "error", err)
			}
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			logging.Warn("discarding page message", "page", p.id, "error", err)
			if env.ID != "" {
				_ = p.write(protocol.Envelope{ID: protocol.NewID(), ReplyTo: env.ID, Message: protocol.Errorf("%v", err)})
			}
			continue
		}
		events.Transport.Receive(p.id, string(env.Message.Action()), env.ID)
		if env.ReplyTo != "" {
			if !p.waiters.resolve(env.ReplyTo, env.Message) {
				logging.Debug("late reply from page", "page", p.id, "replyTo", env.ReplyTo)
			}
			continue
		}
		if hello, ok := env.Message.(protocol.Hello); ok {
			s.register(p, hello.Role)
			s.reply(p, env.ID, protocol.Welcome{PageID: p.id}, nil)
			continue
		}
		handler := s.currentHandler()
		if handler == nil {
			s.reply(p, env.ID, nil, fmt.Errorf("%w: no handler for %s", protocol.ErrUnknownAction, env.Message.Action()))
			continue
		}
		go func(env protocol.Envelope) {
			reply, err := handler.Handle(ctx, p.id, env.Message)
			s.reply(p, env.ID, reply, err)
		}(env)
	}
}

func (s *Server) reply(p *page, replyTo string, msg protocol.Message, err error) {
	if err != nil {
		msg = protocol.Errorf("%v", err)
	}
	if msg == nil {
		msg = protocol.Ack{}
	}
	if err := p.write(protocol.Envelope{ID: protocol.NewID(), ReplyTo: replyTo, Message: msg}); err != nil {
		logging.Error(err)
	}
}

func (s *Server) register(p *page, role protocol.Role) {
	p.mu.Lock()
	p.role = role
	p.mu.Unlock()
	if role == protocol.RoleOverlay {
		s.mu.Lock()
		s.overlays = append(s.overlays, p.id)
		s.mu.Unlock()
	}
	events.Transport.Connect(p.id, string(role))
	logging.Info("page connected", "page", p.id, "role", string(role))
}

func (s *Server) drop(p *page) {
	p.waiters.closeAll()
	_ = p.conn.Close()
	s.mu.Lock()
	delete(s.pages, p.id)
	for i, id := range s.overlays {
		if id == p.id {
			s.overlays = append(s.overlays[:i], s.overlays[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	events.Transport.Disconnect(p.id)
}

// IsOverlay reports whether pageID registered as an overlay.
func (s *Server) IsOverlay(pageID string) bool {
	s.mu.Lock()
	p, ok := s.pages[pageID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.role == protocol.RoleOverlay
}

// LatestPage returns the most recently attached overlay page.
func (s *Server) LatestPage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.overlays) == 0 {
		return "", false
	}
	return s.overlays[len(s.overlays)-1], true
}

// PageCount reports connected pages of any role.
func (s *Server) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// SendToPage pushes msg to a page and waits for its single reply.
func (s *Server) SendToPage(ctx context.Context, pageID string, msg protocol.Message) (protocol.Message, error) {
	s.mu.Lock()
	p, ok := s.pages[pageID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
	}
	id := protocol.NewID()
	ch, err := p.waiters.add(id)
	if err != nil {
		return nil, err
	}
	if err := p.write(protocol.Envelope{ID: id, Message: msg}); err != nil {
		p.waiters.remove(id)
		return nil, err
	}
	return await(ctx, p.waiters, id, ch)
}

// Close disconnects every page. Hijacked connections are not closed by
// http.Server.Shutdown.
func (s *Server) Close() {
	s.mu.Lock()
	pages := make([]*page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()
	for _, p := range pages {
		_ = p.conn.Close()
	}
}
