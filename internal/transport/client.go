package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/atomicstack/tab-popup-control/internal/logging"
	"github.com/atomicstack/tab-popup-control/internal/protocol"
)

const incomingBuffer = 16

// Client is the page side of the channel.
type Client struct {
	conn    net.Conn
	pageID  string
	writeMu sync.Mutex
	waiters *waiters

	incoming chan protocol.Envelope
	done     chan struct{}
	once     sync.Once

	errMu sync.Mutex
	err   error
}

// Dial connects to the daemon at url and registers with role.
func Dial(ctx context.Context, url string, role protocol.Role) (*Client, error) {
	conn, _, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:     conn,
		waiters:  newWaiters(),
		incoming: make(chan protocol.Envelope, incomingBuffer),
		done:     make(chan struct{}),
	}
	go c.readLoop()

	reply, err := c.Request(ctx, protocol.Hello{Role: role})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}
	welcome, ok := reply.(protocol.Welcome)
	if !ok {
		c.Close()
		return nil, fmt.Errorf("hello: unexpected %s reply", reply.Action())
	}
	c.pageID = welcome.PageID
	return c, nil
}

func (c *Client) PageID() string {
	return c.pageID
}

// Incoming delivers pushes from the daemon. It is closed when the
// connection ends.
func (c *Client) Incoming() <-chan protocol.Envelope {
	return c.incoming
}

// Done is closed when the connection ends; Err then reports why.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Request sends msg and waits for its single reply.
func (c *Client) Request(ctx context.Context, msg protocol.Message) (protocol.Message, error) {
	id := protocol.NewID()
	ch, err := c.waiters.add(id)
	if err != nil {
		return nil, err
	}
	if err := c.write(protocol.Envelope{ID: id, Message: msg}); err != nil {
		c.waiters.remove(id)
		return nil, err
	}
	return await(ctx, c.waiters, id, ch)
}

// Reply answers a push identified by replyTo.
func (c *Client) Reply(replyTo string, msg protocol.Message) error {
	return c.write(protocol.Envelope{ID: protocol.NewID(), ReplyTo: replyTo, Message: msg})
}

func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

func (c *Client) write(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wsutil.WriteClientText(c.conn, data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.incoming)
	for {
		data, err := wsutil.ReadServerText(c.conn)
		if err != nil {
			c.shutdown(err)
			return
		}
		env, err := protocol.Decode(data)
		if err != nil {
			logging.Warn("discarding daemon message", "error", err)
			if env.ID != "" && env.ReplyTo == "" {
				_ = c.Reply(env.ID, protocol.Errorf("%v", err))
			}
			continue
		}
		if env.ReplyTo != "" {
			c.waiters.resolve(env.ReplyTo, env.Message)
			continue
		}
		select {
		case c.incoming <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Client) shutdown(err error) {
	c.once.Do(func() {
		var closed wsutil.ClosedError
		if errors.As(err, &closed) || errors.Is(err, net.ErrClosed) {
			err = ErrClosed
		}
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		close(c.done)
		c.waiters.closeAll()
		_ = c.conn.Close()
	})
}
