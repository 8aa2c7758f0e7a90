package protocol

import (
	"context"
	"errors"
	log "log/slog"
	"sync"
	"time"
)

var ErrTimeout = errors.New("protocol: reply timeout")

type Config struct {
	// Shard is this end's address, written as FROM and matched against TO.
	Shard string
	URL   string
	// Retry is the redial interval after the connection drops.
	Retry time.Duration
	// Timeout bounds the wait for a reply.
	Timeout time.Duration
	// Unsolicited receives frames for Shard that no request waits for.
	Unsolicited func(*Message)
}

// Client sends requests and waits for replies. Requests are serialized:
// the next frame addressed to Shard answers the request in flight.
type Client struct {
	cfg  Config
	conn *conn

	reqMu sync.Mutex

	waitMu sync.Mutex
	wait   chan *Message
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c, err := dial(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, conn: c}, nil
}

func (c *Client) Shard() string { return c.cfg.Shard }

// Send transmits m from this shard without waiting.
func (c *Client) Send(m Message) error {
	m.From = c.cfg.Shard
	return c.conn.write(m.String())
}

// Request sends m and returns the reply.
func (c *Client) Request(ctx context.Context, m Message) (*Message, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	// armed before sending so a fast reply is not lost
	ch := make(chan *Message, 1)
	c.setWaiter(ch)
	defer c.setWaiter(nil)

	if err := c.Send(m); err != nil {
		return nil, err
	}

	t := time.NewTimer(c.cfg.Timeout)
	defer t.Stop()

	select {
	case rep := <-ch:
		return rep, nil
	case <-t.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) setWaiter(ch chan *Message) {
	c.waitMu.Lock()
	c.wait = ch
	c.waitMu.Unlock()
}

// deliver hands m to the request in flight, if any.
func (c *Client) deliver(m *Message) bool {
	c.waitMu.Lock()
	ch := c.wait
	c.wait = nil
	c.waitMu.Unlock()

	if ch == nil {
		return false
	}
	ch <- m
	return true
}

// Run reads frames until ctx is done, redialing when the connection drops.
func (c *Client) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, func() { c.conn.close() })
	defer stop()

	for {
		frame, err := c.conn.read()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if errors.Is(err, errClosed) {
				log.Warn("Connection closed, redialing", "url", c.cfg.URL)
			} else {
				log.Error("Failed to read", "url", c.cfg.URL, "err", err)
			}
			if !c.conn.redial(ctx, c.cfg.Retry) {
				return
			}
			log.Info("Reconnected", "url", c.cfg.URL)
			continue
		}

		if recipient(frame) != c.cfg.Shard {
			continue
		}
		m, err := Parse(frame)
		if err != nil {
			log.Warn("Dropping frame", "frame", frame, "err", err)
			continue
		}
		if !c.deliver(m) && c.cfg.Unsolicited != nil {
			c.cfg.Unsolicited(m)
		}
	}
}

func (c *Client) Close() error { return c.conn.close() }
