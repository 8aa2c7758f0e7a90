package protocol

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errClosed = errors.New("protocol: connection closed")

// conn is a redialable websocket. Writes are serialized; one reader at a
// time is assumed.
type conn struct {
	url string

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool
}

func dial(ctx context.Context, url string) (*conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &conn{url: url, ws: ws}, nil
}

func (c *conn) write(frame string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	log.Debug("Write frame", "frame", frame)
	return c.ws.WriteMessage(websocket.TextMessage, []byte(frame))
}

// read returns the next text frame. A peer close is reported as errClosed.
func (c *conn) read() (string, error) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()

	_, raw, err := ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			return "", fmt.Errorf("%w: %v", errClosed, err)
		}
		return "", err
	}
	log.Debug("Read frame", "frame", string(raw))
	return string(raw), nil
}

// redial retries every interval until connected, closed or ctx is done.
func (c *conn) redial(ctx context.Context, interval time.Duration) bool {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed || ctx.Err() != nil {
			return false
		}

		ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err == nil {
			c.mu.Lock()
			old := c.ws
			c.ws = ws
			c.mu.Unlock()
			old.Close()
			return true
		}
		log.Debug("Redial failed", "url", c.url, "err", err)

		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}

func (c *conn) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}
