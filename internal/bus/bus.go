// Package bus connects the assistant to a websocket message hub. Text and
// audio messages addressed to the assistant are routed and answered.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

const (
	KindText  = "text"
	KindAudio = "audio"
	KindReply = "reply"
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
}

type Conn struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bus: %w", err)
	}
	log.Info("Connected to bus", "url", url)
	return &Conn{conn: conn}, nil
}

func (c *Conn) Read() (*Message, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &m, nil
}

func (c *Conn) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) Close() error { return c.conn.Close() }

// Sender answers an utterance.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// Transcriber turns an encoded audio clip into text.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, data []byte) (string, error)
}

// Agent answers bus messages addressed to Name. A nil Transcriber rejects
// audio messages.
type Agent struct {
	Name   string
	Sender Sender
	STT    Transcriber
}

var (
	ErrNoSTT     = errors.New("bus: audio received but no transcriber configured")
	ErrMalformed = errors.New("bus: malformed message")
)

// Run reads from c until ctx is done or the connection fails.
func (a *Agent) Run(ctx context.Context, c *Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	log.Info("Bus agent ready", "name", a.Name)
	for {
		msg, err := c.Read()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, ErrMalformed) {
				log.Warn("Malformed bus message", "err", err)
				continue
			}
			return fmt.Errorf("bus read: %w", err)
		}

		rep := a.Handle(ctx, msg)
		if rep == nil {
			continue
		}
		if err := c.Write(rep); err != nil {
			return fmt.Errorf("bus write: %w", err)
		}
	}
}

// Handle builds the reply to msg, or nil when msg is not for the agent.
func (a *Agent) Handle(ctx context.Context, msg *Message) *Message {
	if msg.To != "" && !strings.EqualFold(msg.To, a.Name) {
		return nil
	}

	var text string
	switch msg.Kind {
	case KindText, "":
		text = msg.Content
	case KindAudio:
		if a.STT == nil {
			log.Warn("Dropping audio message", "from", msg.From, "err", ErrNoSTT)
			return a.reply(msg, "Audio channel offline, sir. Please send text.")
		}
		t, err := a.STT.TranscribeAudio(ctx, msg.Audio)
		if err != nil {
			log.Warn("Failed to transcribe", "from", msg.From, "err", err)
			return a.reply(msg, "I could not make out that recording, sir.")
		}
		log.Info("Transcribed", "from", msg.From, "text", t)
		text = t
	default:
		log.Debug("Ignoring bus message", "kind", msg.Kind, "from", msg.From)
		return nil
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	reply, err := a.Sender.Send(ctx, text)
	if err != nil {
		log.Warn("Failed to answer", "from", msg.From, "err", err)
		return a.reply(msg, err.Error())
	}
	return a.reply(msg, reply)
}

func (a *Agent) reply(to *Message, content string) *Message {
	return &Message{
		From:    a.Name,
		To:      to.From,
		Kind:    KindReply,
		Content: content,
	}
}
