package bus

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoSender struct{ err error }

func (e echoSender) Send(_ context.Context, text string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "heard: " + text, nil
}

type fakeSTT struct {
	text string
	err  error
}

func (f fakeSTT) TranscribeAudio(_ context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty clip")
	}
	return f.text, f.err
}

func TestHandle(t *testing.T) {
	a := &Agent{Name: "jarvis", Sender: echoSender{}, STT: fakeSTT{text: "status report"}}
	ctx := context.Background()

	cases := []struct {
		name string
		in   Message
		want *Message
	}{
		{"text", Message{From: "phone", To: "jarvis", Kind: KindText, Content: "hello"},
			&Message{From: "jarvis", To: "phone", Kind: KindReply, Content: "heard: hello"}},
		{"case-insensitive address", Message{From: "phone", To: "JARVIS", Content: "hi"},
			&Message{From: "jarvis", To: "phone", Kind: KindReply, Content: "heard: hi"}},
		{"audio", Message{From: "watch", Kind: KindAudio, Audio: []byte{1, 2}},
			&Message{From: "jarvis", To: "watch", Kind: KindReply, Content: "heard: status report"}},
		{"bad audio", Message{From: "watch", Kind: KindAudio},
			&Message{From: "jarvis", To: "watch", Kind: KindReply, Content: "I could not make out that recording, sir."}},
		{"other recipient", Message{From: "phone", To: "friday", Content: "hello"}, nil},
		{"reply kind", Message{From: "phone", Kind: KindReply, Content: "ok"}, nil},
		{"blank", Message{From: "phone", Kind: KindText, Content: "  "}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			assert.Equal(t, tc.want, a.Handle(ctx, &in))
		})
	}
}

func TestHandleWithoutSTT(t *testing.T) {
	a := &Agent{Name: "jarvis", Sender: echoSender{}}
	got := a.Handle(context.Background(), &Message{From: "watch", Kind: KindAudio, Audio: []byte{1}})
	require.NotNil(t, got)
	assert.Equal(t, "Audio channel offline, sir. Please send text.", got.Content)
}

func TestHandleSendError(t *testing.T) {
	a := &Agent{Name: "jarvis", Sender: echoSender{err: errors.New("assistant: signed out")}}
	got := a.Handle(context.Background(), &Message{From: "phone", Content: "hello"})
	require.NotNil(t, got)
	assert.Equal(t, "assistant: signed out", got.Content)
}

// hub accepts one client, sends it the scripted frames and collects replies.
func hub(t *testing.T, frames []string, replies chan<- Message) *httptest.Server {
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			var m Message
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			replies <- m
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAgentRun(t *testing.T) {
	replies := make(chan Message, 4)
	srv := hub(t, []string{
		`not json`,
		`{"from":"phone","to":"jarvis","kind":"text","content":"show my tasks"}`,
	}, replies)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)

	a := &Agent{Name: "jarvis", Sender: echoSender{}}
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, c) }()

	select {
	case m := <-replies:
		assert.Equal(t, Message{From: "jarvis", To: "phone", Kind: KindReply, Content: "heard: show my tasks"}, m)
	case <-time.After(2 * time.Second):
		t.Fatal("no reply")
	}

	cancel()
	assert.NoError(t, <-done)
}
