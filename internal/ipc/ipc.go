// Package ipc is the local control channel of the daemon: one JSON request
// and one JSON reply per unix socket connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"os"
	"sync"
	"time"
)

const DefaultSocket = "/tmp/jarvis.sock"

const (
	CmdTrigger = "trigger"
	CmdSay     = "say"
	CmdPanel   = "panel"
	CmdTheme   = "theme"
	CmdSignOut = "signout"
	CmdState   = "state"
	CmdWindow  = "window"
)

type Request struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args,omitempty"`
}

type Reply struct {
	OK    bool            `json:"ok"`
	Text  string          `json:"text,omitempty"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func Ok(text string) Reply { return Reply{OK: true, Text: text} }

func Fail(err error) Reply { return Reply{Error: err.Error()} }

type Handler func(ctx context.Context, req Request) Reply

type Server struct {
	path    string
	ln      net.Listener
	handler Handler
	wg      sync.WaitGroup
}

// Listen binds path, replacing a stale socket file.
func Listen(path string, h Handler) (*Server, error) {
	if path == "" {
		path = DefaultSocket
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{path: path, ln: ln, handler: h}, nil
}

func (s *Server) Path() string { return s.path }

// Serve accepts connections until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	defer func() {
		s.wg.Wait()
		os.Remove(s.path)
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn("Failed to accept", "err", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(time.Minute))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		log.Warn("Failed to decode request", "err", err)
		return
	}
	log.Debug("IPC request", "cmd", req.Cmd, "args", req.Args)

	rep := s.handler(ctx, req)
	if err := json.NewEncoder(conn).Encode(rep); err != nil {
		log.Warn("Failed to send reply", "err", err)
	}
}

// Send delivers one request to the daemon at path and waits for its reply.
func Send(ctx context.Context, path string, req Request) (Reply, error) {
	if path == "" {
		path = DefaultSocket
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send: %w", err)
	}

	var rep Reply
	if err := json.NewDecoder(conn).Decode(&rep); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return rep, nil
}
