package bridge

import (
	"context"
	log "log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"jarvis/pkg/protocol"
)

// Server answers protocol requests by calling a local Bridge.
type Server struct {
	bridge   Bridge
	shard    string
	upgrader websocket.Upgrader
}

func NewServer(b Bridge) *Server {
	return &Server{
		bridge: b,
		shard:  ServerShard,
		upgrader: websocket.Upgrader{CheckOrigin: noOrigin},
	}
}

// noOrigin admits only clients that send no Origin header. Browsers always
// send one, so web pages cannot reach the bridge on loopback.
func noOrigin(r *http.Request) bool {
	if origin := r.Header.Get("Origin"); origin != "" {
		log.Warn("Rejected bridge upgrade", "origin", origin, "remote", r.RemoteAddr)
		return false
	}
	return true
}

// Handle executes one request and builds its reply.
func (s *Server) Handle(ctx context.Context, req *protocol.Message) *protocol.Message {
	rep := req.Reply()

	switch {
	case req.Verb == verbGet && req.Noun == nounVolume:
		rep.Ok(nounVolume, strconv.Itoa(s.bridge.GetVolume(ctx)))

	case req.Verb == verbSet && (req.Noun == nounVolume || req.Noun == nounBrightness):
		if len(req.Args) != 1 {
			rep.Error(errBadArg)
			break
		}
		level, err := strconv.Atoi(req.Args[0])
		if err != nil {
			rep.Error(errBadArg, req.Args[0])
			break
		}
		if req.Noun == nounVolume {
			err = s.bridge.SetVolume(ctx, level)
		} else {
			err = s.bridge.SetBrightness(ctx, level)
		}
		if err != nil {
			log.Warn("Bridge op failed", "noun", req.Noun, "err", err)
			rep.Error(errFailed)
			break
		}
		rep.Ok(req.Noun, strconv.Itoa(level))

	case req.Verb == verbWindow:
		op, ok := ParseWindowOp(req.Noun)
		if !ok {
			rep.Error(errBadArg, req.Noun)
			break
		}
		if err := s.bridge.Window(ctx, op); err != nil {
			log.Warn("Window op failed", "op", op, "err", err)
			rep.Error(errFailed)
			break
		}
		rep.Ok(string(op))

	case req.Verb == verbGet && req.Noun == nounMetrics:
		rep.Ok(nounMetrics, encodeMetrics(s.bridge.GetMetrics(ctx))...)

	case req.Verb == verbLaunch && req.Noun == nounApp:
		name, err := singleArg(req)
		if err != nil {
			rep.Error(errBadArg)
			break
		}
		if err := s.bridge.LaunchApp(ctx, name); err != nil {
			log.Warn("Launch failed", "app", name, "err", err)
			rep.Error(errFailed)
			break
		}
		rep.Ok(nounApp)

	case req.Verb == verbScan && req.Noun == nounDir:
		path, err := singleArg(req)
		if err != nil {
			rep.Error(errBadArg)
			break
		}
		files := s.bridge.ScanDirectory(ctx, path)
		args := make([]string, 0, len(files))
		for _, f := range files {
			args = append(args, encodeArg(f))
		}
		rep.Ok(nounDir, args...)

	default:
		rep.Error(errUnknown, req.Verb, req.Noun)
	}

	return rep
}

func singleArg(req *protocol.Message) (string, error) {
	if len(req.Args) != 1 {
		return "", &RemoteError{Reason: errBadArg}
	}
	return decodeArg(req.Args[0])
}

// ServeHTTP upgrades to a websocket and serves requests addressed to the
// bridge shard until the peer disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Failed to upgrade", "err", err)
		return
	}
	defer conn.Close()

	log.Info("Bridge client connected", "remote", r.RemoteAddr)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Debug("Bridge client gone", "err", err)
			return
		}

		req, err := protocol.Parse(string(raw))
		if err != nil {
			log.Warn("Failed to parse", "msg", string(raw), "err", err)
			continue
		}
		if req.To != s.shard {
			continue
		}

		rep := s.Handle(r.Context(), req)
		if err := conn.WriteMessage(websocket.TextMessage, []byte(rep.String())); err != nil {
			log.Warn("Failed to reply", "err", err)
			return
		}
	}
}
