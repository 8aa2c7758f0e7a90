package bridge

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"

	"jarvis/internal/session"
	"jarvis/pkg/protocol"
)

// Remote forwards bridge calls to a jarvis-bridge process.
type Remote struct {
	client *protocol.Client
}

func NewRemote(c *protocol.Client) *Remote {
	return &Remote{client: c}
}

func (r *Remote) call(ctx context.Context, verb, noun string, args ...string) (*protocol.Message, error) {
	rep, err := r.client.Request(ctx, protocol.NewMessage(ServerShard, verb, noun, args...))
	if err != nil {
		return nil, fmt.Errorf("bridge %s %s: %w", verb, noun, err)
	}
	if err := replyErr(rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *Remote) GetVolume(ctx context.Context) int {
	rep, err := r.call(ctx, verbGet, nounVolume)
	if err != nil || len(rep.Args) != 1 {
		log.Warn("Failed to read volume", "err", err)
		return DefaultVolume
	}
	v, err := strconv.Atoi(rep.Args[0])
	if err != nil {
		return DefaultVolume
	}
	return v
}

func (r *Remote) SetVolume(ctx context.Context, level int) error {
	_, err := r.call(ctx, verbSet, nounVolume, strconv.Itoa(level))
	return err
}

func (r *Remote) SetBrightness(ctx context.Context, level int) error {
	_, err := r.call(ctx, verbSet, nounBrightness, strconv.Itoa(level))
	return err
}

func (r *Remote) Window(ctx context.Context, op WindowOp) error {
	_, err := r.call(ctx, verbWindow, string(op))
	return err
}

func (r *Remote) GetMetrics(ctx context.Context) session.Metrics {
	rep, err := r.call(ctx, verbGet, nounMetrics)
	if err != nil {
		log.Warn("Failed to read metrics", "err", err)
		return session.DefaultMetrics
	}
	m, err := decodeMetrics(rep.Args)
	if err != nil {
		log.Warn("Malformed metrics", "args", rep.Args, "err", err)
		return session.DefaultMetrics
	}
	return m
}

func (r *Remote) LaunchApp(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("empty app name")
	}
	_, err := r.call(ctx, verbLaunch, nounApp, encodeArg(name))
	return err
}

func (r *Remote) ScanDirectory(ctx context.Context, path string) []string {
	if path == "" {
		return []string{}
	}
	rep, err := r.call(ctx, verbScan, nounDir, encodeArg(path))
	if err != nil {
		log.Warn("Failed to scan", "path", path, "err", err)
		return []string{}
	}

	files := make([]string, 0, len(rep.Args))
	for _, a := range rep.Args {
		f, err := decodeArg(a)
		if err != nil {
			continue
		}
		files = append(files, f)
		if len(files) >= MaxScanResults {
			break
		}
	}
	return files
}
