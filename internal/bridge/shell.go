package bridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	percentRe = regexp.MustCompile(`(\d+)\s*%`)
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Shell runs the bridge operations against the local Linux desktop:
// PulseAudio/PipeWire through pactl, brightnessctl, sway and gopsutil.
type Shell struct {
	apps map[string]string

	run   runFunc
	start func(name string, args ...string) error

	stats hostStats

	mu sync.Mutex
}

func mergeApps(apps map[string]string) map[string]string {
	merged := make(map[string]string, len(DefaultApps)+len(apps))
	for k, v := range DefaultApps {
		merged[k] = v
	}
	for k, v := range apps {
		merged[strings.ToLower(k)] = v
	}
	return merged
}

func NewShell(apps map[string]string) *Shell {
	return &Shell{
		apps:  mergeApps(apps),
		run:   runCommand,
		start: startDetached,
		stats: gopsutilStats,
	}
}

func (s *Shell) GetVolume(ctx context.Context) int {
	out, err := s.run(ctx, "pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		log.Warn("Failed to read volume", "err", err)
		return DefaultVolume
	}

	v, ok := parsePercent(string(out))
	if !ok {
		return DefaultVolume
	}
	return v
}

func (s *Shell) SetVolume(ctx context.Context, level int) error {
	arg := fmt.Sprintf("%d%%", ClampPercent(level))
	if _, err := s.run(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", arg); err != nil {
		return fmt.Errorf("pactl set-sink-volume: %w", err)
	}
	return nil
}

func (s *Shell) SetBrightness(ctx context.Context, level int) error {
	arg := fmt.Sprintf("%d%%", ClampPercent(level))
	if _, err := s.run(ctx, "brightnessctl", "set", arg); err != nil {
		return fmt.Errorf("brightnessctl set: %w", err)
	}
	return nil
}

func (s *Shell) Window(ctx context.Context, op WindowOp) error {
	var cmd []string
	switch op {
	case WindowMinimize:
		cmd = []string{"move", "scratchpad"}
	case WindowMaximize:
		cmd = []string{"fullscreen", "toggle"}
	case WindowClose:
		cmd = []string{"kill"}
	default:
		return fmt.Errorf("unknown window op %q", op)
	}

	if _, err := s.run(ctx, "swaymsg", cmd...); err != nil {
		return fmt.Errorf("swaymsg %s: %w", strings.Join(cmd, " "), err)
	}
	return nil
}

// SetApps replaces the launch table; DefaultApps stay underneath.
func (s *Shell) SetApps(apps map[string]string) {
	merged := mergeApps(apps)
	s.mu.Lock()
	s.apps = merged
	s.mu.Unlock()
}

func (s *Shell) LaunchApp(_ context.Context, name string) error {
	s.mu.Lock()
	bin, args := ResolveApp(s.apps, name)
	s.mu.Unlock()
	if bin == "" {
		return errors.New("empty app name")
	}
	if err := s.start(bin, args...); err != nil {
		return fmt.Errorf("launch %s: %w", bin, err)
	}
	return nil
}

// ResolveApp looks name up in the known-app table; unknown names become a
// literal xdg-open of the name.
func ResolveApp(apps map[string]string, name string) (string, []string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	if cmd, ok := apps[strings.ToLower(name)]; ok {
		fields := strings.Fields(cmd)
		if len(fields) > 0 {
			return fields[0], fields[1:]
		}
	}
	return "xdg-open", []string{name}
}

func (s *Shell) ScanDirectory(ctx context.Context, root string) []string {
	files, err := scanTree(ctx, root, MaxScanResults)
	if err != nil {
		log.Warn("Failed to scan directory", "path", root, "err", err)
		return []string{}
	}
	return files
}

func scanTree(ctx context.Context, root string, limit int) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	out := make([]string, 0, limit)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if path == root {
			return nil
		}
		out = append(out, path)
		if len(out) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- parsers ---

func parsePercent(text string) (int, bool) {
	m := percentRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// --- exec helpers ---

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug("Launched app exited", "app", name, "err", err)
		}
	}()
	return nil
}
