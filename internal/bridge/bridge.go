// Package bridge exposes the fixed set of privileged OS operations the
// assistant can request: audio volume, display brightness, window control,
// system metrics, application launch and directory listing.
//
// A nil Bridge means no privileged process is bound; callers degrade to
// simulated or no-op behaviour.
package bridge

import (
	"context"
	"strings"

	"jarvis/internal/session"
)

const (
	DefaultVolume  = 50
	MaxScanResults = 50
)

type WindowOp string

const (
	WindowMinimize WindowOp = "MINIMIZE"
	WindowMaximize WindowOp = "MAXIMIZE"
	WindowClose    WindowOp = "CLOSE"
)

func ParseWindowOp(s string) (WindowOp, bool) {
	switch WindowOp(strings.ToUpper(strings.TrimSpace(s))) {
	case WindowMinimize:
		return WindowMinimize, true
	case WindowMaximize:
		return WindowMaximize, true
	case WindowClose:
		return WindowClose, true
	}
	return "", false
}

// Bridge is the privileged operation set. Reads never fail: GetVolume falls
// back to DefaultVolume, GetMetrics to session.DefaultMetrics and
// ScanDirectory to an empty list.
type Bridge interface {
	GetVolume(ctx context.Context) int
	SetVolume(ctx context.Context, level int) error
	SetBrightness(ctx context.Context, level int) error
	Window(ctx context.Context, op WindowOp) error
	GetMetrics(ctx context.Context) session.Metrics
	LaunchApp(ctx context.Context, name string) error
	ScanDirectory(ctx context.Context, path string) []string
}

// DefaultApps maps spoken names to launch commands.
var DefaultApps = map[string]string{
	"chrome":     "google-chrome",
	"firefox":    "firefox",
	"notepad":    "gedit",
	"calc":       "gnome-calculator",
	"code":       "code",
	"terminal":   "x-terminal-emulator",
	"powershell": "x-terminal-emulator",
}

func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
