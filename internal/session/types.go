package session

import (
	"strings"
	"time"
)

type Panel string

const (
	PanelNone    Panel = ""
	PanelEmail   Panel = "email"
	PanelTasks   Panel = "tasks"
	PanelSearch  Panel = "search"
	PanelMedia   Panel = "media"
	PanelSystem  Panel = "system"
	PanelScanner Panel = "scanner"
)

var panels = []Panel{PanelEmail, PanelTasks, PanelSearch, PanelMedia, PanelSystem, PanelScanner}

// Panels lists every panel that can be shown, in sidebar order.
func Panels() []Panel {
	return append([]Panel(nil), panels...)
}

// ParsePanel accepts a panel name; "none", "" and "close" map to PanelNone.
func ParsePanel(s string) (Panel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "close":
		return PanelNone, true
	case "youtube":
		return PanelMedia, true
	}
	for _, p := range panels {
		if string(p) == s {
			return p, true
		}
	}
	return PanelNone, false
}

func (p Panel) String() string {
	if p == PanelNone {
		return "none"
	}
	return string(p)
}

type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeLight   Theme = "light"
)

func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeLight)) {
		return ThemeLight
	}
	return ThemeDefault
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Utterance struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority never fails: anything unknown is Medium.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

type Task struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
}

// Provisional reports whether the task id has not been confirmed by a store yet.
func (t Task) Provisional() bool {
	return strings.HasPrefix(t.ID, ProvisionalPrefix)
}

type Reminder struct {
	ID     string    `json:"id"`
	Text   string    `json:"text"`
	Due    time.Time `json:"due"`
	Active bool      `json:"active"`
}

type Metrics struct {
	CPU  int     `json:"cpu"`
	RAM  int     `json:"ram"`
	Temp float64 `json:"temp"`
}

// DefaultMetrics is reported before the first sample and on bridge failure.
var DefaultMetrics = Metrics{CPU: 0, RAM: 0, Temp: 45}

type EmailDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

type Media struct {
	Query   string `json:"query"`
	VideoID string `json:"video_id,omitempty"`
}

type SyncStatus string

const (
	SyncIdle    SyncStatus = ""
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email,omitempty"`
	AccessToken   string `json:"-"`
	ProviderToken string `json:"-"`
}
