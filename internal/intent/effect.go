package intent

import "jarvis/internal/session"

// Effect is a side effect requested by the router. The assistant applies
// effects in order after the reply has been decided.
type Effect interface {
	effect()
}

// ResolveMedia asks for the query to be resolved to a video id.
type ResolveMedia struct {
	Query string
}

type ShowSearch struct {
	Query   string
	Results []session.SearchResult
}

// DraftEmail asks for a draft to be generated from the whole utterance.
type DraftEmail struct {
	Utterance string
}

type ScheduleReminder struct {
	Text    string
	Minutes float64
}

type AddTask struct {
	Title    string
	Priority session.Priority
}

type SetVolume struct {
	Level int
}

type SetBrightness struct {
	Level int
}

type LaunchApp struct {
	Name string
}

type SetTheme struct {
	Theme session.Theme
}

// ScanDirectory enumerates Path. Simulated scans never touch the bridge.
type ScanDirectory struct {
	Path      string
	Simulated bool
}

func (ResolveMedia) effect()     {}
func (ShowSearch) effect()       {}
func (DraftEmail) effect()       {}
func (ScheduleReminder) effect() {}
func (AddTask) effect()          {}
func (SetVolume) effect()        {}
func (SetBrightness) effect()    {}
func (LaunchApp) effect()        {}
func (SetTheme) effect()         {}
func (ScanDirectory) effect()    {}
