package session

import (
	"sync"
)

const Greeting = "J.A.R.V.I.S. Online. All systems nominal. All environmental sensors active. How may I assist you, sir?"

// State is the conversational session: transcript, active panel, flags and
// the per-session collections. All methods are safe for concurrent use and
// hand out copies.
type State struct {
	mu sync.Mutex

	user *User

	transcript []Utterance
	panel      Panel
	theme      Theme

	listening bool
	speaking  bool
	scanning  bool

	tasks     []Task
	reminders []Reminder
	metrics   Metrics

	email    EmailDraft
	search   []SearchResult
	media    Media
	scan     []string
	calendar SyncStatus
}

func New(theme Theme) *State {
	return &State{
		transcript: []Utterance{{Role: RoleAssistant, Text: Greeting}},
		theme:      theme,
		metrics:    DefaultMetrics,
	}
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	User       *User
	Transcript []Utterance
	Panel      Panel
	Theme      Theme
	Listening  bool
	Speaking   bool
	Scanning   bool
	Tasks      []Task
	Reminders  []Reminder
	Metrics    Metrics
	Email      EmailDraft
	Search     []SearchResult
	Media      Media
	Scan       []string
	Calendar   SyncStatus
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *User
	if s.user != nil {
		u := *s.user
		user = &u
	}

	return Snapshot{
		User:       user,
		Transcript: append([]Utterance(nil), s.transcript...),
		Panel:      s.panel,
		Theme:      s.theme,
		Listening:  s.listening,
		Speaking:   s.speaking,
		Scanning:   s.scanning,
		Tasks:      append([]Task(nil), s.tasks...),
		Reminders:  append([]Reminder(nil), s.reminders...),
		Metrics:    s.metrics,
		Email:      s.email,
		Search:     append([]SearchResult(nil), s.search...),
		Media:      s.media,
		Scan:       append([]string(nil), s.scan...),
		Calendar:   s.calendar,
	}
}

// PendingTasks counts tasks not yet completed.
func (s Snapshot) PendingTasks() int {
	n := 0
	for _, t := range s.Tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// ActiveReminders returns reminders that have not fired yet.
func (s Snapshot) ActiveReminders() []Reminder {
	var out []Reminder
	for _, r := range s.Reminders {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

func (s *State) Append(role Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, Utterance{Role: role, Text: text})
}

func (s *State) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *State) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	cp := *u
	s.user = &cp
}

func (s *State) Panel() Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel
}

// SetPanel replaces the active panel. There are no transition guards.
func (s *State) SetPanel(p Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel = p
}

func (s *State) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *State) SetTheme(t Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = t
}

func (s *State) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *State) SetListening(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = v
}

func (s *State) SetSpeaking(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaking = v
}

func (s *State) SetScanning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = v
}

func (s *State) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func (s *State) SetMetrics(m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

func (s *State) Email() EmailDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

func (s *State) SetEmail(d EmailDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = d
}

func (s *State) SetSearch(results []SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = append([]SearchResult(nil), results...)
}

func (s *State) SetMedia(m Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media = m
}

// SetScanResults stores the files of the last scan and clears the scanning flag.
func (s *State) SetScanResults(files []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scan = append([]string(nil), files...)
	s.scanning = false
}

func (s *State) CalendarStatus() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calendar
}

func (s *State) SetCalendarStatus(v SyncStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendar = v
}

// Reset returns the session to its terminal state after close or sign-out.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.panel = PanelNone
	s.listening = false
	s.speaking = false
	s.scanning = false
	s.tasks = nil
}
