package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStartsWithGreeting(t *testing.T) {
	s := New(ThemeDefault)
	snap := s.Snapshot()

	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, RoleAssistant, snap.Transcript[0].Role)
	assert.Equal(t, Greeting, snap.Transcript[0].Text)
	assert.Equal(t, PanelNone, snap.Panel)
	assert.Equal(t, DefaultMetrics, snap.Metrics)
}

func TestTranscriptKeepsSendOrder(t *testing.T) {
	s := New(ThemeDefault)
	s.Append(RoleUser, "one")
	s.Append(RoleAssistant, "two")
	s.Append(RoleUser, "three")

	var texts []string
	for _, u := range s.Snapshot().Transcript[1:] {
		texts = append(texts, u.Text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New(ThemeDefault)
	s.AddTask("a", PriorityLow)
	snap := s.Snapshot()
	snap.Tasks[0].Title = "mutated"
	snap.Transcript[0].Text = "mutated"

	assert.Equal(t, "a", s.Tasks()[0].Title)
	assert.Equal(t, Greeting, s.Snapshot().Transcript[0].Text)
}

func TestPanelIsSingleAndLastWriteWins(t *testing.T) {
	s := New(ThemeDefault)
	s.SetPanel(PanelEmail)
	s.SetPanel(PanelMedia)
	assert.Equal(t, PanelMedia, s.Panel())

	s.SetPanel(PanelNone)
	assert.Equal(t, PanelNone, s.Panel())
}

func TestParsePanel(t *testing.T) {
	cases := map[string]Panel{
		"tasks":   PanelTasks,
		"Scanner": PanelScanner,
		"youtube": PanelMedia,
		"none":    PanelNone,
		"":        PanelNone,
	}
	for in, want := range cases {
		got, ok := ParsePanel(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParsePanel("calendar")
	assert.False(t, ok)
}

func TestParsePriorityDefaultsToMedium(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
	assert.Equal(t, PriorityMedium, ParsePriority("urgent"))
}

func TestParseTaskInput(t *testing.T) {
	title, p := ParseTaskInput("fix the suit priority high")
	assert.Equal(t, "fix the suit", title)
	assert.Equal(t, PriorityHigh, p)

	title, p = ParseTaskInput("  buy coffee ")
	assert.Equal(t, "buy coffee", title)
	assert.Equal(t, PriorityMedium, p)
}

func TestAddTaskTwiceGivesTwoRecords(t *testing.T) {
	s := New(ThemeDefault)
	a := s.AddTask("call mom", "")
	b := s.AddTask("call mom", "")

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.Provisional())
	assert.Equal(t, PriorityMedium, a.Priority)
	assert.Len(t, s.Tasks(), 2)
}

func TestReconcileMatchesProvisionalIDAndKeepsPosition(t *testing.T) {
	s := New(ThemeDefault)
	first := s.AddTask("first", PriorityLow)
	second := s.AddTask("second", PriorityHigh)
	third := s.AddTask("third", PriorityMedium)

	ok := s.ReconcileTask(second.ID, Task{ID: "42", Title: "second"})
	require.True(t, ok)

	tasks := s.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, "42", tasks[1].ID)
	assert.Equal(t, PriorityHigh, tasks[1].Priority)
	assert.False(t, tasks[1].Provisional())
	assert.Equal(t, third.ID, tasks[2].ID)

	assert.False(t, s.ReconcileTask("temp_missing", Task{ID: "43"}))
}

func TestToggleAndRemoveCompleted(t *testing.T) {
	s := New(ThemeDefault)
	a := s.AddTask("a", "")
	s.AddTask("b", "")

	got, ok := s.ToggleTask(a.ID)
	require.True(t, ok)
	assert.True(t, got.Completed)

	assert.Equal(t, 1, s.RemoveCompleted())
	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "b", tasks[0].Title)

	_, ok = s.ToggleTask("nope")
	assert.False(t, ok)
}

func TestFireReminderOnlyOnce(t *testing.T) {
	s := New(ThemeDefault)
	s.AddReminder(Reminder{ID: "r1", Text: "call mom", Due: time.Now(), Active: true})
	s.AddReminder(Reminder{ID: "r2", Text: "stand up", Due: time.Now(), Active: true})

	r, ok := s.FireReminder("r1")
	require.True(t, ok)
	assert.False(t, r.Active)

	_, ok = s.FireReminder("r1")
	assert.False(t, ok)

	snap := s.Snapshot()
	require.Len(t, snap.Reminders, 2)
	active := snap.ActiveReminders()
	require.Len(t, active, 1)
	assert.Equal(t, "r2", active[0].ID)
}

func TestResetReturnsToTerminalState(t *testing.T) {
	s := New(ThemeLight)
	s.SetUser(&User{ID: "u1"})
	s.SetPanel(PanelTasks)
	s.SetListening(true)
	s.SetSpeaking(true)
	s.AddTask("x", "")

	s.Reset()
	snap := s.Snapshot()
	assert.Nil(t, snap.User)
	assert.Equal(t, PanelNone, snap.Panel)
	assert.False(t, snap.Listening)
	assert.False(t, snap.Speaking)
	assert.Empty(t, snap.Tasks)
	assert.Equal(t, ThemeLight, snap.Theme)
}

func TestPendingTasks(t *testing.T) {
	s := New(ThemeDefault)
	a := s.AddTask("a", "")
	s.AddTask("b", "")
	s.AddTask("c", "")
	s.ToggleTask(a.ID)

	assert.Equal(t, 2, s.Snapshot().PendingTasks())
}

func TestProvisionalIDPrefix(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewProvisionalID(), ProvisionalPrefix))
}
