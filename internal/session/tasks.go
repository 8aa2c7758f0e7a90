package session

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const ProvisionalPrefix = "temp_"

// NewProvisionalID returns an id for a task the store has not acknowledged.
func NewProvisionalID() string {
	return ProvisionalPrefix + uuid.NewString()
}

var priorityHighRe = regexp.MustCompile(`(?i)priority high`)

// ParseTaskInput handles the manual task box: a "priority high" marker
// anywhere in the text raises the priority and is removed from the title.
func ParseTaskInput(raw string) (string, Priority) {
	if priorityHighRe.MatchString(raw) {
		loc := priorityHighRe.FindStringIndex(raw)
		title := raw[:loc[0]] + raw[loc[1]:]
		return strings.TrimSpace(title), PriorityHigh
	}
	return strings.TrimSpace(raw), PriorityMedium
}

func (s *State) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

func (s *State) SetTasks(tasks []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t.Priority = ParsePriority(string(t.Priority))
		s.tasks = append(s.tasks, t)
	}
}

// AddTask appends an optimistic task and returns it. No deduplication by title.
func (s *State) AddTask(title string, p Priority) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{
		ID:       NewProvisionalID(),
		Title:    strings.TrimSpace(title),
		Priority: ParsePriority(string(p)),
	}
	s.tasks = append(s.tasks, t)
	return t
}

// ReconcileTask swaps the provisional id for the stored record in place.
// It matches on the provisional id, never on position.
func (s *State) ReconcileTask(provisionalID string, stored Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != provisionalID {
			continue
		}
		if stored.Priority == "" {
			stored.Priority = s.tasks[i].Priority
		}
		stored.Priority = ParsePriority(string(stored.Priority))
		s.tasks[i] = stored
		return true
	}
	return false
}

// ToggleTask flips completion and returns the updated task.
func (s *State) ToggleTask(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			return s.tasks[i], true
		}
	}
	return Task{}, false
}

// RemoveCompleted drops completed tasks and reports how many were removed.
func (s *State) RemoveCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.Completed {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	return removed
}

func (s *State) AddReminder(r Reminder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders = append(s.reminders, r)
}

// FireReminder marks the reminder inactive. It returns false when the
// reminder is unknown or already fired, so a reminder fires at most once.
func (s *State) FireReminder(id string) (Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.reminders {
		if s.reminders[i].ID != id {
			continue
		}
		if !s.reminders[i].Active {
			return s.reminders[i], false
		}
		s.reminders[i].Active = false
		return s.reminders[i], true
	}
	return Reminder{}, false
}

func (s *State) Reminders() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reminder(nil), s.reminders...)
}
