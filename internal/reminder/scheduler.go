// Package reminder arms one-shot timers for session reminders.
package reminder

import (
	log "log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"jarvis/internal/session"
)

// FireFunc runs on its own goroutine when a reminder is due.
type FireFunc func(session.Reminder)

// Scheduler has no cancellation for single reminders. Stop drops every armed
// reminder at shutdown.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	now     func() time.Time
}

func New() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// Schedule arms a reminder due minutes from now and returns immediately.
func (s *Scheduler) Schedule(text string, minutes float64, fire FireFunc) session.Reminder {
	delay := delayFor(minutes)

	rem := session.Reminder{
		ID:     uuid.NewString(),
		Text:   text,
		Due:    s.now().Add(delay),
		Active: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		log.Warn("Scheduler stopped, reminder dropped", "text", text)
		return rem
	}

	s.timers[rem.ID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, armed := s.timers[rem.ID]
		delete(s.timers, rem.ID)
		s.mu.Unlock()

		if !armed {
			return
		}
		log.Info("Reminder due", "id", rem.ID, "text", rem.Text)
		fire(rem)
	})

	log.Debug("Reminder armed", "id", rem.ID, "due", rem.Due)
	return rem
}

// delayFor converts minutes to a timer delay in [0, math.MaxInt64].
func delayFor(minutes float64) time.Duration {
	ns := minutes * float64(time.Minute)
	switch {
	case ns >= math.MaxInt64:
		return math.MaxInt64
	case ns > 0:
		return time.Duration(ns)
	}
	return 0
}

// Pending is the number of armed reminders that have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.stopped = true
}
