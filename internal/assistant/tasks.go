package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"jarvis/internal/calendar"
	"jarvis/internal/session"
	"jarvis/internal/tasks"
)

// AddTask adds a task from the manual input box.
func (a *Assistant) AddTask(raw string) (session.Task, error) {
	if a.State.User() == nil {
		return session.Task{}, ErrSignedOut
	}
	title, prio := session.ParseTaskInput(raw)
	if title == "" {
		return session.Task{}, ErrEmptyTask
	}
	return a.addTask(title, prio), nil
}

// addTask shows the task at once and persists it in the background. The
// provisional entry stays in place when the store rejects it.
func (a *Assistant) addTask(title string, prio session.Priority) session.Task {
	t := a.State.AddTask(title, prio)
	a.changed()

	a.syncCalendar(calendar.Event{Title: t.Title})

	u := a.State.User()
	if a.Tasks == nil || u == nil {
		return t
	}
	user := *u
	a.goBg(func(ctx context.Context) {
		stored, err := a.Tasks.Insert(ctx, user, t)
		if err != nil {
			log.Warn("Failed to store task", "title", t.Title, "err", err)
			return
		}
		if !a.State.ReconcileTask(t.ID, stored) {
			log.Debug("Task gone before reconcile", "id", t.ID)
		}
		a.changed()
	})
	return t
}

// ToggleTask flips completion locally and then in the store.
func (a *Assistant) ToggleTask(id string) error {
	u := a.State.User()
	if u == nil {
		return ErrSignedOut
	}
	t, ok := a.State.ToggleTask(id)
	if !ok {
		return fmt.Errorf("toggle %s: %w", id, tasks.ErrNotFound)
	}
	a.changed()

	if a.Tasks == nil || t.Provisional() {
		return nil
	}
	user := *u
	a.goBg(func(ctx context.Context) {
		if err := a.Tasks.Update(ctx, user, t.ID, tasks.Completed(t.Completed)); err != nil {
			log.Warn("Failed to update task", "id", t.ID, "err", err)
		}
	})
	return nil
}

// ClearCompleted deletes completed tasks from the store first; local tasks
// are only dropped when that succeeds.
func (a *Assistant) ClearCompleted(ctx context.Context) error {
	u := a.State.User()
	if u == nil {
		return ErrSignedOut
	}
	if a.Tasks != nil {
		if err := a.Tasks.DeleteCompleted(ctx, *u); err != nil {
			return fmt.Errorf("clear completed: %w", err)
		}
	}
	a.State.RemoveCompleted()
	a.changed()
	a.Say("Completed directives purged from the database, sir.")
	return nil
}

func (a *Assistant) loadTasks(ctx context.Context, u session.User) {
	if a.Tasks == nil {
		return
	}
	list, err := a.Tasks.List(ctx, u)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Warn("Failed to fetch tasks", "err", err)
		}
		return
	}
	a.State.SetTasks(list)
	a.changed()
}
