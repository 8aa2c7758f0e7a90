// Package tasks persists mission directives per user.
package tasks

import (
	"context"
	"errors"

	"jarvis/internal/session"
)

var ErrNotFound = errors.New("tasks: not found")

// Patch carries the fields an update changes; nil fields are left alone.
type Patch struct {
	Completed *bool             `json:"completed,omitempty"`
	Priority  *session.Priority `json:"priority,omitempty"`
}

// Store is scoped by the user passed on each call. Stores that talk to a
// remote service authenticate with the user's access token.
type Store interface {
	List(ctx context.Context, u session.User) ([]session.Task, error)
	// Insert stores t and returns it with its durable id.
	Insert(ctx context.Context, u session.User, t session.Task) (session.Task, error)
	Update(ctx context.Context, u session.User, id string, p Patch) error
	DeleteCompleted(ctx context.Context, u session.User) error
	Close() error
}

func Completed(v bool) Patch { return Patch{Completed: &v} }

func WithPriority(p session.Priority) Patch { return Patch{Priority: &p} }
