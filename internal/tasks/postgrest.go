package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"jarvis/internal/session"
)

const table = "tasks"

// PostgREST stores tasks in the "tasks" table of a Supabase project.
type PostgREST struct {
	base   string
	apiKey string
}

func NewPostgREST(projectURL, apiKey string) *PostgREST {
	return &PostgREST{
		base:   strings.TrimRight(projectURL, "/") + "/rest/v1",
		apiKey: apiKey,
	}
}

// client authenticates as u, or as the anon key when u has no token. A
// client is built per call so concurrent users never share headers.
func (p *PostgREST) client(u session.User) *postgrest.Client {
	token := u.AccessToken
	if token == "" {
		token = p.apiKey
	}
	return postgrest.NewClient(p.base, "public", map[string]string{
		"apikey":        p.apiKey,
		"Authorization": "Bearer " + token,
	})
}

type row struct {
	ID        rowID  `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority,omitempty"`
}

// rowID accepts both the bigint and uuid id column flavours.
type rowID string

func (id *rowID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = rowID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = rowID(n.String())
	return nil
}

func (r row) task() session.Task {
	return session.Task{
		ID:        string(r.ID),
		Title:     r.Title,
		Completed: r.Completed,
		Priority:  session.ParsePriority(r.Priority),
	}
}

func (p *PostgREST) List(ctx context.Context, u session.User) ([]session.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []row
	_, err := p.client(u).From(table).
		Select("*", "", false).
		Eq("user_id", u.ID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("postgrest list: %w", err)
	}

	out := make([]session.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.task())
	}
	return out, nil
}

// Insert writes the row without priority and patches priority afterwards,
// so tables created without a priority column still accept new tasks.
func (p *PostgREST) Insert(ctx context.Context, u session.User, t session.Task) (session.Task, error) {
	if err := ctx.Err(); err != nil {
		return session.Task{}, err
	}

	body := []map[string]any{{
		"title":     t.Title,
		"user_id":   u.ID,
		"completed": t.Completed,
	}}

	var rows []row
	_, err := p.client(u).From(table).
		Insert(body, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return session.Task{}, fmt.Errorf("postgrest insert: %w", err)
	}
	if len(rows) == 0 {
		return session.Task{}, fmt.Errorf("insert returned no rows")
	}

	stored := rows[0].task()
	stored.Priority = session.ParsePriority(string(t.Priority))
	if err := p.Update(ctx, u, stored.ID, WithPriority(stored.Priority)); err != nil {
		log.Debug("Priority not stored", "id", stored.ID, "err", err)
	}
	return stored, nil
}

func (p *PostgREST) Update(ctx context.Context, u session.User, id string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.client(u).From(table).
		Update(patch, "minimal", "").
		Eq("id", id).
		Eq("user_id", u.ID).
		Execute()
	if err != nil {
		return fmt.Errorf("postgrest update: %w", err)
	}
	return nil
}

func (p *PostgREST) DeleteCompleted(ctx context.Context, u session.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := p.client(u).From(table).
		Delete("minimal", "").
		Eq("user_id", u.ID).
		Eq("completed", "true").
		Execute()
	if err != nil {
		return fmt.Errorf("postgrest delete: %w", err)
	}
	return nil
}

func (p *PostgREST) Close() error { return nil }
