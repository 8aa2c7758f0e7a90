package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"jarvis/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0,
	priority   TEXT NOT NULL DEFAULT 'Medium',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_user ON tasks(user_id, created_at);
`

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and creates if needed) the task database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) List(ctx context.Context, u session.User) ([]session.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, completed, priority FROM tasks WHERE user_id = ? ORDER BY created_at, rowid", u.ID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []session.Task
	for rows.Next() {
		var t session.Task
		var prio string
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &prio); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		t.Priority = session.ParsePriority(prio)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (s *SQLite) Insert(ctx context.Context, u session.User, t session.Task) (session.Task, error) {
	stored := session.Task{
		ID:        uuid.NewString(),
		Title:     t.Title,
		Completed: t.Completed,
		Priority:  session.ParsePriority(string(t.Priority)),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, user_id, title, completed, priority, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		stored.ID, u.ID, stored.Title, stored.Completed, string(stored.Priority), s.now().UnixNano())
	if err != nil {
		return session.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return stored, nil
}

func (s *SQLite) Update(ctx context.Context, u session.User, id string, p Patch) error {
	if p.Completed == nil && p.Priority == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var n int64
	if p.Completed != nil {
		res, err := tx.ExecContext(ctx, "UPDATE tasks SET completed = ? WHERE id = ? AND user_id = ?", *p.Completed, id, u.ID)
		if err != nil {
			return fmt.Errorf("update completed: %w", err)
		}
		n, _ = res.RowsAffected()
	}
	if p.Priority != nil {
		prio := session.ParsePriority(string(*p.Priority))
		res, err := tx.ExecContext(ctx, "UPDATE tasks SET priority = ? WHERE id = ? AND user_id = ?", string(prio), id, u.ID)
		if err != nil {
			return fmt.Errorf("update priority: %w", err)
		}
		n, _ = res.RowsAffected()
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLite) DeleteCompleted(ctx context.Context, u session.User) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE user_id = ? AND completed = 1", u.ID); err != nil {
		return fmt.Errorf("delete completed: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
