package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jarvis/internal/bridge"
	"jarvis/internal/session"
)

// Controller is the part of the assistant the control channel drives.
type Controller interface {
	ToggleListening() error
	Send(ctx context.Context, text string) (string, error)
	ShowPanel(p session.Panel)
	ToggleTheme() session.Theme
	SignOut(ctx context.Context) error
	Snapshot() session.Snapshot
	Window(ctx context.Context, op bridge.WindowOp) error
}

// Status is the payload of the state command.
type Status struct {
	User      string          `json:"user,omitempty"`
	Panel     string          `json:"panel"`
	Theme     session.Theme   `json:"theme"`
	Listening bool            `json:"listening"`
	Speaking  bool            `json:"speaking"`
	Scanning  bool            `json:"scanning"`
	Pending   int             `json:"pending"`
	Reminders int             `json:"reminders"`
	Metrics   session.Metrics `json:"metrics"`
	Last      string          `json:"last,omitempty"`
}

func StatusOf(s session.Snapshot) Status {
	st := Status{
		Panel:     s.Panel.String(),
		Theme:     s.Theme,
		Listening: s.Listening,
		Speaking:  s.Speaking,
		Scanning:  s.Scanning,
		Pending:   s.PendingTasks(),
		Reminders: len(s.ActiveReminders()),
		Metrics:   s.Metrics,
	}
	if s.User != nil {
		st.User = s.User.ID
	}
	if n := len(s.Transcript); n > 0 {
		st.Last = s.Transcript[n-1].Text
	}
	return st
}

// NewHandler maps control commands onto c.
func NewHandler(c Controller) Handler {
	return func(ctx context.Context, req Request) Reply {
		arg := strings.TrimSpace(strings.Join(req.Args, " "))

		switch req.Cmd {
		case CmdTrigger:
			if err := c.ToggleListening(); err != nil {
				return Fail(err)
			}
			if c.Snapshot().Listening {
				return Ok("listening")
			}
			return Ok("idle")

		case CmdSay:
			if arg == "" {
				return Fail(fmt.Errorf("say: empty text"))
			}
			reply, err := c.Send(ctx, arg)
			if err != nil {
				return Fail(err)
			}
			return Ok(reply)

		case CmdPanel:
			p, ok := session.ParsePanel(arg)
			if !ok {
				return Fail(fmt.Errorf("unknown panel %q", arg))
			}
			c.ShowPanel(p)
			return Ok(p.String())

		case CmdTheme:
			return Ok(string(c.ToggleTheme()))

		case CmdSignOut:
			if err := c.SignOut(ctx); err != nil {
				return Fail(err)
			}
			return Ok("signed out")

		case CmdState:
			data, err := json.Marshal(StatusOf(c.Snapshot()))
			if err != nil {
				return Fail(err)
			}
			return Reply{OK: true, Data: data}

		case CmdWindow:
			op, ok := bridge.ParseWindowOp(arg)
			if !ok {
				return Fail(fmt.Errorf("unknown window op %q", arg))
			}
			if err := c.Window(ctx, op); err != nil {
				return Fail(err)
			}
			return Ok(strings.ToLower(string(op)))

		default:
			return Fail(fmt.Errorf("unknown command %q", req.Cmd))
		}
	}
}
