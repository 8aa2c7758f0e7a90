package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"jarvis/internal/assistant"
	"jarvis/internal/bridge"
	"jarvis/internal/session"
)

var errQuit = errors.New("quit")

type command struct {
	name string
	arg  string
}

// parseCommand splits "/name rest of line". ok is false for plain text.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(line[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

type handler struct {
	usage string
	run   func(ctx context.Context, a *assistant.Assistant, arg string) (string, error)
}

var commands = map[string]handler{
	"help":    {"list commands", nil},
	"quit":    {"leave the console", func(context.Context, *assistant.Assistant, string) (string, error) { return "", errQuit }},
	"listen":  {"start or stop listening", cmdListen},
	"panel":   {"<name|none> show a panel", cmdPanel},
	"theme":   {"toggle Stealth / Stark Industrial", cmdTheme},
	"task":    {"<title> add a directive (\"priority high\" marks it)", cmdTask},
	"done":    {"<n> toggle directive n", cmdDone},
	"purge":   {"remove completed directives", cmdPurge},
	"to":      {"<address> set the draft recipient", draftField(func(d *session.EmailDraft, v string) { d.To = v })},
	"subject": {"<text> set the draft subject", draftField(func(d *session.EmailDraft, v string) { d.Subject = v })},
	"body":    {"<text> set the draft body", draftField(func(d *session.EmailDraft, v string) { d.Body = v })},
	"send":    {"transmit the draft", cmdSend},
	"window":  {"<minimize|maximize|close> control the focused window", cmdWindow},
	"signout": {"end the session", cmdSignOut},
}

func helpText() string {
	names := []string{"help", "listen", "panel", "theme", "task", "done", "purge", "to", "subject", "body", "send", "window", "signout", "quit"}
	var b strings.Builder
	b.WriteString("Console commands:\n\n")
	for _, n := range names {
		fmt.Fprintf(&b, "- `/%s` %s\n", n, commands[n].usage)
	}
	return b.String()
}

// execute runs cmd and returns a status line for the footer.
func execute(ctx context.Context, a *assistant.Assistant, cmd command) (string, error) {
	h, ok := commands[cmd.name]
	if !ok {
		return "", fmt.Errorf("unknown command /%s, try /help", cmd.name)
	}
	if h.run == nil {
		return "", nil
	}
	return h.run(ctx, a, cmd.arg)
}

func cmdListen(_ context.Context, a *assistant.Assistant, _ string) (string, error) {
	if err := a.ToggleListening(); err != nil {
		if errors.Is(err, assistant.ErrNoListener) {
			return "", errors.New("voice input offline, start with --voice")
		}
		return "", err
	}
	if a.Snapshot().Listening {
		return "listening...", nil
	}
	return "listening stopped", nil
}

func cmdPanel(_ context.Context, a *assistant.Assistant, arg string) (string, error) {
	p, ok := session.ParsePanel(arg)
	if !ok {
		return "", fmt.Errorf("unknown panel %q", arg)
	}
	a.ShowPanel(p)
	return "panel " + p.String(), nil
}

func cmdTheme(_ context.Context, a *assistant.Assistant, _ string) (string, error) {
	return "theme " + string(a.ToggleTheme()), nil
}

func cmdTask(_ context.Context, a *assistant.Assistant, arg string) (string, error) {
	t, err := a.AddTask(arg)
	if err != nil {
		return "", err
	}
	a.ShowPanel(session.PanelTasks)
	return fmt.Sprintf("directive %q added (%s)", t.Title, t.Priority), nil
}

// taskAt resolves a 1-based index into the current task list.
func taskAt(s session.Snapshot, arg string) (session.Task, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(s.Tasks) {
		return session.Task{}, fmt.Errorf("no directive %q", arg)
	}
	return s.Tasks[n-1], nil
}

func cmdDone(_ context.Context, a *assistant.Assistant, arg string) (string, error) {
	t, err := taskAt(a.Snapshot(), arg)
	if err != nil {
		return "", err
	}
	if err := a.ToggleTask(t.ID); err != nil {
		return "", err
	}
	return "toggled " + strconv.Quote(t.Title), nil
}

func cmdPurge(ctx context.Context, a *assistant.Assistant, _ string) (string, error) {
	if err := a.ClearCompleted(ctx); err != nil {
		return "", err
	}
	return "completed directives purged", nil
}

func draftField(set func(*session.EmailDraft, string)) func(context.Context, *assistant.Assistant, string) (string, error) {
	return func(_ context.Context, a *assistant.Assistant, arg string) (string, error) {
		d := a.Snapshot().Email
		set(&d, arg)
		a.SetEmail(d)
		a.ShowPanel(session.PanelEmail)
		return "draft updated", nil
	}
}

func cmdSend(_ context.Context, a *assistant.Assistant, _ string) (string, error) {
	if err := a.SendEmail(); err != nil {
		return "", err
	}
	return "transmitting...", nil
}

func cmdWindow(ctx context.Context, a *assistant.Assistant, arg string) (string, error) {
	op, ok := bridge.ParseWindowOp(arg)
	if !ok {
		return "", fmt.Errorf("unknown window op %q", arg)
	}
	if err := a.Window(ctx, op); err != nil {
		return "", err
	}
	return "window " + strings.ToLower(string(op)), nil
}

func cmdSignOut(ctx context.Context, a *assistant.Assistant, _ string) (string, error) {
	if err := a.SignOut(ctx); err != nil {
		return "", err
	}
	return "signed out", nil
}
