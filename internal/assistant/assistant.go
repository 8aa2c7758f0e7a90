// Package assistant runs the conversation: it routes utterances, applies
// the resulting effects to the session and speaks the replies.
package assistant

import (
	"context"
	"errors"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"jarvis/internal/auth"
	"jarvis/internal/bridge"
	"jarvis/internal/calendar"
	"jarvis/internal/intent"
	"jarvis/internal/llm"
	"jarvis/internal/reminder"
	"jarvis/internal/session"
	"jarvis/internal/speech"
	"jarvis/internal/tasks"
)

var (
	ErrSignedOut       = errors.New("assistant: signed out")
	ErrEmptyTask       = errors.New("assistant: empty task title")
	ErrDraftIncomplete = errors.New("assistant: draft needs recipient and body")
	ErrNoListener      = errors.New("assistant: no listener")
)

// Deps are the collaborators of an Assistant. Bridge, Tasks and Calendar
// may be nil: no OS binding, memory-only tasks and no calendar sync.
type Deps struct {
	State     *session.State
	Router    *intent.Router
	Completer llm.Completer
	Bridge    bridge.Bridge
	Tasks     tasks.Store
	Calendar  *calendar.Client
	Auth      auth.Provider
	Reminders *reminder.Scheduler
	Speaker   speech.Speaker
	Listener  speech.Listener
	Notifier  speech.Notifier
}

type Options struct {
	ScanDelay        time.Duration
	EmailDelay       time.Duration
	StatusClear      time.Duration
	GreetDelay       time.Duration
	RelistenDelay    time.Duration
	ReminderDuration time.Duration
	MetricsInterval  time.Duration

	// SaveTheme persists the theme choice.
	SaveTheme func(session.Theme) error
	// Changed is called after the session changed.
	Changed func()
}

func DefaultOptions() Options {
	return Options{
		ScanDelay:        3 * time.Second,
		EmailDelay:       2 * time.Second,
		StatusClear:      3 * time.Second,
		GreetDelay:       time.Second,
		RelistenDelay:    300 * time.Millisecond,
		ReminderDuration: 30 * time.Minute,
		MetricsInterval:  3 * time.Second,
	}
}

type Assistant struct {
	Deps
	opts Options

	voice *speech.Queue

	// one utterance is resolved at a time
	sendMu sync.Mutex

	listenMu     sync.Mutex
	listenCancel context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc

	bgMu   sync.Mutex
	closed bool
	bg     sync.WaitGroup
}

func New(d Deps, opts Options) *Assistant {
	def := DefaultOptions()
	if opts.ScanDelay <= 0 {
		opts.ScanDelay = def.ScanDelay
	}
	if opts.EmailDelay <= 0 {
		opts.EmailDelay = def.EmailDelay
	}
	if opts.StatusClear <= 0 {
		opts.StatusClear = def.StatusClear
	}
	if opts.GreetDelay <= 0 {
		opts.GreetDelay = def.GreetDelay
	}
	if opts.RelistenDelay <= 0 {
		opts.RelistenDelay = def.RelistenDelay
	}
	if opts.ReminderDuration <= 0 {
		opts.ReminderDuration = def.ReminderDuration
	}
	if opts.MetricsInterval <= 0 {
		opts.MetricsInterval = def.MetricsInterval
	}

	if d.State == nil {
		d.State = session.New(session.ThemeDefault)
	}
	if d.Router == nil {
		d.Router = intent.New(d.Completer, d.Bridge, intent.Options{})
	}
	if d.Reminders == nil {
		d.Reminders = reminder.New()
	}
	if d.Speaker == nil {
		d.Speaker = speech.Nop{}
	}
	if d.Listener == nil {
		d.Listener = speech.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = speech.Nop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Assistant{Deps: d, opts: opts, ctx: ctx, cancel: cancel}
	a.voice = speech.NewQueue(d.Speaker, func(v bool) {
		a.State.SetSpeaking(v)
		a.changed()
	})
	return a
}

// Close stops listening and background work. Armed reminders are dropped.
func (a *Assistant) Close() {
	a.stopListening()

	a.bgMu.Lock()
	a.closed = true
	a.bgMu.Unlock()

	a.cancel()
	a.Reminders.Stop()
	a.bg.Wait()
	a.voice.Close()
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			log.Warn("Failed to close task store", "err", err)
		}
	}
}

// Wait blocks until background persistence and timers have finished.
func (a *Assistant) Wait() { a.bg.Wait() }

func (a *Assistant) Snapshot() session.Snapshot { return a.State.Snapshot() }

func (a *Assistant) changed() {
	if a.opts.Changed != nil {
		a.opts.Changed()
	}
}

// goBg runs f in the background until Close.
func (a *Assistant) goBg(f func(ctx context.Context)) {
	a.bgMu.Lock()
	defer a.bgMu.Unlock()
	if a.closed {
		return
	}
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		f(a.ctx)
	}()
}

// after runs f once d has passed unless the assistant closes first.
func (a *Assistant) after(d time.Duration, f func()) {
	a.goBg(func(ctx context.Context) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			f()
		case <-ctx.Done():
		}
	})
}

// Say speaks text without adding it to the transcript.
func (a *Assistant) Say(text string) { a.say(text, false) }

func (a *Assistant) say(text string, relisten bool) {
	var then func()
	if relisten {
		then = func() {
			a.after(a.opts.RelistenDelay, func() {
				if err := a.StartListening(); err != nil {
					log.Debug("Not re-listening", "err", err)
				}
			})
		}
	}
	a.voice.Say(text, then)
}

// Reroute swaps the router once the utterance in progress is done.
func (a *Assistant) Reroute(r *intent.Router) {
	a.sendMu.Lock()
	a.Router = r
	a.sendMu.Unlock()
}

// Send handles a typed utterance.
func (a *Assistant) Send(ctx context.Context, text string) (string, error) {
	return a.send(ctx, text, false)
}

// SendVoice handles a transcribed utterance; listening is re-engaged after
// the reply is spoken.
func (a *Assistant) SendVoice(ctx context.Context, text string) (string, error) {
	return a.send(ctx, text, true)
}

func (a *Assistant) send(ctx context.Context, text string, fromVoice bool) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if a.State.User() == nil {
		return "", ErrSignedOut
	}

	a.sendMu.Lock()
	defer a.sendMu.Unlock()

	a.State.Append(session.RoleUser, text)
	a.changed()

	snap := a.State.Snapshot()
	d := a.Router.Route(ctx, intent.Snapshot{
		Theme:   snap.Theme,
		Pending: snap.PendingTasks(),
		Metrics: snap.Metrics,
	}, text)
	log.Info("Routed", "rule", d.Rule, "local", d.Local)

	if d.Panel != nil {
		a.State.SetPanel(*d.Panel)
	}

	var followUps []string
	for _, eff := range d.Effects {
		if s := a.apply(ctx, eff); s != "" {
			followUps = append(followUps, s)
		}
	}

	a.State.Append(session.RoleAssistant, d.Reply)
	a.changed()

	if len(followUps) == 0 {
		a.say(d.Reply, fromVoice)
	} else {
		a.say(d.Reply, false)
		for i, s := range followUps {
			a.say(s, fromVoice && i == len(followUps)-1)
		}
	}
	return d.Reply, nil
}

// StartListening captures one utterance on the listener and sends it.
func (a *Assistant) StartListening() error {
	if a.State.User() == nil {
		return ErrSignedOut
	}
	if _, nop := a.Listener.(speech.Nop); nop {
		return ErrNoListener
	}

	a.listenMu.Lock()
	if a.listenCancel != nil {
		a.listenMu.Unlock()
		return nil
	}
	lctx, cancel := context.WithCancel(a.ctx)
	a.listenCancel = cancel
	a.listenMu.Unlock()

	a.State.SetListening(true)
	a.Notifier.Cue()
	a.changed()

	a.goBg(func(context.Context) {
		text, err := a.Listener.Listen(lctx)

		a.listenMu.Lock()
		a.listenCancel = nil
		a.listenMu.Unlock()
		cancel()
		a.State.SetListening(false)
		a.changed()

		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Warn("Failed to listen", "err", err)
			}
			return
		}
		log.Info("Heard", "text", text)
		if _, err := a.SendVoice(a.ctx, text); err != nil {
			log.Warn("Voice send failed", "err", err)
		}
	})
	return nil
}

func (a *Assistant) stopListening() bool {
	a.listenMu.Lock()
	cancel := a.listenCancel
	a.listenCancel = nil
	a.listenMu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	a.State.SetListening(false)
	a.changed()
	return true
}

// ToggleListening stops an active capture or starts a new one.
func (a *Assistant) ToggleListening() error {
	if a.stopListening() {
		return nil
	}
	return a.StartListening()
}
