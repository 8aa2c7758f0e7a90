package assistant

import (
	"context"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"jarvis/internal/bridge"
	"jarvis/internal/session"
)

const WelcomeBack = "Welcome back, sir. Google Cloud Link established. All mission directives are online."

// Start resumes an existing sign-in, if the provider has one.
func (a *Assistant) Start(ctx context.Context) {
	if a.Auth == nil {
		return
	}
	if u := a.Auth.Current(ctx); u != nil {
		a.signedIn(ctx, u)
	}
}

func (a *Assistant) SignIn(ctx context.Context, email, password string) error {
	if a.Auth == nil {
		return ErrSignedOut
	}
	u, err := a.Auth.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	a.signedIn(ctx, u)
	return nil
}

func (a *Assistant) SignUp(ctx context.Context, email, password string) error {
	if a.Auth == nil {
		return ErrSignedOut
	}
	return a.Auth.SignUp(ctx, strings.TrimSpace(email), password)
}

func (a *Assistant) signedIn(ctx context.Context, u *session.User) {
	a.State.SetUser(u)
	log.Info("Signed in", "user", u.ID)
	a.changed()

	a.loadTasks(ctx, *u)
	a.after(a.opts.GreetDelay, func() { a.Say(WelcomeBack) })
}

// SignOut ends the session even when the provider call fails.
func (a *Assistant) SignOut(ctx context.Context) error {
	a.stopListening()

	var err error
	if a.Auth != nil {
		err = a.Auth.SignOut(ctx)
	}
	a.State.Reset()
	a.changed()
	log.Info("Signed out")
	return err
}

func (a *Assistant) setTheme(t session.Theme) {
	a.State.SetTheme(t)
	a.changed()
	if a.opts.SaveTheme == nil {
		return
	}
	if err := a.opts.SaveTheme(t); err != nil {
		log.Warn("Failed to save theme", "err", err)
	}
}

// ToggleTheme flips between the dark and light themes and returns the new one.
func (a *Assistant) ToggleTheme() session.Theme {
	next := session.ThemeLight
	name := "Stark Industrial theme"
	if a.State.Theme() == session.ThemeLight {
		next = session.ThemeDefault
		name = "Original Stealth theme"
	}
	a.setTheme(next)
	a.Say(name + " engaged, sir.")
	return next
}

func (a *Assistant) ShowPanel(p session.Panel) {
	a.State.SetPanel(p)
	a.changed()
}

func (a *Assistant) SetEmail(d session.EmailDraft) {
	a.State.SetEmail(d)
	a.changed()
}

// SendEmail simulates transmission of the current draft.
func (a *Assistant) SendEmail() error {
	d := a.State.Email()
	if strings.TrimSpace(d.To) == "" || strings.TrimSpace(d.Body) == "" {
		a.Say("Sir, I require a recipient and a message body to proceed.")
		return ErrDraftIncomplete
	}
	a.Say(fmt.Sprintf("Initiating transmission to %s. Routing through Google secure servers.", d.To))
	a.after(a.opts.EmailDelay, func() {
		a.Say("Transmission successful. The message has been encrypted and sent.")
		a.State.SetPanel(session.PanelNone)
		a.State.SetEmail(session.EmailDraft{})
		a.changed()
	})
	return nil
}

// Window forwards a window operation. Without a bridge it does nothing.
func (a *Assistant) Window(ctx context.Context, op bridge.WindowOp) error {
	if a.Bridge == nil {
		log.Debug("Window op without bridge", "op", op)
		return nil
	}
	return a.Bridge.Window(ctx, op)
}

// SimulatedMetrics returns plausible readings for hosts without a bridge.
func SimulatedMetrics() session.Metrics {
	return session.Metrics{
		CPU:  rand.IntN(20) + 5,
		RAM:  rand.IntN(15) + 30,
		Temp: float64(rand.IntN(5) + 40),
	}
}

func (a *Assistant) sampleMetrics(ctx context.Context) {
	m := SimulatedMetrics()
	if a.Bridge != nil {
		m = a.Bridge.GetMetrics(ctx)
	}
	a.State.SetMetrics(m)
	a.changed()
}

// RunMetrics samples metrics until ctx is done.
func (a *Assistant) RunMetrics(ctx context.Context) error {
	ticker := time.NewTicker(a.opts.MetricsInterval)
	defer ticker.Stop()

	a.sampleMetrics(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.sampleMetrics(ctx)
		}
	}
}
