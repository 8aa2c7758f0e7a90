// Package app builds an assistant and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"time"

	"jarvis/internal/assistant"
	"jarvis/internal/audio"
	"jarvis/internal/auth"
	"jarvis/internal/bridge"
	"jarvis/internal/calendar"
	"jarvis/internal/config"
	"jarvis/internal/intent"
	"jarvis/internal/llm"
	"jarvis/internal/notify"
	"jarvis/internal/reminder"
	"jarvis/internal/session"
	"jarvis/internal/speech"
	"jarvis/internal/tasks"
	"jarvis/internal/tts"
	"jarvis/pkg/protocol"
	"jarvis/pkg/stt"
)

type Options struct {
	// Voice enables the microphone, whisper and espeak. Without it the
	// assistant is text only.
	Voice bool
	// Changed is forwarded to the assistant.
	Changed func()
}

// App owns everything Build opened. Close releases it in reverse order.
type App struct {
	Assistant *assistant.Assistant
	Config    *config.Config
	// STT is set when voice is enabled and the model loaded.
	STT *stt.Transcriber

	closers []func() error
}

func (a *App) onClose(f func() error) { a.closers = append(a.closers, f) }

func (a *App) Close() error {
	var errs []error
	if a.Assistant != nil {
		a.Assistant.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires cfg into an assistant. Optional collaborators that fail to
// start are logged and left out; only a broken task store is fatal.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	completer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		log.Warn("Completion backend unavailable, using canned replies", "provider", cfg.LLM.Provider, "err", err)
		completer = nil
	}

	br, err := a.bridge(ctx, cfg)
	if err != nil {
		log.Warn("OS bridge unavailable", "url", cfg.Bridge.URL, "err", err)
		br = nil
	}

	store, err := a.store(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cal *calendar.Client
	if cfg.Calendar.Enabled {
		cal = calendar.New(cfg.Calendar.BaseURL, nil)
	}

	prefs, err := config.LoadPrefs(cfg.PrefsPath)
	if err != nil {
		log.Warn("Failed to load prefs", "path", cfg.PrefsPath, "err", err)
	}
	theme := prefs.Theme
	if cfg.Theme != "" && prefs.Theme == session.ThemeDefault {
		theme = session.ParseTheme(cfg.Theme)
	}

	deps := assistant.Deps{
		State:     session.New(theme),
		Router:    intent.New(completer, br, intent.Options{ScanRoot: cfg.ScanRoot, Weather: cfg.Weather}),
		Completer: completer,
		Bridge:    br,
		Tasks:     store,
		Calendar:  cal,
		Auth:      authProvider(cfg),
		Reminders: reminder.New(),
		Speaker:   speech.Nop{},
		Listener:  speech.Nop{},
		Notifier:  notify.NewDesktop(cfg.Speech.Cue),
	}
	if opts.Voice {
		a.voice(cfg, &deps)
	}

	aopts := assistant.DefaultOptions()
	aopts.MetricsInterval = cfg.MetricsInterval
	aopts.Changed = opts.Changed
	aopts.SaveTheme = func(t session.Theme) error {
		return config.SavePrefs(cfg.PrefsPath, config.Prefs{Theme: t})
	}

	a.Assistant = assistant.New(deps, aopts)
	return a, nil
}

func (a *App) bridge(ctx context.Context, cfg *config.Config) (bridge.Bridge, error) {
	switch cfg.Bridge.URL {
	case "":
		return nil, nil
	case config.BridgeLocal:
		return bridge.NewShell(cfg.Apps), nil
	}

	client, err := protocol.Dial(ctx, protocol.Config{
		Shard:   bridge.ClientShard,
		URL:     cfg.Bridge.URL,
		Retry:   3 * time.Second,
		Timeout: cfg.Bridge.Timeout,
		Unsolicited: func(m *protocol.Message) {
			log.Debug("Unsolicited bridge frame", "frame", m.String())
		},
	})
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		client.Run(runCtx)
	}()
	a.onClose(func() error {
		cancel()
		<-done
		return nil
	})
	return bridge.NewRemote(client), nil
}

func (a *App) store(cfg *config.Config) (tasks.Store, error) {
	switch cfg.Tasks.Backend {
	case config.TasksMemory:
		return nil, nil

	case config.TasksSupabase:
		return tasks.NewPostgREST(cfg.Supabase.URL, cfg.Supabase.AnonKey), nil
	}

	if cfg.Tasks.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Tasks.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create task db dir: %w", err)
		}
	}
	db, err := tasks.OpenSQLite(cfg.Tasks.Path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func authProvider(cfg *config.Config) auth.Provider {
	if cfg.Auth.Provider == config.AuthSupabase {
		return auth.NewSupabase(cfg.Supabase.URL, cfg.Supabase.AnonKey)
	}
	u := session.User{
		ID:            cfg.Auth.UserID,
		Email:         cfg.Auth.Email,
		ProviderToken: cfg.Auth.ProviderToken,
	}
	return auth.NewStatic(u, cfg.Auth.AutoSignIn)
}

// voice replaces the Nop speaker and listener with espeak and whisper where
// they can be started.
func (a *App) voice(cfg *config.Config, d *assistant.Deps) {
	var duck tts.Ducker
	if cfg.Speech.Duck {
		duck = audio.NewDucker([]string{"espeak", "jarvis"}, 0.3, 10)
	}

	scfg := tts.DefaultConfig
	if cfg.Speech.Voice != "" {
		scfg.Voice = cfg.Speech.Voice
	}
	if cfg.Speech.Rate > 0 {
		scfg.Rate = float64(cfg.Speech.Rate) / 175
	}
	sp, err := tts.New(scfg, duck)
	if err != nil {
		log.Warn("Speech synthesis unavailable", "err", err)
	} else {
		d.Speaker = sp
		a.onClose(sp.Close)
	}

	tr, err := stt.NewTranscriber(cfg.Speech.WhisperModel, stt.Options{Language: cfg.Speech.Language})
	if err != nil {
		log.Warn("Speech recognition unavailable", "model", cfg.Speech.WhisperModel, "err", err)
		return
	}
	a.STT = tr
	a.onClose(tr.Close)

	rec, err := audio.NewRecorder(audio.DefaultVAD)
	if err != nil {
		log.Warn("Microphone unavailable", "err", err)
		return
	}
	a.onClose(rec.Close)
	d.Listener = audio.NewListener(rec, tr)
}
