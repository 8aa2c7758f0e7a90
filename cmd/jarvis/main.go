package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	cli "github.com/spf13/pflag"

	"jarvis/internal/app"
	"jarvis/internal/config"
	"jarvis/internal/logging"
)

func main() {
	cfgPath := cli.StringP("config", "c", config.DefaultPath(), "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides config)")
	logPath := cli.String("log-file", filepath.Join(config.Dir(), "console.log"), "Log file; the terminal belongs to the UI")
	voice := cli.BoolP("voice", "v", false, "Enable microphone and speech synthesis")
	cli.Parse()

	if err := run(*cfgPath, *envFile, *logLevel, *logPath, *voice); err != nil {
		fmt.Fprintln(os.Stderr, "jarvis:", err)
		os.Exit(1)
	}
}

func run(cfgPath, envFile, level, logPath string, voice bool) error {
	cfg, err := config.Load(cfgPath, envFile)
	if err != nil {
		return err
	}
	if level != "" {
		cfg.Log = level
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer lf.Close()
	logging.Setup(cfg.Log, lf, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var prog atomic.Pointer[tea.Program]
	a, err := app.Build(ctx, cfg, app.Options{
		Voice: voice,
		Changed: func() {
			if p := prog.Load(); p != nil {
				p.Send(changedMsg{})
			}
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Failed to shut down cleanly", "err", err)
		}
	}()

	go func() {
		if err := a.Assistant.RunMetrics(ctx); !errors.Is(err, context.Canceled) {
			log.Warn("Metrics stopped", "err", err)
		}
	}()

	p := tea.NewProgram(newModel(ctx, a.Assistant), tea.WithAltScreen(), tea.WithContext(ctx))
	prog.Store(p)
	log.Info("Console started", "voice", voice)

	_, err = p.Run()
	prog.Store(nil)
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
