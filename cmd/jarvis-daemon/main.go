package main

import (
	"context"
	"errors"
	log "log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"jarvis/internal/app"
	"jarvis/internal/bridge"
	"jarvis/internal/bus"
	"jarvis/internal/config"
	"jarvis/internal/intent"
	"jarvis/internal/ipc"
	"jarvis/internal/logging"
)

const busRetry = 5 * time.Second

func main() {
	cfgPath := cli.StringP("config", "c", config.DefaultPath(), "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides config)")
	socket := cli.StringP("socket", "s", "", "Control socket path (overrides config)")
	busURL := cli.StringP("url", "u", "", "Url of hub (overrides config)")
	noVoice := cli.Bool("no-voice", false, "Disable microphone and speech synthesis")
	cli.Parse()

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		logging.Setup("info", os.Stderr, true)
		log.Error("Failed to load config", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log = *logLevel
	}
	if *socket != "" {
		cfg.IPC.Socket = *socket
	}
	if *busURL != "" {
		cfg.Bus.URL = *busURL
	}
	logging.Setup(cfg.Log, os.Stdout, true)

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{Voice: !*noVoice})
	if err != nil {
		log.Error("Failed to build assistant", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Failed to shut down cleanly", "err", err)
		}
	}()

	srv, err := ipc.Listen(cfg.IPC.Socket, ipc.NewHandler(a.Assistant))
	if err != nil {
		log.Error("Failed to open control socket", "socket", cfg.IPC.Socket, "err", err)
		a.Close()
		os.Exit(1)
	}

	a.Assistant.Start(ctx)
	log.Info("Boot up - successful", "socket", srv.Path())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error {
		if err := a.Assistant.RunMetrics(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := config.Watch(ctx, *cfgPath, *envFile, func(next *config.Config) {
			reload(a, next)
		})
		if err != nil {
			log.Warn("Config reload disabled", "path", *cfgPath, "err", err)
		}
		return nil
	})
	if cfg.Bus.URL != "" {
		g.Go(func() error {
			runBus(ctx, a, cfg.Bus)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Daemon stopped", "err", err)
	}
	log.Info("Shutting down")
}

// reload applies the parts of a changed config that can move at runtime:
// the weather block, the scan root and the app table.
func reload(a *app.App, next *config.Config) {
	as := a.Assistant
	as.Reroute(intent.New(as.Completer, as.Bridge, intent.Options{
		ScanRoot: next.ScanRoot,
		Weather:  next.Weather,
	}))
	if sh, ok := as.Bridge.(*bridge.Shell); ok {
		sh.SetApps(next.Apps)
	}
	log.Debug("Applied config", "scan_root", next.ScanRoot, "apps", len(next.Apps))
}

func runBus(ctx context.Context, a *app.App, cfg config.BusConfig) {
	agent := &bus.Agent{Name: cfg.Name, Sender: a.Assistant}
	if a.STT != nil {
		agent.STT = a.STT
	}

	for {
		conn, err := bus.Dial(ctx, cfg.URL)
		if err != nil {
			log.Warn("Failed to dial hub", "url", cfg.URL, "err", err)
		} else {
			log.Info("Connected to hub", "url", cfg.URL, "name", cfg.Name)
			if err := agent.Run(ctx, conn); err != nil && ctx.Err() == nil {
				log.Warn("Hub connection lost", "err", err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(busRetry):
		}
	}
}
