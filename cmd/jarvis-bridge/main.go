package main

import (
	"context"
	"errors"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"jarvis/internal/bridge"
	"jarvis/internal/config"
	"jarvis/internal/logging"
)

func main() {
	cfgPath := cli.StringP("config", "c", config.DefaultPath(), "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	listen := cli.StringP("listen", "a", "", "Listen address (overrides config)")
	logLevel := cli.StringP("log", "l", "", "Log level (overrides config)")
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
	if *listen != "" {
		cfg.Bridge.Listen = *listen
	}
	logging.Setup(cfg.Log, os.Stdout, true)

	srv := &http.Server{
		Addr:              cfg.Bridge.Listen,
		Handler:           bridge.NewServer(bridge.NewShell(cfg.Apps)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Bridge listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})

	if err := g.Wait(); err != nil {
		log.Error("Bridge stopped", "err", err)
		os.Exit(1)
	}
	log.Info("Bridge shut down")
}
