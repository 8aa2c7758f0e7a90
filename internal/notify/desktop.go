package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"time"
)

// Desktop raises freedesktop notifications with notify-send and plays the
// cue before each capture.
type Desktop struct {
	CuePath string
	AppName string

	run func(ctx context.Context, name string, args ...string) error
}

func NewDesktop(cuePath string) *Desktop {
	return &Desktop{
		CuePath: cuePath,
		AppName: "J.A.R.V.I.S.",
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (d *Desktop) Cue() {
	if err := Beep(d.CuePath); err != nil {
		log.Debug("Failed to play cue", "err", err)
	}
}

func (d *Desktop) Notify(title, body string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.run(ctx, "notify-send", "--app-name="+d.AppName, title, body); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}
