package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jarvis/internal/ipc"
	"jarvis/internal/session"
)

var (
	socket  string
	timeout time.Duration
)

func main() {
	root := &cobra.Command{
		Use:           "jarvis-ctl",
		Short:         "Control a running jarvis-daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&socket, "socket", "s", ipc.DefaultSocket, "Daemon socket path")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 90*time.Second, "Reply timeout")

	root.AddCommand(
		simple("trigger", "Start or stop listening", ipc.CmdTrigger),
		&cobra.Command{
			Use:   "say <text>",
			Short: "Send a text command as if typed",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, ipc.Request{Cmd: ipc.CmdSay, Args: args})
			},
		},
		&cobra.Command{
			Use:       "panel <name>",
			Short:     "Show a panel",
			Args:      cobra.ExactArgs(1),
			ValidArgs: panelNames(),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, ipc.Request{Cmd: ipc.CmdPanel, Args: args})
			},
		},
		simple("theme", "Toggle the theme", ipc.CmdTheme),
		simple("signout", "Sign the current user out", ipc.CmdSignOut),
		simple("state", "Print the assistant state as JSON", ipc.CmdState),
		&cobra.Command{
			Use:       "window <minimize|maximize|close>",
			Short:     "Control the focused window",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"minimize", "maximize", "close"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, ipc.Request{Cmd: ipc.CmdWindow, Args: args})
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jarvis-ctl:", err)
		os.Exit(1)
	}
}

func simple(use, short, cmd string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c, ipc.Request{Cmd: cmd})
		},
	}
}

func panelNames() []string {
	var names []string
	for _, p := range session.Panels() {
		names = append(names, p.String())
	}
	return append(names, "none")
}

func run(cmd *cobra.Command, req ipc.Request) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rep, err := ipc.Send(ctx, socket, req)
	if err != nil {
		return fmt.Errorf("jarvis-daemon not running: %w", err)
	}
	if !rep.OK {
		return errors.New(rep.Error)
	}

	out := cmd.OutOrStdout()
	if len(rep.Data) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, rep.Data, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(out, buf.String())
		return nil
	}
	if text := strings.TrimSpace(rep.Text); text != "" {
		fmt.Fprintln(out, text)
	}
	return nil
}
