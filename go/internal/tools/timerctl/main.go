// Package main provides timerctl, the command line remote for a running
// defense timer server.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultTimeout = 10 * time.Second
)

type options struct {
	server  string
	timeout time.Duration
	asJSON  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "timerctl",
		Short:         "Remote control for the defense timer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	server := os.Getenv("TIMER_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", server, "base URL of the timer server")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON instead of a summary")

	rootCmd.AddCommand(newCommandCmd(opts, "start", "Start or resume the countdown", (*rpc.Client).Start))
	rootCmd.AddCommand(newCommandCmd(opts, "pause", "Pause the countdown", (*rpc.Client).Pause))
	rootCmd.AddCommand(newCommandCmd(opts, "restart-phase", "Refill the current phase", (*rpc.Client).RestartPhase))
	rootCmd.AddCommand(newCommandCmd(opts, "reset", "Return to the start of the session", (*rpc.Client).ResetSession))
	rootCmd.AddCommand(newCommandCmd(opts, "skip", "End the current phase", (*rpc.Client).SkipPhase))
	rootCmd.AddCommand(newCommandCmd(opts, "next-presenter", "Start the next presenter's cycle", (*rpc.Client).AdvanceToNextPresenter))
	rootCmd.AddCommand(newCommandCmd(opts, "state", "Show the current state", (*rpc.Client).GetState))
	rootCmd.AddCommand(newPresenterCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newPresetsCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))

	return rootCmd
}

func (o *options) client() *rpc.Client {
	return rpc.NewClient(&http.Client{Timeout: o.timeout}, o.server)
}

func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}

func (o *options) printState(w io.Writer, snap models.Snapshot) error {
	if o.asJSON {
		return printJSON(w, snap)
	}
	_, err := fmt.Fprintln(w, summary(display.Render(snap, display.Thresholds{})))
	return err
}

// summary renders one status line, e.g. "Presenter 2 of 3 · Q&A  00:45  running"
func summary(v display.View) string {
	status := "stopped"
	switch {
	case v.CurrentPhase.IsTerminal():
		return v.Title
	case v.IsRunning:
		status = "running"
	case v.IsPaused:
		status = "paused"
	}
	return fmt.Sprintf("%s  %s  %s", v.Title, v.Clock, status)
}
