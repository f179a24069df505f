package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcdev12/defensetimer/go/internal/models"
	"github.com/mcdev12/defensetimer/go/internal/session/config"
	"github.com/mcdev12/defensetimer/go/internal/session/display"
	"github.com/mcdev12/defensetimer/go/internal/session/rpc"
)

type stateCall func(*rpc.Client, context.Context) (rpc.StateResponse, error)

func newCommandCmd(opts *options, use, short string, call stateCall) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := call(opts.client(), ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			return opts.printState(cmd.OutOrStdout(), res.State)
		},
	}
}

func newPresenterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "presenter N",
		Short: "Set the presenter index while the countdown is not running",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("presenter index must be a positive integer, got %q", args[0])
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().SetPresenterIndex(ctx, n)
			if err != nil {
				return fmt.Errorf("presenter: %w", err)
			}
			if res.State.PresenterIndex != n {
				fmt.Fprintln(cmd.ErrOrStderr(), "presenter index unchanged (timer running or index out of range)")
			}
			return opts.printState(cmd.OutOrStdout(), res.State)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the session configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().GetConfig(ctx)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), res.Config)
			}
			data, err := config.Marshal(res.Config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "apply FILE",
		Short: "Replace the configuration with a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			return updateConfig(cmd, opts, cfg)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "phase PHASE MINUTES",
		Short: "Set the duration of one phase (setup, presentation, qa)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, ok := config.ParsePhase(args[0])
			if !ok {
				return fmt.Errorf("unknown phase %q", args[0])
			}
			seconds := display.MinutesToSeconds(args[1])
			if seconds <= 0 {
				return fmt.Errorf("duration must be a positive number of minutes, got %q", args[1])
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().GetConfig(ctx)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg := res.Config
			pc := cfg.Phases[phase]
			pc.DurationSeconds = seconds
			if pc.WarningSeconds >= seconds {
				pc.WarningSeconds = 0
			}
			cfg.Phases[phase] = pc
			return updateConfig(cmd, opts, cfg)
		},
	})

	return configCmd
}

func updateConfig(cmd *cobra.Command, opts *options, cfg models.SessionConfig) error {
	ctx, cancel := opts.context(cmd)
	defer cancel()

	res, err := opts.client().UpdateConfig(ctx, rpc.UpdateConfigRequest{Config: cfg})
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return opts.printState(cmd.OutOrStdout(), res.State)
}

func newPresetsCmd(opts *options) *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage stored presets",
	}

	presetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().ListPresets(ctx)
			if err != nil {
				return fmt.Errorf("list presets: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), res.Presets)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPHASES\tUPDATED")
			for _, p := range res.Presets {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, phaseSummary(p.Config), p.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	})

	var file string
	saveCmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Store the active configuration, or --file, under NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rpc.SavePresetRequest{Name: args[0]}
			if file != "" {
				cfg, err := config.Load(file)
				if err != nil {
					return err
				}
				req.Config = &cfg
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			saved, err := opts.client().SavePreset(ctx, req)
			if err != nil {
				return fmt.Errorf("save preset: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved preset %s (%s)\n", saved.Name, phaseSummary(saved.Config))
			return err
		},
	}
	saveCmd.Flags().StringVar(&file, "file", "", "YAML configuration to store instead of the active one")
	presetsCmd.AddCommand(saveCmd)

	presetsCmd.AddCommand(&cobra.Command{
		Use:   "apply NAME",
		Short: "Load a stored preset into the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			res, err := opts.client().ApplyPreset(ctx, args[0])
			if err != nil {
				return fmt.Errorf("apply preset: %w", err)
			}
			return opts.printState(cmd.OutOrStdout(), res.State)
		},
	})

	return presetsCmd
}

// phaseSummary lists configured phases with their durations, e.g. "setup 05:00, presentation 20:00"
func phaseSummary(cfg models.SessionConfig) string {
	parts := make([]string, 0, len(cfg.Phases))
	for _, phase := range cfg.Sequence() {
		parts = append(parts, fmt.Sprintf("%s %s", phase, display.FormatClock(cfg.Duration(phase))))
	}
	return strings.Join(parts, ", ")
}

func newWatchCmd(opts *options) *cobra.Command {
	var count int

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live display feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wsURL, err := liveURL(opts.server)
			if err != nil {
				return err
			}

			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", wsURL, err)
			}
			defer conn.Close()

			go func() {
				<-cmd.Context().Done()
				conn.Close()
			}()

			for seen := 0; count <= 0 || seen < count; seen++ {
				var view display.View
				if err := conn.ReadJSON(&view); err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return fmt.Errorf("read live feed: %w", err)
				}
				if opts.asJSON {
					err = printJSON(cmd.OutOrStdout(), view)
				} else {
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", view.Level, summary(view))
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	watchCmd.Flags().IntVar(&count, "count", 0, "exit after this many updates (0 follows forever)")

	return watchCmd
}

// liveURL maps the server base URL to its websocket display endpoint
func liveURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/live"
	return u.String(), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
