package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"tours/internal/notifications"
	"tours/internal/redisclient"

	"github.com/spf13/cobra"
)

var eventsJSON bool

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print tour events as they are published",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			rdb := redisclient.Connect(cfg.RedisURL)
			if rdb == nil {
				return errors.New("redis is not reachable at " + cfg.RedisURL)
			}
			defer func() { _ = rdb.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Listening on %s (Ctrl+C to stop)\n", notifications.EventsChannel)
			err = notifications.NewNotifier(rdb).Subscribe(ctx, func(ev notifications.Event) {
				printEvent(out, ev, eventsJSON)
			})
			if err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&eventsJSON, "json", false, "print raw JSON payloads")
	return cmd
}

func printEvent(w io.Writer, ev notifications.Event, asJSON bool) {
	if asJSON {
		raw, err := json.Marshal(ev)
		if err == nil {
			fmt.Fprintln(w, string(raw))
		}
		return
	}
	line := fmt.Sprintf("%s  %-16s tour=%d", ev.At.Format("15:04:05"), ev.Type, ev.PostID)
	if ev.UserID != 0 {
		line += fmt.Sprintf(" user=%d", ev.UserID)
	}
	if ev.CommentID != 0 {
		line += fmt.Sprintf(" comment=%d", ev.CommentID)
	}
	fmt.Fprintln(w, line)
}
