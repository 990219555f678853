package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/taskgrid/internal/events"
	"github.com/alfredjeanlab/taskgrid/internal/tree"
	"github.com/alfredjeanlab/taskgrid/internal/ui"
)

// watchDebounce coalesces bursts of events, such as the sibling renumbering
// of a move, into one refresh.
const watchDebounce = 200 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render a project's grid whenever it changes",
	Long: `Watch a project's grid. With a NATS URL (--nats, TASKGRID_NATS_URL or
the active remote) the grid refreshes on task events; otherwise it is
polled at --interval.`,
	GroupID: "grid",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := treeRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		once, _ := cmd.Flags().GetBool("once")
		natsURL, _ := cmd.Flags().GetString("nats")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w := cmd.OutOrStdout()
		seen := make(map[string]time.Time)
		rendered := false
		refresh := func(ctx context.Context) error {
			resp, err := gridClient.Tree(ctx, req)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if !gridChanged(resp.Rows, seen) && rendered {
				return nil
			}
			rendered = true
			return printGrid(w, resp)
		}

		if err := refresh(ctx); err != nil {
			return err
		}
		if once {
			return nil
		}

		if natsURL == "" {
			natsURL = os.Getenv("TASKGRID_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemote().NATSURL
		}
		if natsURL == "" {
			return watchPoll(ctx, interval, refresh)
		}

		// reconnectCh receives a signal when the NATS client reconnects after
		// a disconnect, so we can immediately re-query for missed events.
		reconnectCh := make(chan struct{}, 1)
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				slog.Info("nats: reconnected")
				select {
				case reconnectCh <- struct{}{}:
				default:
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		return watchEvents(ctx, sub, reconnectCh, w, refresh)
	},
}

// watchEvents refreshes after each burst of task events, and immediately on
// reconnect.
func watchEvents(ctx context.Context, sub events.Subscriber, reconnectCh <-chan struct{}, w io.Writer, refresh func(context.Context) error) error {
	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if !jsonOutput {
				printEventLine(w, msg)
			}
			debounce.Reset(watchDebounce)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func printEventLine(w io.Writer, msg events.Message) {
	line := msg.Topic
	if e, err := events.Decode(msg); err == nil {
		if id := events.TaskIDOf(e); id != "" {
			line += " " + id
		}
	}
	fmt.Fprintln(w, ui.RenderMuted("· "+line))
}

// watchPoll refreshes at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, refresh func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := refresh(ctx); err != nil {
			return err
		}
	}
}

// gridChanged reports whether rows differ from the last render: a task was
// added, removed, or updated since. It updates seen in place.
func gridChanged(rows []tree.Row, seen map[string]time.Time) bool {
	changed := len(rows) != len(seen)
	current := make(map[string]bool, len(rows))
	for _, r := range rows {
		id := r.Task.ID
		current[id] = true
		if prev, ok := seen[id]; !ok || !r.Task.UpdatedAt.Equal(prev) {
			changed = true
		}
		seen[id] = r.Task.UpdatedAt
	}
	for id := range seen {
		if !current[id] {
			delete(seen, id)
			changed = true
		}
	}
	return changed
}

func init() {
	addTreeFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
	watchCmd.Flags().Bool("once", false, "render once and exit")
	watchCmd.Flags().String("nats", "", "NATS URL for event-driven refresh")
}
