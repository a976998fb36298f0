package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/logstream"
)

func newLogsCmd() *cobra.Command {
	var maxLines int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Follow the backend's live log stream",
		Long: `Connects to the backend's log stream and prints every line as it
arrives until interrupted. With --lines N it exits after N lines.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				return followLogs(ctx, s.Logs, cmd.OutOrStdout(), maxLines)
			})
		},
	}
	cmd.Flags().IntVarP(&maxLines, "lines", "n", 0, "Exit after this many lines (0 follows forever)")
	return cmd
}

// followLogs prints session lines to w until ctx ends, the session
// closes, or max lines were printed.
func followLogs(ctx context.Context, logs *logstream.Session, w io.Writer, max int) error {
	signals, stop := logs.Watch()
	defer stop()
	logs.SetVisible(ctx, true)
	defer logs.Close()

	var printed uint64
	wasOpen := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signals:
		}

		// Lines evicted from the buffer before they were printed are lost.
		lines := logs.Lines()
		total := logs.Dropped() + uint64(len(lines))
		if total < printed {
			printed = 0
		}
		fresh := total - printed
		if fresh > uint64(len(lines)) {
			fresh = uint64(len(lines))
		}
		for _, line := range lines[len(lines)-int(fresh):] {
			fmt.Fprintln(w, line)
			if max > 0 {
				max--
				if max == 0 {
					return nil
				}
			}
		}
		printed = total

		switch logs.State() {
		case logstream.StateOpen:
			wasOpen = true
		case logstream.StateClosed:
			if err := logs.LastError(); err != nil {
				return fmt.Errorf("log stream %s: %w", logs.URL(), err)
			}
			if wasOpen {
				return nil
			}
		}
	}
}
