package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/output"
)

// commandContext returns the command's context, cancelled on interrupt.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// withServices runs fn with initialized services and releases them
// afterwards.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, s *app.Services) error) error {
	application, err := app.NewApplication(newAppConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()
	return fn(ctx, application.Services())
}

// addOutputFlag registers -o/--output on cmd.
func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", string(output.FormatTable), "Output format: table or json")
}

// newActionCmd builds a command that applies action to the entity named
// by its single argument.
func newActionCmd(kind orchestrator.EntityKind, action lifecycle.Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <%s-id>", action, kind),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := orchestrator.Target{Kind: kind, ID: args[0]}
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				return runAction(ctx, cmd, s.Coordinator, target, action)
			})
		},
	}
}

// runAction loads the target, runs the action to completion and prints
// the outcome.
func runAction(ctx context.Context, cmd *cobra.Command, c *orchestrator.Coordinator, target orchestrator.Target, action lifecycle.Action) error {
	if err := c.Load(ctx, target); err != nil {
		return err
	}
	if err := c.Run(ctx, target, action); err != nil {
		return fmt.Errorf("%s %s: %w", action, target, err)
	}

	out := cmd.OutOrStdout()
	if action == lifecycle.ActionDelete {
		fmt.Fprintf(out, "%s deleted\n", target)
		return nil
	}
	switch target.Kind {
	case orchestrator.KindCube:
		if cube, ok := c.Store().Cube(target.ID); ok {
			fmt.Fprintf(out, "cube %s (%s) is %s\n", cube.Name, cube.ID, cube.Status)
		}
	case orchestrator.KindWorkspace:
		if w, ok := c.Store().Workspace(target.ID); ok {
			fmt.Fprintf(out, "workspace %s (%s) is %s, %d/%d cubes running\n",
				w.Name, w.ID, w.Status(), w.RunningContainers, w.TotalContainers)
		}
	}
	return nil
}
