package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/lifecycle"
	"cubectl/internal/orchestrator"
	"cubectl/internal/output"
)

func newWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws", "workspaces"},
		Short:   "List, create and drive workspaces",
	}
	cmd.AddCommand(
		newWorkspaceListCmd(),
		newWorkspaceCreateCmd(),
		newActionCmd(orchestrator.KindWorkspace, lifecycle.ActionDeploy, "Deploy every cube of a workspace"),
		newActionCmd(orchestrator.KindWorkspace, lifecycle.ActionRedeploy, "Redeploy every cube of a workspace"),
		newActionCmd(orchestrator.KindWorkspace, lifecycle.ActionStop, "Stop every cube of a workspace"),
		newActionCmd(orchestrator.KindWorkspace, lifecycle.ActionDelete, "Delete a workspace and its cubes"),
		newWorkspaceStopAllCmd(),
	)
	return cmd
}

func newWorkspaceListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.RefreshWorkspaces(ctx); err != nil {
					return err
				}
				return output.Workspaces(cmd.OutOrStdout(), f, s.Store.Workspaces())
			})
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newWorkspaceCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.CreateWorkspace(ctx, args[0], description); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "workspace %s created\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Workspace description")
	return cmd
}

func newWorkspaceStopAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop-all <workspace-id>",
		Short: "Stop the running cubes of a workspace one by one",
		Long: `Stops every cube of the workspace that can be stopped, each with its
own request. Cubes that fail keep their status; the others stay stopped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				if err := s.Coordinator.Load(ctx, orchestrator.Workspace(args[0])); err != nil {
					return err
				}
				n, err := s.Coordinator.StopWorkspaceCubes(ctx, args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "stopped %d cubes\n", n)
				return err
			})
		},
	}
}
