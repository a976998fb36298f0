package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/mcpserver"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve workspace and cube actions as MCP tools on stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout. AI assistants
can list workspaces and cubes and run the same lifecycle actions as the
dashboard. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *app.Services) error {
				name := s.Config.MCP.Name
				if name == "" {
					name = "cubectl"
				}
				return mcpserver.New(name, rootCmd.Version, s.Coordinator).ServeStdio(ctx)
			})
		},
	}
}
