package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/devbackend"
	"cubectl/pkg/logging"
)

func newDevBackendCmd() *cobra.Command {
	var (
		listen      string
		seed        int
		actionDelay time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dev-backend",
		Short: "Run an in-memory cube backend for local development",
		Long: `Serves the cube REST API and log stream from memory, seeded with demo
workspaces. Point the dashboard at it with --backend-url
http://<listen>/api. Nothing is persisted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := newAppConfig()
			logging.InitForCLI(appCfg.LogLevel(), os.Stderr)
			cfg, err := app.LoadConfig(appCfg)
			if err != nil {
				return err
			}

			devCfg := devbackend.Config{
				Listen:         cfg.DevBackend.Listen,
				SeedWorkspaces: cfg.DevBackend.SeedWorkspaces,
				LogInterval:    cfg.DevBackend.LogInterval,
			}
			if cmd.Flags().Changed("listen") {
				devCfg.Listen = listen
			}
			if cmd.Flags().Changed("seed") {
				devCfg.SeedWorkspaces = seed
			}
			devCfg.ActionDelay = actionDelay

			ctx, cancel := commandContext(cmd)
			defer cancel()
			return devbackend.New(devCfg).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:8080", "Address to listen on")
	cmd.Flags().IntVar(&seed, "seed", 2, "Number of demo workspaces")
	cmd.Flags().DurationVar(&actionDelay, "action-delay", 0, "Delay before each lifecycle action, for example 2s")
	return cmd
}
