package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
	"cubectl/internal/config"
	"cubectl/pkg/logging"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Loads the layered configuration (defaults, user file, project file, or
the file given with --config), applies flag overrides and prints the
result as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg := newAppConfig()
			logging.InitForCLI(appCfg.LogLevel(), os.Stderr)
			cfg, err := app.LoadConfig(appCfg)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
