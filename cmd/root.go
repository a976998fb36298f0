package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cubectl/internal/app"
)

// Global flags shared by every command.
var (
	configPath string
	backendURL string
	debug      bool
	noTUI      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cubectl",
	Short: "Manage workspaces and cubes from the terminal",
	Long: `cubectl drives a cube backend: it deploys, stops, redeploys and deletes
workspaces and the containers (cubes) inside them, and follows the
backend's live log stream.

Without a subcommand it opens an interactive dashboard. With --no-tui it
watches the backend and logs every status change instead.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed backend calls)
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runRoot,
}

func runRoot(cmd *cobra.Command, args []string) error {
	application, err := app.NewApplication(newAppConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func newAppConfig() *app.Config {
	return app.NewConfig(noTUI, debug, configPath, backendURL)
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "cubectl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: layered ~/.config/cubectl/config.yaml and ./.cubectl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Backend base URL, overrides backend.baseURL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Watch the backend and log changes instead of opening the dashboard")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newWorkspaceCmd())
	rootCmd.AddCommand(newCubeCmd())
	rootCmd.AddCommand(newLogsCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newDevBackendCmd())
}
