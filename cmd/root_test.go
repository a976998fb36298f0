package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "cubectl", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	for _, name := range []string{"config", "backend-url", "debug"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "persistent flag %s", name)
	}
	assert.NotNil(t, rootCmd.Flags().Lookup("no-tui"))
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "cubectl version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())
	assert.Equal(t, "cubectl version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"version", "self-update", "config", "workspace", "cube", "logs", "mcp", "dev-backend"} {
		assert.True(t, found[name], "subcommand %s is registered", name)
	}
}

func TestActionSubcommands(t *testing.T) {
	for _, parent := range []string{"workspace", "cube"} {
		c, _, err := rootCmd.Find([]string{parent})
		require.NoError(t, err)

		names := map[string]bool{}
		for _, sub := range c.Commands() {
			names[sub.Name()] = true
		}
		for _, action := range []string{"deploy", "redeploy", "stop", "delete", "list", "create"} {
			assert.True(t, names[action], "%s %s", parent, action)
		}
	}
}
