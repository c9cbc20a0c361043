package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// Cleanup returns the command that tears the environment down.
func Cleanup() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Tear down the environment and remove built images",
		Long: `Tear down the test environment.

Devices, workloads, the cluster, and the built agent image are removed in
that order. Individual failures are reported as warnings and do not stop
the teardown. With REUSE_ENV set, the cluster itself is kept.

Examples:
  testenv cleanup`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cleanup(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
