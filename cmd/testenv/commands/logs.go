package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// Logs returns the command that captures pod logs into a timestamped
// directory.
func Logs() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Collect pod logs into a timestamped directory",
		Args:  cobra.ExactArgs(1),
		Long: `Collect logs from every pod in the cluster.

Logs are written one file per pod under a directory named after the given
name and the collection time, so repeated collections never overwrite
each other.

Examples:
  testenv logs upgrade-smoke`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Logs(cmd.Context(), configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
