package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// Deploy returns the command that redeploys the agent into a running
// environment.
func Deploy() *cobra.Command {
	var configPath string
	var rebuild bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Redeploy the agent into a running environment",
		Long: `Redeploy the agent DaemonSet into an environment created by setup.

Use --rebuild to force the images to be rebuilt even when they already
exist in the local docker store.

Examples:
  # Roll the agent out again, reusing cached images
  testenv deploy

  # Rebuild images from the Dockerfiles first
  testenv deploy --rebuild`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), configPath, rebuild)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Force image rebuilds before deploying")

	return cmd
}
