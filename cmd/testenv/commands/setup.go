package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// Setup returns the command that brings the full environment up.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file
//	--skip-build: Skip image builds when the images already exist
//
// Environment variables:
//
//	SKIP_DOCKER_BUILD: same effect as --skip-build
//	DRY_RUN:           deploy the agent in dry-run mode (default true)
//	REUSE_ENV:         adopt a running cluster instead of recreating it
func Setup() *cobra.Command {
	var configPath string
	var skipBuild bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the cluster and deploy the agent with its dependencies",
		Long: `Create the complete test environment.

This provisions a minikube cluster, builds and loads the agent images,
deploys redis with CONFIG_DB entries the agent expects, and deploys the
agent DaemonSet, waiting until it reports readiness.

Examples:
  # Full setup with defaults
  testenv setup

  # Reuse previously built images
  testenv setup --skip-build

  # Setup against a custom configuration
  testenv setup -c testenv.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Setup(cmd.Context(), configPath, skipBuild)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&skipBuild, "skip-build", false, "Skip image builds when images already exist")

	return cmd
}
