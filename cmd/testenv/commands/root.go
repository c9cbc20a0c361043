// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the testenv CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testenv",
		Short: "Manage ephemeral test environments for the SONiC change agent",
	}

	// Lifecycle commands
	cmd.AddCommand(Setup())
	cmd.AddCommand(Deploy())
	cmd.AddCommand(Cleanup())

	// Commands against a running environment
	cmd.AddCommand(Device())
	cmd.AddCommand(Status())
	cmd.AddCommand(Logs())

	// Utility commands
	cmd.AddCommand(ImageServer())
	cmd.AddCommand(Version())

	return cmd
}
