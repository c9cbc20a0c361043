package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// Device returns the command that creates a NetworkDevice resource in the
// running environment.
//
// Flags override the default device spec field by field; unset flags keep
// the defaults.
func Device() *cobra.Command {
	var (
		configPath      string
		operation       string
		operationAction string
		osVersion       string
		firmwareProfile string
	)

	cmd := &cobra.Command{
		Use:   "device <name>",
		Short: "Create a NetworkDevice resource for the agent to act on",
		Args:  cobra.ExactArgs(1),
		Long: `Create a NetworkDevice custom resource.

The resource is created with a leaf-router OS upgrade spec by default;
individual fields can be overridden with flags.

Examples:
  # Create a device with the default spec
  testenv device sonic-test

  # Create a device with a different operation
  testenv device sonic-lab1 --operation OSUpgrade --action InstallImage`,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]string{
				"operation":       operation,
				"operationAction": operationAction,
				"osVersion":       osVersion,
				"firmwareProfile": firmwareProfile,
			}
			return handlers.Device(cmd.Context(), configPath, args[0], overrides)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&operation, "operation", "", "Operation to request (default OSUpgrade)")
	cmd.Flags().StringVar(&operationAction, "action", "", "Operation action (default PreloadImage)")
	cmd.Flags().StringVar(&osVersion, "os-version", "", "Target OS version (default 202505.01)")
	cmd.Flags().StringVar(&firmwareProfile, "firmware-profile", "", "Firmware profile name")

	return cmd
}
