package commands

import (
	"github.com/spf13/cobra"

	"github.com/sonic-net/sonic-testenv/cmd/testenv/handlers"
)

// ImageServer returns the command that serves the synthetic firmware
// catalog over HTTP until interrupted.
func ImageServer() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "imageserver",
		Short: "Serve synthetic firmware images over HTTP",
		Long: `Run the synthetic firmware image server in the foreground.

The server stages a fixed catalog of dummy firmware files and serves them
under /images/ until interrupted. Agent operations that download firmware
can be pointed at the printed URLs.

Examples:
  testenv imageserver
  testenv imageserver --port 9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ImageServer(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")

	return cmd
}
