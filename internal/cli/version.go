package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI release version, overridden at build time via
// -ldflags "-X github.com/metaforge-io/metareg/internal/cli.Version=...".
var Version = "0.3.0"

const modulePath = "github.com/metaforge-io/metareg"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the metareg version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "metareg v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
