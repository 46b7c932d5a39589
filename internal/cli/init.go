package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the metadata registry",
		Long:  "Create configuration and data directories, then bootstrap the metadata tables in the default backend.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService()
	if err != nil {
		return exitError(exitSysError, fmt.Sprintf("init: %s", err))
	}
	defer closeFn()

	fmt.Fprintln(cmd.OutOrStdout(), "Metadata registry initialized")
	fmt.Fprintln(cmd.OutOrStdout(), "  config:", resolveConfigDir())
	fmt.Fprintln(cmd.OutOrStdout(), "  backend:", svc.DefaultBackend().Name())
	for _, e := range svc.EntityTypes() {
		fmt.Fprintln(cmd.OutOrStdout(), "  entity:", e.FullName)
	}
	return nil
}
