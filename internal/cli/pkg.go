package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaforge-io/metareg/pkg/meta"
)

func newPackageCmd() *cobra.Command {
	pkg := &cobra.Command{
		Use:   "package",
		Short: "Inspect and administer packages",
	}
	pkg.AddCommand(newPackageListCmd())
	pkg.AddCommand(newPackageAddCmd())
	return pkg
}

func newPackageListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List packages as a tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer closeFn()

			if flags.jsonMode {
				return printJSON(cmd, svc.Packages())
			}
			for _, root := range svc.RootPackages() {
				printPackage(cmd, root, 0)
			}
			return nil
		},
	}
}

func printPackage(cmd *cobra.Command, p *meta.Package, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(cmd.OutOrStdout(), "  ")
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.Name)
	for _, child := range p.Children {
		printPackage(cmd, child, depth+1)
	}
}

func newPackageAddCmd() *cobra.Command {
	var parent, description string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer closeFn()

			p := &meta.Package{Name: args[0], Parent: parent, Description: description}
			if err := svc.AddPackage(p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "added", p.Name)
			return nil
		},
	}
	add.Flags().StringVar(&parent, "parent", "", "parent package name")
	add.Flags().StringVar(&description, "description", "", "package description")
	return add
}
