package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metaforge-io/metareg/pkg/meta"
)

func newEntityCmd() *cobra.Command {
	entity := &cobra.Command{
		Use:   "entity",
		Short: "Inspect and administer entity types",
	}
	entity.AddCommand(newEntityListCmd())
	entity.AddCommand(newEntityShowCmd())
	entity.AddCommand(newEntityDeleteCmd())
	return entity
}

func newEntityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered entity types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer closeFn()

			entities := svc.EntityTypes()
			if flags.jsonMode {
				return printJSON(cmd, entities)
			}
			for _, e := range entities {
				kind := "concrete"
				if e.Abstract {
					kind = "abstract"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-10s attrs=%d", e.FullName, kind, len(e.Attributes))
				if e.Package != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " package=%s", e.Package)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}

func newEntityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show one entity type definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer closeFn()

			e := svc.EntityType(args[0])
			if e == nil {
				return fmt.Errorf("%w: %q", meta.ErrUnknownEntity, args[0])
			}
			if flags.jsonMode {
				return printJSON(cmd, e)
			}
			fmt.Fprintln(cmd.OutOrStdout(), e.FullName)
			for _, a := range e.Attributes {
				flagsStr := ""
				if a.IDAttribute {
					flagsStr += " id"
				}
				if !a.Nillable {
					flagsStr += " not-null"
				}
				if a.RefEntity != "" {
					flagsStr += " -> " + a.RefEntity
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s%s\n", a.Name, a.DataType, flagsStr)
			}
			return nil
		},
	}
}

func newEntityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an entity type and its physical storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService()
			if err != nil {
				return exitError(exitSysError, err.Error())
			}
			defer closeFn()

			if meta.IsSystemEntity(args[0]) {
				return fmt.Errorf("refusing to delete system entity type %q", args[0])
			}
			if err := svc.DeleteEntityMeta(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
