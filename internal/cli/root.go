// Package cli implements the metareg command-line interface: inspection and
// administration of the entity-type metadata registry.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metaforge-io/metareg/internal/sqlite"
	"github.com/metaforge-io/metareg/pkg/meta"
	"github.com/metaforge-io/metareg/pkg/metaservice"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// NewRootCmd creates the top-level "metareg" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metareg",
		Short: "Manage the entity-type metadata registry",
		Long: "Metareg administers the schema registry for dynamically defined\n" +
			"entity types: their attributes, packages, and storage backends.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .metareg)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default from config.yaml)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newEntityCmd())
	root.AddCommand(newPackageCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() string {
	if flags.configDir != "" {
		return flags.configDir
	}
	if v := os.Getenv("METAREG_CONFIG_DIR"); v != "" {
		return v
	}
	return ".metareg"
}

// openService loads config, opens the default backend, and bootstraps a
// metadata service against it. The returned close function releases the
// backend.
func openService() (*metaservice.Service, func(), error) {
	cfg, err := loadConfig(resolveConfigDir())
	if err != nil {
		return nil, nil, err
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	backend, err := sqlite.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}

	svc := metaservice.New(metaservice.WithLocales(meta.StaticLocales(cfg.Locales)))
	if err := svc.SetDefaultBackend(backend); err != nil {
		backend.Close()
		return nil, nil, err
	}
	return svc, func() { backend.Close() }, nil
}

// exitError prints the error to stderr and exits with the given code.
func exitError(code int, msg string) error {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
	return nil
}
