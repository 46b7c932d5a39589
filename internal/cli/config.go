// Config loading for the metareg CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/metaforge-io/metareg/pkg/meta"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileFull = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyLocales = "locales"

	defaultDataDir = ".metareg-db"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Metareg configuration

# Default physical backend hosting the metadata tables
backend: sqlite

# Data directory (overridable by --data-dir)
data_dir: .metareg-db

# Active locale codes; each adds per-locale label/description slots
# to the metadata tables at bootstrap
locales:
  - en
`

// loadConfig reads config.yaml from the config directory using Viper,
// creating the directory and a default file on first run. A missing
// config.yaml is not an error.
func loadConfig(configDir string) (meta.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return meta.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return meta.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, meta.BackendSQLite)
	v.SetDefault(cfgKeyDataDir, defaultDataDir)
	v.SetDefault(cfgKeyLocales, []string{"en"})
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return meta.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return meta.Config{
		Backend: v.GetString(cfgKeyBackend),
		DataDir: v.GetString(cfgKeyDataDir),
		Locales: v.GetStringSlice(cfgKeyLocales),
	}, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileFull)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
