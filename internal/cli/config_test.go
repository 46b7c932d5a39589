package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/metaforge-io/metareg/pkg/meta"
)

func TestLoadConfig_WritesDefaultOnFirstRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fresh")

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Backend != meta.BackendSQLite {
		t.Errorf("backend = %q", cfg.Backend)
	}
	if cfg.DataDir != defaultDataDir {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if len(cfg.Locales) != 1 || cfg.Locales[0] != "en" {
		t.Errorf("locales = %v", cfg.Locales)
	}

	if _, err := os.Stat(filepath.Join(dir, configFileFull)); err != nil {
		t.Errorf("default config.yaml not written: %v", err)
	}
}

func TestLoadConfig_ReadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	content := "backend: sqlite\ndata_dir: /tmp/custom\nlocales:\n  - en\n  - nl\n"
	if err := os.WriteFile(filepath.Join(dir, configFileFull), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.DataDir != "/tmp/custom" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if len(cfg.Locales) != 2 || cfg.Locales[1] != "nl" {
		t.Errorf("locales = %v", cfg.Locales)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := meta.Config{Backend: "", DataDir: "x"}
	if err := cfg.Validate(); err == nil {
		t.Error("empty backend should fail validation")
	}
	cfg.Backend = "oracle"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown backend should fail validation")
	}
	cfg.Backend = meta.BackendSQLite
	if err := cfg.Validate(); err != nil {
		t.Errorf("sqlite backend should validate: %v", err)
	}
}
