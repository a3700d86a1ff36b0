package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	kerrors "kite/internal/core/errors"
)

func TestLoad(t *testing.T) {
	content := `
version = 1

[project]
root = "infra"
provider_dir = "vendor/providers"

[analysis]
scoping = "lexical"
builtin_functions = ["lookup"]
cache_size = 64

[watch]
paths = ["infra", "modules"]
debounce = "1s"
exclude_dirs = [".git", "build"]
exclude_files = ["*.generated.kite"]
rate = 2.5
burst = 3

[db]
enabled = true
path = "state/history.db"
retain = 20
`
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Project.Root != "infra" || cfg.Project.ProviderDir != "vendor/providers" {
		t.Errorf("unexpected project: %+v", cfg.Project)
	}
	if cfg.Project.GlobalProviderDir != "~/.kite/providers" {
		t.Errorf("global provider dir not defaulted: %q", cfg.Project.GlobalProviderDir)
	}
	if cfg.Analysis.Scoping != "lexical" || cfg.Analysis.CacheSize != 64 {
		t.Errorf("unexpected analysis: %+v", cfg.Analysis)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %v", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Paths) != 2 || cfg.Watch.Rate != 2.5 || cfg.Watch.Burst != 3 {
		t.Errorf("unexpected watch: %+v", cfg.Watch)
	}
	if !cfg.DB.Enabled || cfg.DB.Retain != 20 || cfg.DB.BusyTimeout != 5*time.Second {
		t.Errorf("unexpected db: %+v", cfg.DB)
	}
	if cfg.Observability.ServiceName != "kite" {
		t.Errorf("service name not defaulted: %q", cfg.Observability.ServiceName)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.Scoping != "flat" {
		t.Errorf("expected flat scoping, got %q", cfg.Analysis.Scoping)
	}
	if cfg.Analysis.CacheSize != 512 {
		t.Errorf("expected cache size 512, got %d", cfg.Analysis.CacheSize)
	}
	if cfg.Watch.Debounce != 300*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.Watch.Debounce)
	}
}

func TestParse_DecodeError(t *testing.T) {
	_, err := Parse("version = ")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !kerrors.IsCode(err, kerrors.CodeValidationError) {
		t.Errorf("expected validation code, got %v", err)
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("KITE_ANALYSIS_SCOPING", "lexical")
	t.Setenv("KITE_WATCH_DEBOUNCE", "2s")
	t.Setenv("KITE_DB_ENABLED", "true")
	t.Setenv("KITE_ANALYSIS_CACHE_SIZE", "not-a-number")

	cfg, err := Parse(`[analysis]
scoping = "flat"
cache_size = 10`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Analysis.Scoping != "lexical" {
		t.Errorf("env scoping not applied: %q", cfg.Analysis.Scoping)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("env debounce not applied: %v", cfg.Watch.Debounce)
	}
	if !cfg.DB.Enabled {
		t.Error("env db.enabled not applied")
	}
	if cfg.Analysis.CacheSize != 10 {
		t.Errorf("invalid env int must be ignored, got %d", cfg.Analysis.CacheSize)
	}
}
