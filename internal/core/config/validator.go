package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	kerrors "kite/internal/core/errors"
	"kite/internal/engine/symbols"
)

func validate(cfg *Config) error {
	if errs := Validate(cfg); len(errs) > 0 {
		return kerrors.Wrap(errors.Join(errs...), kerrors.CodeValidationError, "invalid config")
	}
	return nil
}

// Validate returns every problem with cfg rather than stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error
	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version))
	}
	if _, err := symbols.ParseScoping(cfg.Analysis.Scoping); err != nil {
		errs = append(errs, fmt.Errorf("analysis.scoping: %w", err))
	}
	for i, name := range cfg.Analysis.BuiltinFunctions {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("analysis.builtin_functions[%d] must not be empty", i))
		}
	}
	if cfg.Analysis.MaxHeapMB < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_heap_mb must not be negative"))
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative"))
	}
	if cfg.Watch.Rate < 0 {
		errs = append(errs, fmt.Errorf("watch.rate must not be negative"))
	}
	errs = append(errs, validatePatterns("watch.exclude_dirs", cfg.Watch.ExcludeDirs)...)
	errs = append(errs, validatePatterns("watch.exclude_files", cfg.Watch.ExcludeFiles)...)
	if cfg.DB.Enabled && strings.TrimSpace(cfg.DB.Path) == "" {
		errs = append(errs, fmt.Errorf("db.path must not be empty when db.enabled=true"))
	}
	if cfg.DB.Retain < 0 {
		errs = append(errs, fmt.Errorf("db.retain must not be negative"))
	}
	return errs
}

func validatePatterns(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%s[%d] must not be empty", field, i))
			continue
		}
		if _, err := CompilePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d] %q: %w", field, i, p, err))
		}
	}
	return errs
}

// CompilePattern compiles an exclude pattern with '/' as the separator, so
// `*` stays within one path segment and `**` crosses segments. Validation,
// the project scan and the file watcher all compile through here.
func CompilePattern(pattern string) (glob.Glob, error) {
	return glob.Compile(pattern, '/')
}
