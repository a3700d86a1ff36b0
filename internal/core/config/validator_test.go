package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"version", func(c *Config) { c.Version = 2 }, "unsupported config version 2"},
		{"scoping", func(c *Config) { c.Analysis.Scoping = "dynamic" }, "analysis.scoping"},
		{"builtin", func(c *Config) { c.Analysis.BuiltinFunctions = []string{" "} }, "analysis.builtin_functions[0]"},
		{"rate", func(c *Config) { c.Watch.Rate = -1 }, "watch.rate"},
		{"bad glob", func(c *Config) { c.Watch.ExcludeFiles = []string{"[a"} }, "watch.exclude_files[0]"},
		{"empty dir", func(c *Config) { c.Watch.ExcludeDirs = []string{""} }, "watch.exclude_dirs[0]"},
		{"db path", func(c *Config) { c.DB.Enabled = true; c.DB.Path = " " }, "db.path"},
		{"retain", func(c *Config) { c.DB.Retain = -3 }, "db.retain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := Validate(cfg)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(errs[0].Error(), tt.wantErr) {
				t.Fatalf("expected %q in %q", tt.wantErr, errs[0].Error())
			}
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Version = 9
	cfg.Watch.Rate = -1
	cfg.DB.Retain = -1
	if errs := Validate(cfg); len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"*.gen.kite", "net.gen.kite", true},
		{"*.gen.kite", "gen/net.gen.kite", false},
		{"**.gen.kite", "gen/net.gen.kite", true},
		{"vendor", "vendor", true},
		{".*", ".git", true},
	}
	for _, tt := range tests {
		g, err := CompilePattern(tt.pattern)
		if err != nil {
			t.Fatalf("%q: %v", tt.pattern, err)
		}
		if got := g.Match(tt.name); got != tt.want {
			t.Errorf("%q.Match(%q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}

	cfg := Default()
	cfg.Watch.ExcludeFiles = []string{"[unclosed"}
	if _, err := CompilePattern("[unclosed"); err == nil {
		t.Fatal("expected compile error")
	}
	if errs := Validate(cfg); len(errs) == 0 {
		t.Fatal("expected Validate to reject what CompilePattern rejects")
	}
}
