package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/specgraph/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFullConfig_SectionValidation(t *testing.T) {
	cases := map[string]func(*Config){
		"risk":   func(c *Config) { c.Risk.MediumMax = 1 },
		"impact": func(c *Config) { c.Impact.MaxDepth = 50 },
		"health": func(c *Config) { c.Health.TopN = 0 },
		"specs":  func(c *Config) { c.Specs.Workers = 100 },
		"auth":   func(c *Config) { c.Auth.Mode = "token" },
	}
	for name, mutate := range cases {
		cfg := NewDefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestConfig_LoadYAMLOverDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	content := "app:\n  log_level: debug\nspecs:\n  root: ./docs\nrisk:\n  api_bonus: 3\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := config.Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Specs.Root != "./docs" || cfg.Specs.Filename != "spec.md" {
		t.Errorf("specs = %+v", cfg.Specs)
	}
	if cfg.Risk.APIBonus != 3 || cfg.Risk.DirectHigh != 4 {
		t.Errorf("risk = %+v", cfg.Risk)
	}
	if cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("log level = %s", cfg.App.LogLevel)
	}
}

func TestConfig_LoadTOML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	content := "[impact]\nmax_depth = 3\n\n[health]\ntop_n = 10\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := config.Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Impact.MaxDepth != 3 || cfg.Health.TopN != 10 {
		t.Errorf("impact = %+v health = %+v", cfg.Impact, cfg.Health)
	}
}
