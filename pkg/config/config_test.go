package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name" toml:"name"`
	Port  int    `yaml:"port" toml:"port"`
	Level string `yaml:"level" toml:"level"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_YAMLWithEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeConfig(t, "c.yaml", "name: ${SAMPLE_NAME}\nport: 9000\n")

	got := sample{Level: "info"}
	if err := Load(p, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "from-env" || got.Port != 9000 || got.Level != "info" {
		t.Errorf("got %+v", got)
	}
}

func TestLoad_TOML(t *testing.T) {
	p := writeConfig(t, "c.toml", "name = \"toml\"\nport = 7000\n")
	var got sample
	if err := Load(p, &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "toml" || got.Port != 7000 {
		t.Errorf("got %+v", got)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeConfig(t, "c.yml", "name: x\nport: 0\n")
	var got sample
	err := Load(p, &got)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v, want validation failure", err)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	got := sample{Name: "default", Port: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &got); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if got.Name != "default" {
		t.Errorf("got %+v", got)
	}
	if err := LoadOptional("", &sample{}); err == nil {
		t.Error("defaults should still be validated")
	}
}
