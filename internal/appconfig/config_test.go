package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingFile(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFrom_OverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yamlDoc := "prefix_key: ctrl+a\nscrollback_lines: 500\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.PrefixKey != "ctrl+a" {
		t.Errorf("PrefixKey = %q, want ctrl+a", cfg.PrefixKey)
	}
	if cfg.ScrollbackLines != 500 {
		t.Errorf("ScrollbackLines = %d, want 500", cfg.ScrollbackLines)
	}
	if cfg.PrefixTimeout != 1*time.Second {
		t.Errorf("PrefixTimeout should keep default, got %s", cfg.PrefixTimeout)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadFrom_RejectsNonPositiveScrollback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scrollback_lines: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for negative scrollback_lines")
	}
}

func TestDir_RespectsXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got, want := Dir(), filepath.Join("/tmp/xdg", "deckmux"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}
