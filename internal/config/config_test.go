package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProfileA.Name != "a" || cfg.ProfileB.Name != "b" {
		t.Errorf("profile names = %q/%q, want a/b", cfg.ProfileA.Name, cfg.ProfileB.Name)
	}
	if cfg.StateDir == "" {
		t.Error("state_dir not defaulted")
	}
	if cfg.Log.MaxSizeMB != 10 {
		t.Errorf("log.max_size_mb = %d, want 10", cfg.Log.MaxSizeMB)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
profile_a:
  name: home
  path: /profiles/home
profile_b:
  name: laptop
  path: /profiles/laptop
state_dir: /var/lib/bpsync
log:
  file: /var/log/bpsync.log
  verbose: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProfileA.Name != "home" || cfg.ProfileA.Path != "/profiles/home" {
		t.Errorf("profile_a = %+v", cfg.ProfileA)
	}
	if cfg.ProfileB.Name != "laptop" {
		t.Errorf("profile_b = %+v", cfg.ProfileB)
	}
	if cfg.StateDir != "/var/lib/bpsync" {
		t.Errorf("state_dir = %q", cfg.StateDir)
	}
	if cfg.Log.File != "/var/log/bpsync.log" || !cfg.Log.Verbose {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("state_dir: \"unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed yaml")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("state_dir: /from/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BPSYNC_STATE_DIR", "/from/env")
	t.Setenv("BPSYNC_PROFILE_A_NAME", "work")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StateDir != "/from/env" {
		t.Errorf("state_dir = %q, want env value", cfg.StateDir)
	}
	if cfg.ProfileA.Name != "work" {
		t.Errorf("profile_a.name = %q, want env value", cfg.ProfileA.Name)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#") {
		t.Error("written config has no explanatory header")
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() of written default error = %v", err)
	}
	if cfg.ProfileA.Name != "a" {
		t.Errorf("round-tripped profile_a.name = %q", cfg.ProfileA.Name)
	}

	if err := WriteDefault(path); err == nil {
		t.Error("WriteDefault() overwrote an existing file")
	}
}
