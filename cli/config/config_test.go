package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DefaultModel != "" || cfg.BaseURL != "" {
		t.Errorf("cfg = %+v, want zero value", cfg)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_model: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() error = nil, want parse error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &Config{
		DefaultModel:   "llama-3.3-70b",
		BaseURL:        "https://proxy.example.com/api/v1",
		APIKeyRef:      "work",
		TimeoutSeconds: 120,
	}
	if err := Save(want, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *got != *want {
		t.Errorf("LoadConfig() = %+v, want %+v", got, want)
	}
}

func TestKeyRefDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.KeyRef(); got != "venice" {
		t.Errorf("KeyRef() = %q, want venice", got)
	}
	cfg.APIKeyRef = "personal"
	if got := cfg.KeyRef(); got != "personal" {
		t.Errorf("KeyRef() = %q, want personal", got)
	}
}
