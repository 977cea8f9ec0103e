package commands

import (
	"os"
	"path/filepath"
	"testing"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	origCfgFile, origModel, origBaseURL, origCfg := cfgFile, model, baseURL, cfg
	t.Cleanup(func() {
		cfgFile, model, baseURL, cfg = origCfgFile, origModel, origBaseURL, origCfg
	})
	cfgFile, model, baseURL = "", "", ""
}

func TestInitConfigAppliesDefaults(t *testing.T) {
	resetGlobals(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "default_model: llama-3.3-70b\nbase_url: https://proxy.example.com/api/v1\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfgFile = path

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}
	if model != "llama-3.3-70b" {
		t.Errorf("model = %q, want config default", model)
	}
	if baseURL != "https://proxy.example.com/api/v1" {
		t.Errorf("baseURL = %q, want config value", baseURL)
	}
}

func TestInitConfigFlagsWinOverConfig(t *testing.T) {
	resetGlobals(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_model: from-config\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfgFile = path
	model = "from-flag"

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v", err)
	}
	if model != "from-flag" {
		t.Errorf("model = %q, want the flag value", model)
	}
}

func TestInitConfigMissingFile(t *testing.T) {
	resetGlobals(t)

	cfgFile = filepath.Join(t.TempDir(), "absent.yaml")

	if err := initConfig(); err != nil {
		t.Fatalf("initConfig() error = %v for a missing file", err)
	}
	if cfg == nil {
		t.Fatal("cfg not initialized")
	}
	if cfg.KeyRef() != "venice" {
		t.Errorf("KeyRef() = %q, want venice", cfg.KeyRef())
	}
}

func TestRootCommandRegistration(t *testing.T) {
	want := map[string]bool{
		"chat":    false,
		"models":  false,
		"keys":    false,
		"version": false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered on root", name)
		}
	}
}
