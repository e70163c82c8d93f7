package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
}

func TestNew_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := "base_url: https://tasks.example.com\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(settings), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.BaseURL != "https://tasks.example.com" {
		t.Errorf("BaseURL = %q, want settings file value", cfg.BaseURL)
	}
}

func TestNew_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	settings := "base_url: https://file.example.com\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(settings), 0600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	t.Setenv("TASKDECK_API_URL", "https://env.example.com")

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.BaseURL != "https://env.example.com" {
		t.Errorf("BaseURL = %q, want environment to beat the settings file", cfg.BaseURL)
	}
}

func TestCredentialPath(t *testing.T) {
	cfg := &Config{Dir: "/tmp/taskdeck-test"}
	want := filepath.Join("/tmp/taskdeck-test", CredentialFile)
	if got := cfg.CredentialPath(); got != want {
		t.Errorf("CredentialPath = %q, want %q", got, want)
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/xdg")
	want := filepath.Join("/custom/xdg", AppName)
	if got := DefaultConfigDir(); got != want {
		t.Errorf("DefaultConfigDir = %q, want %q", got, want)
	}
}
