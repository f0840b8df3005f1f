package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harunnryd/deskflow/internal/config"

	"github.com/spf13/cobra"
)

func setHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	home := os.Getenv("HOME")
	t.Cleanup(func() {
		if home != "" {
			os.Setenv("HOME", home)
		}
	})
	os.Setenv("HOME", tmpDir)
	return tmpDir
}

func TestConfigInitCmd(t *testing.T) {
	tmpDir := setHome(t)

	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Errorf("Config init failed: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".deskflow", "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Errorf("Config file not created at %s", configPath)
	}

	if err := configInitCmd.RunE(&cobra.Command{}, nil); err != nil {
		t.Errorf("Config init should succeed when config exists: %v", err)
	}

	loaded, err := config.Load(nil)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if !loaded.ITSM.DryRun {
		t.Error("generated config should start in dry-run mode")
	}
}

func TestConfigViewCmd_MasksSecrets(t *testing.T) {
	setHome(t)
	t.Setenv("DESKFLOW_ITSM_TOKEN", "itsm-secret-token")

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := configViewCmd.RunE(cmd, nil); err != nil {
		t.Fatalf("Config view failed: %v", err)
	}
	if strings.Contains(out.String(), "itsm-secret-token") {
		t.Error("config view leaked the ITSM token")
	}
}

func TestRedactConfigSecrets(t *testing.T) {
	original := &config.Config{
		Models: config.ModelsConfig{APIKey: "sk-secret-123456"},
		ITSM:   config.ITSMConfig{Token: "itsm-secret-token"},
	}

	redacted := redactConfigSecrets(original)

	if redacted == nil {
		t.Fatal("redacted config should not be nil")
	}
	if strings.Contains(redacted.Models.APIKey, "secret") {
		t.Fatal("masked model API key should not leak original value")
	}
	if redacted.ITSM.Token == original.ITSM.Token {
		t.Fatal("itsm token should be masked")
	}
	if original.Models.APIKey != "sk-secret-123456" {
		t.Fatal("original config must not be modified")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Fatalf("empty secret: got %q", got)
	}
	if got := maskSecret("abc"); got != "****" {
		t.Fatalf("short secret: got %q", got)
	}

	got := maskSecret("abcdef")
	if len(got) != len("abcdef") {
		t.Fatalf("masked secret length mismatch: got %d", len(got))
	}
	if got[:2] != "ab" || got[len(got)-2:] != "ef" {
		t.Fatalf("masked secret should preserve prefix/suffix: got %q", got)
	}
}
