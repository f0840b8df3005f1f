package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harunnryd/deskflow/internal/config"
)

func setupTestEnv(t *testing.T) {
	tmpDir := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() {
		if oldHome != "" {
			os.Setenv("HOME", oldHome)
		}
	})
	os.Setenv("HOME", tmpDir)
}

func TestNewRuntimeComponents(t *testing.T) {
	setupTestEnv(t)

	components, err := NewRuntimeComponents(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	defer components.Stop()

	if components.Orchestrator == nil {
		t.Error("Orchestrator is nil")
	}
	if components.Index != nil {
		t.Error("Index should be nil when semantic search is disabled")
	}
	if components.Errors == nil {
		t.Error("Errors mapper is nil")
	}
	if len(components.Catalog.Services()) == 0 {
		t.Error("bundled catalog is empty")
	}
	if !components.Lock.IsLocked() {
		t.Error("data dir lock not held")
	}
	if filepath.Base(components.Paths.Snapshot) != "actions.json" {
		t.Errorf("Snapshot = %v", components.Paths.Snapshot)
	}
}

func TestNewRuntimeComponents_DataDirIsExclusive(t *testing.T) {
	setupTestEnv(t)
	cfg := &config.Config{Store: config.StoreConfig{
		DataDir:      t.TempDir(),
		LockTimeout:  "50ms",
		LockRetry:    "10ms",
		LockMaxRetry: 2,
	}}

	first, err := NewRuntimeComponents(context.Background(), cfg)
	if err != nil {
		t.Fatalf("first runtime failed: %v", err)
	}
	defer first.Stop()

	if _, err := NewRuntimeComponents(context.Background(), cfg); err == nil {
		t.Error("expected second runtime on the same data dir to fail")
	}
}

func TestNewRuntimeComponents_SemanticWithoutKeyFallsBack(t *testing.T) {
	setupTestEnv(t)
	cfg := &config.Config{Semantic: config.SemanticConfig{Enabled: true}}

	components, err := NewRuntimeComponents(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	defer components.Stop()

	if components.Index != nil {
		t.Error("Index should be nil without an API key")
	}
	if components.Matcher == nil {
		t.Error("Matcher is nil")
	}
}

func TestRuntimeComponents_StartStop(t *testing.T) {
	setupTestEnv(t)
	cfg := &config.Config{Sweeper: config.SweeperConfig{Enabled: true, Schedule: "@every 1h"}}

	components, err := NewRuntimeComponents(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	if err := components.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	components.Stop()

	if components.Lock.IsLocked() {
		t.Error("lock still held after Stop")
	}
}

func TestRuntimeComponents_StopAfterCancel(t *testing.T) {
	setupTestEnv(t)
	cfg := &config.Config{Sweeper: config.SweeperConfig{Enabled: true, Schedule: "@every 1h"}}

	components, err := NewRuntimeComponents(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	defer components.Stop()
	if err := components.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	components.Cancel()

	if err := components.stopSweeper(); err != nil {
		t.Errorf("stopSweeper() after cancel = %v, want nil", err)
	}
}

func TestNewRuntimeBuilder_RequiresConfig(t *testing.T) {
	if _, err := NewRuntimeBuilder().Build(); err == nil {
		t.Error("Build() without config should fail")
	}
}
