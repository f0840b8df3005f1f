package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/itsm"
	"github.com/harunnryd/deskflow/internal/store"
)

func runCommand(t *testing.T, run func() error, cmdOut *bytes.Buffer) string {
	t.Helper()
	if err := run(); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	return cmdOut.String()
}

func TestCatalogLsCmd_OutputFlag(t *testing.T) {
	setHome(t)
	output := rootCmd.PersistentFlags().Lookup("output")
	if err := output.Value.Set("json"); err != nil {
		t.Fatalf("set output: %v", err)
	}
	t.Cleanup(func() { output.Value.Set(output.DefValue) })

	var out bytes.Buffer
	catalogLsCmd.SetOut(&out)
	t.Cleanup(func() { catalogLsCmd.SetOut(nil) })

	got := runCommand(t, func() error { return catalogLsCmd.RunE(catalogLsCmd, nil) }, &out)

	if !strings.HasPrefix(strings.TrimSpace(got), "[") || !strings.Contains(got, `"vpn-access"`) {
		t.Errorf("catalog ls -o json output is not a JSON list:\n%s", got)
	}
}

func TestOutputFlag_Default(t *testing.T) {
	if got := outputFlag(actionsLsCmd); got != "table" {
		t.Errorf("outputFlag() = %q, want table", got)
	}
}

func TestCatalogLsCmd(t *testing.T) {
	setHome(t)
	var out bytes.Buffer
	catalogLsCmd.SetOut(&out)
	t.Cleanup(func() { catalogLsCmd.SetOut(nil) })

	got := runCommand(t, func() error { return catalogLsCmd.RunE(catalogLsCmd, nil) }, &out)

	if !strings.Contains(got, "vpn-access") {
		t.Errorf("catalog ls output missing vpn-access:\n%s", got)
	}
}

func TestActionsLsCmd(t *testing.T) {
	home := setHome(t)
	paths, err := store.ResolvePaths("")
	if err != nil {
		t.Fatalf("ResolvePaths() failed: %v", err)
	}
	if !strings.HasPrefix(paths.Snapshot, home) {
		t.Fatalf("snapshot %s is outside HOME %s", paths.Snapshot, home)
	}

	s, err := actions.NewStore(itsm.NewDryRunExecutor(), time.Minute, actions.WithSnapshot(paths.Snapshot))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	ctx := context.Background()
	staged, err := s.Stage(ctx, actions.TypeRecordCreate, "s1", "alice", "preview", []byte(`{"service_id":"vpn-access"}`))
	if err != nil {
		t.Fatalf("Stage() failed: %v", err)
	}
	if res := s.Confirm(ctx, staged.ID, "s1", "alice"); !res.Success {
		t.Fatalf("Confirm() failed: %s", res.Message)
	}

	var out bytes.Buffer
	actionsLsCmd.SetOut(&out)
	t.Cleanup(func() { actionsLsCmd.SetOut(nil) })

	got := runCommand(t, func() error { return actionsLsCmd.RunE(actionsLsCmd, nil) }, &out)

	if !strings.Contains(got, staged.ID) || !strings.Contains(got, "EXECUTED") {
		t.Errorf("actions ls output missing the executed action:\n%s", got)
	}
}
