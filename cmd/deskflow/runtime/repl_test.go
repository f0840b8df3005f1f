package runtime

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/harunnryd/deskflow/internal/config"
)

func newTestREPL(t *testing.T, input string) (*REPL, *bytes.Buffer) {
	t.Helper()
	setupTestEnv(t)

	components, err := NewRuntimeComponents(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	t.Cleanup(components.Stop)

	var out bytes.Buffer
	return NewREPL(components, strings.NewReader(input), &out, "alice"), &out
}

func TestREPL_SubmitsRequest(t *testing.T) {
	input := strings.Join([]string{
		"I need VPN access",
		"yes",
		"1",
		"Working from home during the office move",
		"confirm",
		"/exit",
	}, "\n") + "\n"
	repl, out := newTestREPL(t, input)

	if err := repl.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Request number: REQ") {
		t.Errorf("expected a request number, got:\n%s", got)
	}
}

func TestREPL_Commands(t *testing.T) {
	input := "I need VPN access\n/pending\n/lang fr\n/reset\n/bogus\n/help\n"
	repl, out := newTestREPL(t, input)
	session := repl.SessionID()

	if err := repl.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"No pending actions.", "Language set to fr", "Conversation reset.", "Unknown command /bogus", "/session [id]"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if _, ok := repl.components.Dialogs.Get(session); ok {
		t.Error("dialog state survived /reset")
	}
}

func TestREPL_SwitchUserStartsNewSession(t *testing.T) {
	repl, _ := newTestREPL(t, "/user bob\n")
	before := repl.SessionID()

	if err := repl.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if repl.userID != "bob" {
		t.Errorf("userID = %v, want bob", repl.userID)
	}
	if repl.SessionID() == before {
		t.Error("session did not change")
	}
}
