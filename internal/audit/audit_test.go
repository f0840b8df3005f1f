package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/deskflow/internal/config"
	"github.com/harunnryd/deskflow/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLoggerDropsEntries(t *testing.T) {
	al, err := NewFileLogger("", false, nil)
	require.NoError(t, err)
	assert.False(t, al.Enabled())

	require.NoError(t, al.Log(context.Background(), &Entry{ActionID: "a"}))
	entries, err := al.Query(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "actions.jsonl")
	al, err := NewFileLogger(path, true, nil)
	require.NoError(t, err)

	ctx := logger.WithTraceID(context.Background(), "trace-1")
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, al.Log(ctx, &Entry{Timestamp: base, Event: EventStaged, ActionID: "a1", SessionID: "s1", Status: "PENDING"}))
	require.NoError(t, al.Log(ctx, &Entry{Timestamp: base.Add(time.Minute), Event: EventExecuted, ActionID: "a1", SessionID: "s1", Status: "EXECUTED", RecordID: "REQ1"}))
	require.NoError(t, al.Log(ctx, &Entry{Timestamp: base.Add(2 * time.Minute), Event: EventStaged, ActionID: "a2", SessionID: "s2", Status: "PENDING"}))

	all, err := al.Query(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "trace-1", all[0].TraceID)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{name: "session", filter: Filter{SessionID: "s1"}, want: 2},
		{name: "action", filter: Filter{ActionID: "a2"}, want: 1},
		{name: "status", filter: Filter{Status: "EXECUTED"}, want: 1},
		{name: "event", filter: Filter{Event: EventStaged}, want: 2},
		{name: "time range", filter: Filter{StartTime: base.Add(30 * time.Second), EndTime: base.Add(90 * time.Second)}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := al.Query(ctx, &tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRedaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	al, err := NewFileLogger(path, true, []string{
		config.DefaultAuditRedactTokenPattern,
		config.DefaultAuditRedactPasswordPattern,
		"([unclosed",
	})
	require.NoError(t, err)

	require.NoError(t, al.Log(context.Background(), &Entry{
		Event:    EventFailed,
		ActionID: "a1",
		Message:  "upstream rejected Bearer abc.def-123 for ([unclosed",
		Payload:  json.RawMessage(`{"accountName":"jdoe","password":"hunter2"}`),
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc.def-123")
	assert.NotContains(t, string(raw), "hunter2")
	assert.NotContains(t, string(raw), "([unclosed")

	entries, err := al.Query(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "upstream rejected [REDACTED] for [REDACTED]", entries[0].Message)

	var payload string
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	assert.Contains(t, payload, "jdoe")
	assert.Contains(t, payload, redacted)
}

func TestNewFileLoggerRequiresPath(t *testing.T) {
	_, err := NewFileLogger("", true, nil)
	assert.Error(t, err)
}
