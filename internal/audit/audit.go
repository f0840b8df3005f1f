// Package audit appends staged-action transitions to a JSONL trail.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/deskflow/internal/logger"
)

const redacted = "[REDACTED]"

type Event string

const (
	EventStaged    Event = "staged"
	EventExecuted  Event = "executed"
	EventFailed    Event = "failed"
	EventCancelled Event = "cancelled"
	EventExpired   Event = "expired"
	EventPurged    Event = "purged"
)

type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	TraceID    string          `json:"trace_id,omitempty"`
	Event      Event           `json:"event"`
	ActionID   string          `json:"action_id"`
	ActionType string          `json:"action_type,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	Status     string          `json:"status"`
	RecordID   string          `json:"record_id,omitempty"`
	Message    string          `json:"message,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

type Filter struct {
	SessionID string
	ActionID  string
	Status    string
	Event     Event
	StartTime time.Time
	EndTime   time.Time
}

type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter *Filter) ([]*Entry, error)
}

// FileLogger writes one JSON entry per line. A disabled logger accepts
// entries and drops them.
type FileLogger struct {
	mu       sync.RWMutex
	path     string
	enabled  bool
	patterns []*regexp.Regexp
	literals []string
}

// NewFileLogger prepares the trail at path. Patterns that fail to compile
// are redacted as literal text.
func NewFileLogger(path string, enabled bool, redactPatterns []string) (*FileLogger, error) {
	if !enabled {
		return &FileLogger{}, nil
	}
	if path == "" {
		return nil, fmt.Errorf("audit path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}

	al := &FileLogger{path: path, enabled: true}
	for _, p := range redactPatterns {
		if p == "" {
			continue
		}
		if re, err := regexp.Compile(p); err == nil {
			al.patterns = append(al.patterns, re)
		} else {
			al.literals = append(al.literals, p)
		}
	}
	return al, nil
}

func (al *FileLogger) Enabled() bool {
	return al.enabled
}

func (al *FileLogger) Log(ctx context.Context, entry *Entry) error {
	if !al.enabled {
		return nil
	}
	if entry == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.TraceID == "" {
		entry.TraceID = logger.GetTraceID(ctx)
	}

	data, err := json.Marshal(al.redact(entry))
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	f, err := os.OpenFile(al.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}

	slog.Debug("Audit entry logged", "action_id", entry.ActionID, "event", entry.Event)
	return nil
}

func (al *FileLogger) Query(ctx context.Context, filter *Filter) ([]*Entry, error) {
	if !al.enabled {
		return []*Entry{}, nil
	}

	al.mu.RLock()
	defer al.mu.RUnlock()

	file, err := os.Open(al.path)
	if os.IsNotExist(err) {
		return []*Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	entries := []*Entry{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("Failed to parse audit entry", "error", err)
			continue
		}
		if filter == nil || filter.matches(&entry) {
			entries = append(entries, &entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (al *FileLogger) redact(entry *Entry) *Entry {
	out := *entry
	out.Message = al.redactString(entry.Message)
	if len(entry.Payload) == 0 {
		out.Payload = nil
		return &out
	}

	payload := al.redactString(string(entry.Payload))
	if !json.Valid([]byte(payload)) {
		// Redaction broke the document; keep it as an opaque string.
		quoted, _ := json.Marshal(payload)
		payload = string(quoted)
	}
	out.Payload = json.RawMessage(payload)
	return &out
}

func (al *FileLogger) redactString(s string) string {
	if s == "" {
		return s
	}
	for _, re := range al.patterns {
		s = re.ReplaceAllString(s, redacted)
	}
	for _, lit := range al.literals {
		s = strings.ReplaceAll(s, lit, redacted)
	}
	return s
}

func (f *Filter) matches(e *Entry) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.ActionID != "" && e.ActionID != f.ActionID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime) {
		return false
	}
	return true
}
