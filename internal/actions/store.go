package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/harunnryd/deskflow/internal/audit"
	"github.com/harunnryd/deskflow/internal/concurrency"
	dfErrors "github.com/harunnryd/deskflow/internal/errors"
	"github.com/harunnryd/deskflow/internal/logger"

	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

// Store owns every PendingAction. Confirm and Cancel on one id are
// serialized; different ids never wait on each other.
type Store struct {
	mu        sync.RWMutex
	actions   map[string]*PendingAction
	executing map[string]struct{}
	locks     *concurrency.KeyedMutex

	executor     Executor
	mapper       dfErrors.ErrorMapper
	audit        audit.Logger
	timeout      time.Duration
	retention    time.Duration
	snapshotPath string
	now          func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSnapshot persists the action map to path after every transition and
// restores it on start-up.
func WithSnapshot(path string) Option {
	return func(s *Store) { s.snapshotPath = path }
}

func WithAudit(l audit.Logger) Option {
	return func(s *Store) { s.audit = l }
}

// WithRetention keeps terminal actions for d before Sweep purges them.
func WithRetention(d time.Duration) Option {
	return func(s *Store) { s.retention = d }
}

func WithErrorMapper(m dfErrors.ErrorMapper) Option {
	return func(s *Store) { s.mapper = m }
}

func NewStore(executor Executor, timeout time.Duration, opts ...Option) (*Store, error) {
	if executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("action timeout must be positive")
	}

	s := &Store{
		actions:   make(map[string]*PendingAction),
		executing: make(map[string]struct{}),
		locks:     concurrency.NewKeyedMutex(),
		executor:  executor,
		mapper:    dfErrors.NewDefaultErrorMapper(),
		timeout:   timeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.snapshotPath != "" {
		loaded, err := LoadSnapshot(s.snapshotPath)
		if err != nil {
			return nil, err
		}
		for _, a := range loaded {
			s.actions[a.ID] = a
		}
	}
	return s, nil
}

// Stage records a new PENDING action. Nothing is executed yet.
func (s *Store) Stage(ctx context.Context, actionType Type, sessionID, userID, preview string, payload json.RawMessage) (*PendingAction, error) {
	if sessionID == "" || userID == "" {
		return nil, dfErrors.InvalidInput("session and user are required")
	}
	if !json.Valid(payload) {
		return nil, dfErrors.InvalidInput("payload must be valid JSON")
	}

	now := s.now()
	action := &PendingAction{
		ID:        ulid.Make().String(),
		Type:      actionType,
		SessionID: sessionID,
		UserID:    userID,
		Preview:   preview,
		StagedAt:  now,
		ExpiresAt: now.Add(s.timeout),
		Status:    StatusPending,
		Payload:   append(json.RawMessage(nil), payload...),
	}

	s.mu.Lock()
	s.actions[action.ID] = action
	if err := s.saveLocked(); err != nil {
		delete(s.actions, action.ID)
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to persist action: %w", err)
	}
	out := action.clone()
	s.mu.Unlock()

	logger.FromContext(ctx).Info("Action staged", "action_id", out.ID, "type", out.Type, "expires_at", out.ExpiresAt)
	s.record(ctx, audit.EventStaged, out)
	return out, nil
}

// Confirm executes a PENDING action exactly once. Unknown and foreign ids
// get the same not-found answer.
func (s *Store) Confirm(ctx context.Context, actionID, sessionID, userID string) ConfirmationResult {
	unlock := s.locks.Lock(actionID)
	defer unlock()

	log := logger.FromContext(ctx).With("action_id", actionID)

	s.mu.Lock()
	action, ok := s.actions[actionID]
	if !ok || !action.ownedBy(sessionID, userID) {
		s.mu.Unlock()
		return ConfirmationResult{Outcome: OutcomeNotFound, Message: MsgNotFound}
	}
	if res, expired, done := s.checkPendingLocked(ctx, action); done {
		s.mu.Unlock()
		if expired != nil {
			s.record(ctx, audit.EventExpired, expired)
		}
		return res
	}
	s.executing[actionID] = struct{}{}
	actionType, payload := action.Type, action.Payload
	s.mu.Unlock()

	result, execErr := s.execute(ctx, actionType, payload)

	s.mu.Lock()
	delete(s.executing, actionID)
	action.ResolvedAt = s.now()
	if execErr != nil {
		mapped := s.mapper.MapError(execErr)
		action.Status = StatusFailed
		action.Message = execErr.Error()
		snap := action.clone()
		s.persistLocked(ctx)
		s.mu.Unlock()

		log.Error("Action execution failed", "error", execErr, "category", s.mapper.Category(mapped))
		s.record(ctx, audit.EventFailed, snap)
		return ConfirmationResult{
			Outcome: OutcomeFailed,
			Status:  StatusFailed,
			Message: "execution failed: " + execErr.Error(),
			Err:     mapped,
		}
	}

	action.Status = StatusExecuted
	action.RecordID = result.RecordID
	action.Message = result.Message
	snap := action.clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	log.Info("Action executed", "record_id", result.RecordID)
	s.record(ctx, audit.EventExecuted, snap)

	msg := result.Message
	if msg == "" {
		msg = "request created: " + result.RecordID
	}
	return ConfirmationResult{
		Outcome:  OutcomeExecuted,
		Success:  true,
		RecordID: result.RecordID,
		Status:   StatusExecuted,
		Message:  msg,
	}
}

// Cancel moves a PENDING action to CANCELLED. Cancelling a terminal action
// is not an error; it reports Cancelled=false.
func (s *Store) Cancel(ctx context.Context, actionID, sessionID, userID string) ConfirmationResult {
	unlock := s.locks.Lock(actionID)
	defer unlock()

	s.mu.Lock()
	action, ok := s.actions[actionID]
	if !ok || !action.ownedBy(sessionID, userID) {
		s.mu.Unlock()
		return ConfirmationResult{Outcome: OutcomeNotFound, Message: MsgNotFound}
	}
	if res, expired, done := s.checkPendingLocked(ctx, action); done {
		s.mu.Unlock()
		if expired != nil {
			s.record(ctx, audit.EventExpired, expired)
		}
		return res
	}

	action.Status = StatusCancelled
	action.ResolvedAt = s.now()
	snap := action.clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	logger.FromContext(ctx).Info("Action cancelled", "action_id", actionID)
	s.record(ctx, audit.EventCancelled, snap)
	return ConfirmationResult{
		Outcome:   OutcomeCancelled,
		Cancelled: true,
		Status:    StatusCancelled,
		Message:   "action cancelled",
	}
}

// PendingForSession lists the session's actions that are still PENDING,
// oldest first. Expired ones are marked on the way.
func (s *Store) PendingForSession(ctx context.Context, sessionID string) []*PendingAction {
	s.mu.Lock()
	var out []*PendingAction
	var expired []*PendingAction
	for _, a := range s.actions {
		if a.SessionID != sessionID {
			continue
		}
		if s.expireLocked(a) {
			expired = append(expired, a.clone())
			continue
		}
		if a.Status == StatusPending {
			out = append(out, a.clone())
		}
	}
	if len(expired) > 0 {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	for _, a := range expired {
		s.record(ctx, audit.EventExpired, a)
	}
	sortByStaged(out)
	return out
}

// Get returns a copy of an action regardless of owner. It is meant for
// operators, not for the chat surface.
func (s *Store) Get(actionID string) (*PendingAction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[actionID]
	if !ok {
		return nil, false
	}
	return a.clone(), true
}

// All returns a copy of every action, oldest first.
func (s *Store) All() []*PendingAction {
	s.mu.RLock()
	out := make([]*PendingAction, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a.clone())
	}
	s.mu.RUnlock()
	sortByStaged(out)
	return out
}

// Sweep marks overdue PENDING actions EXPIRED and drops terminal actions
// resolved longer than the retention period ago. Accessors never rely on it.
func (s *Store) Sweep(ctx context.Context) (expired, purged int) {
	s.mu.Lock()
	now := s.now()
	var expiredSnaps, purgedSnaps []*PendingAction
	for id, a := range s.actions {
		if s.expireLocked(a) {
			expiredSnaps = append(expiredSnaps, a.clone())
			continue
		}
		if a.Status.Terminal() && s.retention > 0 && !a.ResolvedAt.IsZero() && now.Sub(a.ResolvedAt) > s.retention {
			purgedSnaps = append(purgedSnaps, a.clone())
			delete(s.actions, id)
		}
	}
	if len(expiredSnaps)+len(purgedSnaps) > 0 {
		s.persistLocked(ctx)
	}
	s.mu.Unlock()

	for _, a := range expiredSnaps {
		s.record(ctx, audit.EventExpired, a)
	}
	for _, a := range purgedSnaps {
		s.record(ctx, audit.EventPurged, a)
	}
	return len(expiredSnaps), len(purgedSnaps)
}

// checkPendingLocked answers for actions that cannot be acted on. An
// overdue PENDING action is expired first and its snapshot returned for
// auditing.
func (s *Store) checkPendingLocked(ctx context.Context, a *PendingAction) (ConfirmationResult, *PendingAction, bool) {
	if s.expireLocked(a) {
		s.persistLocked(ctx)
		return ConfirmationResult{Outcome: OutcomeExpired, Status: StatusExpired, Message: MsgExpired}, a.clone(), true
	}
	if a.Status == StatusPending {
		return ConfirmationResult{}, nil, false
	}
	if a.Status == StatusExpired || s.now().After(a.ExpiresAt) {
		return ConfirmationResult{Outcome: OutcomeExpired, Status: a.Status, Message: MsgExpired}, nil, true
	}
	return ConfirmationResult{
		Outcome: OutcomeNotPending,
		Status:  a.Status,
		Message: fmt.Sprintf("action is not pending (already %s)", a.Status),
	}, nil, true
}

// expireLocked flips an overdue, idle PENDING action to EXPIRED.
func (s *Store) expireLocked(a *PendingAction) bool {
	if a.Status != StatusPending {
		return false
	}
	if _, busy := s.executing[a.ID]; busy {
		return false
	}
	now := s.now()
	if !now.After(a.ExpiresAt) {
		return false
	}
	a.Status = StatusExpired
	a.ResolvedAt = now
	return true
}

func (s *Store) execute(ctx context.Context, actionType Type, payload json.RawMessage) (res *ExecutionResult, err error) {
	defer concurrency.Recover("actions.execute", func(r interface{}) {
		err = dfErrors.Internal(fmt.Sprintf("executor panic: %v", r))
	})

	res, err = s.executor.Execute(ctx, actionType, payload)
	if err == nil && res == nil {
		err = dfErrors.Execution("executor returned no result")
	}
	return res, err
}

func (s *Store) record(ctx context.Context, event audit.Event, a *PendingAction) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		Timestamp:  s.now(),
		Event:      event,
		ActionID:   a.ID,
		ActionType: string(a.Type),
		SessionID:  a.SessionID,
		UserID:     a.UserID,
		Status:     string(a.Status),
		RecordID:   a.RecordID,
		Message:    a.Message,
	}
	if event == audit.EventStaged {
		entry.Payload = a.Payload
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		slog.Warn("Failed to write audit entry", "action_id", a.ID, "error", err)
	}
}

// persistLocked saves the snapshot and only logs failures: the in-memory
// map stays authoritative once a transition has happened.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.saveLocked(); err != nil {
		logger.FromContext(ctx).Error("Failed to persist actions snapshot", "error", err)
	}
}

func (s *Store) saveLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	list := make([]*PendingAction, 0, len(s.actions))
	for _, a := range s.actions {
		list = append(list, a)
	}
	sortByStaged(list)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(s.snapshotPath, bytes.NewReader(data))
}

// LoadSnapshot reads a snapshot written by a Store. A missing file is an
// empty snapshot.
func LoadSnapshot(path string) ([]*PendingAction, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read actions snapshot: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var list []*PendingAction
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse actions snapshot: %w", err)
	}
	sortByStaged(list)
	return list, nil
}

func sortByStaged(list []*PendingAction) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StagedAt.Equal(list[j].StagedAt) {
			return list[i].StagedAt.Before(list[j].StagedAt)
		}
		return list[i].ID < list[j].ID
	})
}
