// Package actions implements the stage/confirm/cancel/expire protocol that
// gates every side-effecting request.
package actions

import (
	"context"
	"encoding/json"
	"time"
)

type Type string

const (
	TypeRecordCreate Type = "record-create"
	TypeRecordUpdate Type = "record-update"
)

type Status string

// PENDING moves to exactly one of the other statuses and never back.
const (
	StatusPending   Status = "PENDING"
	StatusExecuted  Status = "EXECUTED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusFailed    Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s != StatusPending
}

// PendingAction is a prepared unit of work waiting for explicit confirmation.
type PendingAction struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id"`
	Preview    string          `json:"preview"`
	StagedAt   time.Time       `json:"staged_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Status     Status          `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	RecordID   string          `json:"record_id,omitempty"`
	Message    string          `json:"message,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at,omitempty"`
}

func (a *PendingAction) clone() *PendingAction {
	c := *a
	c.Payload = append(json.RawMessage(nil), a.Payload...)
	return &c
}

func (a *PendingAction) ownedBy(sessionID, userID string) bool {
	return a.SessionID == sessionID && a.UserID == userID
}

// ExecutionResult is what the external system reports for an applied action.
type ExecutionResult struct {
	RecordID string `json:"record_id"`
	Message  string `json:"message,omitempty"`
}

// Executor applies a confirmed action to the system of record. It is
// called at most once per PendingAction.
type Executor interface {
	Execute(ctx context.Context, actionType Type, payload json.RawMessage) (*ExecutionResult, error)
}

type Outcome int

const (
	OutcomeExecuted Outcome = iota
	OutcomeCancelled
	OutcomeNotFound
	OutcomeExpired
	OutcomeNotPending
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeNotPending:
		return "not_pending"
	default:
		return "failed"
	}
}

const (
	MsgNotFound = "action not found"
	MsgExpired  = "action expired"
)

// ConfirmationResult is the tagged answer of Confirm and Cancel. Err is
// set for OutcomeFailed and carries the categorised executor failure.
type ConfirmationResult struct {
	Outcome   Outcome
	Success   bool
	Cancelled bool
	RecordID  string
	Status    Status
	Message   string
	Err       error
}
