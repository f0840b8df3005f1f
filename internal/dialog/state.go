// Package dialog holds per-session guided-creation state and the
// vocabulary the state machine reacts to.
package dialog

import (
	"fmt"
	"time"

	"github.com/harunnryd/deskflow/internal/catalog"
)

type Phase string

const (
	PhaseInitial                  Phase = "INITIAL"
	PhaseAwaitingServiceSelection Phase = "AWAITING_SERVICE_SELECTION"
	PhaseConfirmingService        Phase = "CONFIRMING_SERVICE"
	PhaseGatheringFields          Phase = "GATHERING_FIELDS"
	PhaseAwaitingConfirmation     Phase = "AWAITING_CONFIRMATION"
	PhaseSubmitted                Phase = "SUBMITTED"
	PhaseCancelled                Phase = "CANCELLED"
)

// Terminal phases are never stored.
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted || p == PhaseCancelled
}

// State is one session's position in the guided-creation flow. It holds
// the pending action by id only.
type State struct {
	SessionID       string                       `json:"session_id"`
	UserID          string                       `json:"user_id"`
	Phase           Phase                        `json:"phase"`
	Candidates      []*catalog.ServiceDefinition `json:"candidates,omitempty"`
	Service         *catalog.ServiceDefinition   `json:"service,omitempty"`
	Fields          map[string]string            `json:"fields"`
	FieldIndex      int                          `json:"field_index"`
	OriginalQuery   string                       `json:"original_query"`
	PendingActionID string                       `json:"pending_action_id,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

func NewState(sessionID, userID, query string, now time.Time) *State {
	return &State{
		SessionID:     sessionID,
		UserID:        userID,
		Phase:         PhaseInitial,
		Fields:        make(map[string]string),
		OriginalQuery: query,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone copies the mutable parts. Service definitions are shared since
// they are immutable.
func (s *State) Clone() *State {
	c := *s
	c.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		c.Fields[k] = v
	}
	c.Candidates = append([]*catalog.ServiceDefinition(nil), s.Candidates...)
	return &c
}

// SelectService binds svc and clears any collection progress.
func (s *State) SelectService(svc *catalog.ServiceDefinition) {
	s.Service = svc
	s.Candidates = nil
	s.ResetFields()
}

func (s *State) ResetFields() {
	s.Fields = make(map[string]string)
	s.FieldIndex = 0
}

// CurrentField is the name of the field awaiting an answer.
func (s *State) CurrentField() (string, bool) {
	if s.Service == nil {
		return "", false
	}
	names := s.Service.FieldNames()
	if s.FieldIndex < 0 || s.FieldIndex >= len(names) {
		return "", false
	}
	return names[s.FieldIndex], true
}

// SetField records a normalized value for a declared field.
func (s *State) SetField(name, value string) error {
	if s.Service == nil {
		return fmt.Errorf("no service selected")
	}
	if !s.Service.Declares(name) {
		return fmt.Errorf("field %q is not declared by %s", name, s.Service.ID)
	}
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[name] = value
	return nil
}

// Advance moves the pointer past the current field and reports whether
// another field remains.
func (s *State) Advance() bool {
	s.FieldIndex++
	_, more := s.CurrentField()
	return more
}

// AreAllFieldsCollected reports whether every required field has a value.
func (s *State) AreAllFieldsCollected() bool {
	if s.Service == nil {
		return false
	}
	for _, name := range s.Service.RequiredFields {
		if s.Fields[name] == "" {
			return false
		}
	}
	return true
}
