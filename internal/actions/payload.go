package actions

import (
	"encoding/json"
	"fmt"
)

// RecordRequest is the payload of a record-create action.
type RecordRequest struct {
	ServiceID   string            `json:"service_id"`
	ServiceName string            `json:"service_name,omitempty"`
	Category    string            `json:"category,omitempty"`
	Fields      map[string]string `json:"fields"`
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id"`
	VIP         bool              `json:"vip,omitempty"`
}

func (r RecordRequest) Marshal() (json.RawMessage, error) {
	if r.ServiceID == "" {
		return nil, fmt.Errorf("service id is required")
	}
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	return json.Marshal(r)
}

func DecodeRecordRequest(payload json.RawMessage) (RecordRequest, error) {
	var r RecordRequest
	if err := json.Unmarshal(payload, &r); err != nil {
		return RecordRequest{}, fmt.Errorf("decode record request: %w", err)
	}
	return r, nil
}
