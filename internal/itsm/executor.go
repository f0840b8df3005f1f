// Package itsm applies confirmed actions to the service-management system.
package itsm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/harunnryd/deskflow/internal/actions"
	dfErrors "github.com/harunnryd/deskflow/internal/errors"
)

const (
	requestsPath    = "/api/requests"
	maxErrorSnippet = 512
)

// HTTPExecutor posts record requests to the ITSM REST API.
type HTTPExecutor struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPExecutor(baseURL, token string, timeout time.Duration) (*HTTPExecutor, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, dfErrors.InvalidInput("itsm base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, dfErrors.InvalidInput(fmt.Sprintf("invalid itsm base url %q", baseURL))
	}
	return &HTTPExecutor{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type recordResponse struct {
	Number   string `json:"number"`
	RecordID string `json:"record_id"`
	ID       string `json:"id"`
	Message  string `json:"message"`
}

func (r recordResponse) recordID() string {
	for _, v := range []string{r.Number, r.RecordID, r.ID} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (e *HTTPExecutor) Execute(ctx context.Context, actionType actions.Type, payload json.RawMessage) (*actions.ExecutionResult, error) {
	method, endpoint, err := e.route(actionType, payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build itsm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itsm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read itsm response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet]
		}
		return nil, fmt.Errorf("itsm returned %d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), snippet)
	}

	var parsed recordResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, dfErrors.Execution(fmt.Sprintf("decode itsm response: %v", err))
	}
	id := parsed.recordID()
	if id == "" {
		return nil, dfErrors.Execution("itsm response carries no record number")
	}

	slog.Info("ITSM record written", "type", actionType, "record_id", id)
	return &actions.ExecutionResult{RecordID: id, Message: parsed.Message}, nil
}

func (e *HTTPExecutor) route(actionType actions.Type, payload json.RawMessage) (string, string, error) {
	switch actionType {
	case actions.TypeRecordCreate:
		return http.MethodPost, e.baseURL + requestsPath, nil
	case actions.TypeRecordUpdate:
		var target struct {
			RecordID string `json:"record_id"`
		}
		if err := json.Unmarshal(payload, &target); err != nil || target.RecordID == "" {
			return "", "", dfErrors.InvalidInput("record-update payload needs a record_id")
		}
		return http.MethodPut, e.baseURL + requestsPath + "/" + url.PathEscape(target.RecordID), nil
	default:
		return "", "", dfErrors.InvalidInput(fmt.Sprintf("unsupported action type %q", actionType))
	}
}

// DryRunExecutor accepts every action and hands out sequential REQ numbers.
type DryRunExecutor struct {
	seq atomic.Int64
}

func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{}
}

func (d *DryRunExecutor) Execute(ctx context.Context, actionType actions.Type, payload json.RawMessage) (*actions.ExecutionResult, error) {
	if !json.Valid(payload) {
		return nil, dfErrors.InvalidInput("payload must be valid JSON")
	}
	attrs := []any{"type", actionType}
	if actionType == actions.TypeRecordCreate {
		req, err := actions.DecodeRecordRequest(payload)
		if err != nil {
			return nil, dfErrors.InvalidInput(err.Error())
		}
		if req.ServiceID == "" {
			return nil, dfErrors.InvalidInput("record-create payload needs a service_id")
		}
		attrs = append(attrs, "service", req.ServiceID, "fields", len(req.Fields), "user_id", req.UserID)
	}
	id := fmt.Sprintf("REQ%07d", d.seq.Add(1))
	slog.Info("Dry-run record", append(attrs, "record_id", id)...)
	return &actions.ExecutionResult{RecordID: id, Message: "dry run: nothing was sent to the ITSM system"}, nil
}
