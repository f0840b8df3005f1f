package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/preview"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers(headers...)
}

func (f *TableFormatter) FormatServices(services []*catalog.ServiceDefinition) (string, error) {
	if len(services) == 0 {
		return "No services found", nil
	}

	t := f.newTable("ID", "Name", "Category", "Fields", "Approval")
	for _, svc := range services {
		approval := "-"
		if svc.RequiresManagerApproval {
			approval = "manager"
			if svc.VIPBypassEligible {
				approval = "manager (VIP bypass)"
			}
		}
		t.Row(
			svc.ID,
			preview.Truncate(svc.DisplayName(), 30),
			svc.Category,
			fieldSummary(svc),
			approval,
		)
	}
	return t.String(), nil
}

func (f *TableFormatter) FormatActions(list []*actions.PendingAction) (string, error) {
	if len(list) == 0 {
		return "No actions found", nil
	}

	t := f.newTable("ID", "Status", "Session", "User", "Staged", "Record")
	for _, a := range list {
		row := newActionRow(a)
		t.Row(row.ID, row.Status, row.SessionID, row.UserID, row.StagedAt, orDash(row.RecordID))
	}
	return t.String(), nil
}

// actionRow is the flat view of an action shared by table and yaml output.
type actionRow struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	Status    string `yaml:"status"`
	SessionID string `yaml:"session_id"`
	UserID    string `yaml:"user_id"`
	StagedAt  string `yaml:"staged_at"`
	ExpiresAt string `yaml:"expires_at"`
	RecordID  string `yaml:"record_id,omitempty"`
	Message   string `yaml:"message,omitempty"`
}

func newActionRow(a *actions.PendingAction) actionRow {
	return actionRow{
		ID:        a.ID,
		Type:      string(a.Type),
		Status:    string(a.Status),
		SessionID: a.SessionID,
		UserID:    a.UserID,
		StagedAt:  a.StagedAt.Format(time.RFC3339),
		ExpiresAt: a.ExpiresAt.Format(time.RFC3339),
		RecordID:  a.RecordID,
		Message:   a.Message,
	}
}

func fieldSummary(svc *catalog.ServiceDefinition) string {
	if !svc.HasFields() {
		return "-"
	}
	s := strings.Join(svc.RequiredFields, ", ")
	if len(svc.OptionalFields) > 0 {
		s += fmt.Sprintf(" (+%d optional)", len(svc.OptionalFields))
	}
	return preview.Truncate(s, 40)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
