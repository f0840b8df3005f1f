package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/stretchr/testify/assert"
)

var today = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func vpnService() *catalog.ServiceDefinition {
	return &catalog.ServiceDefinition{
		ID:                "vpn-access",
		Name:              catalog.LocalizedText{"en": "VPN Access", "fr": "Accès VPN"},
		Category:          "Network",
		RequiredFields:    []string{"vpnType", "justification"},
		OptionalFields:    []string{"startDate"},
		VIPBypassEligible: true,
		WorkflowSteps: []catalog.WorkflowStep{
			{Order: 3, Description: "Network team provisioning", Team: "Network Operations"},
			{Order: 1, Description: "Submit request form", RequiresApproval: true},
			{Order: 2, Description: "Manager approval", RequiresApproval: true},
			{Order: 4, Description: "Security review", RequiresApproval: true, Condition: "contractor access"},
		},
	}
}

func newBuilder() *Builder {
	return NewBuilder(DefaultOptions()).WithClock(func() time.Time { return today })
}

func TestBuildCompactWorkflow(t *testing.T) {
	b := newBuilder()

	assert.Equal(t,
		"Submit request form → Manager approval → Network team provisioning → Security review",
		b.BuildCompactWorkflow(vpnService()))
	assert.Equal(t, StandardWorkflow, b.BuildCompactWorkflow(&catalog.ServiceDefinition{ID: "guest-wifi"}))
}

func TestStepDays(t *testing.T) {
	b := newBuilder()

	tests := []struct {
		step catalog.WorkflowStep
		want int
	}{
		{step: catalog.WorkflowStep{Description: "Submit request form", RequiresApproval: true}, want: 0},
		{step: catalog.WorkflowStep{Description: "Security review", RequiresApproval: true}, want: 2},
		{step: catalog.WorkflowStep{Description: "Data governance review", RequiresApproval: true}, want: 2},
		{step: catalog.WorkflowStep{Description: "Manager approval", RequiresApproval: true}, want: 1},
		{step: catalog.WorkflowStep{Description: "Security review"}, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.StepDays(tt.step), tt.step.Description)
	}
	assert.Equal(t, 3, b.EstimateDays(vpnService()))
}

func TestBuildDetailedWorkflow(t *testing.T) {
	b := newBuilder()

	out := b.BuildDetailedWorkflow(vpnService(), UserContext{UserID: "alice"})
	assert.Equal(t, strings.Join([]string{
		"Approval workflow:",
		"1. Submit request form [approval, +0 days]",
		"2. Manager approval [approval, +1 day]",
		"3. Network team provisioning (Network Operations)",
		"4. Security review [approval, +2 days] if contractor access",
		"Estimated completion: Thursday, March 5, 2026 (3 days)",
	}, "\n"), out)

	vip := b.BuildDetailedWorkflow(vpnService(), UserContext{UserID: "ceo", VIP: true})
	assert.Contains(t, vip, "manager approval may be skipped")

	svc := vpnService()
	svc.VIPBypassEligible = false
	assert.NotContains(t, b.BuildDetailedWorkflow(svc, UserContext{VIP: true}), "may be skipped")
}

func TestBuildPreview(t *testing.T) {
	b := NewBuilder(Options{ApprovalStepDays: 1, ReviewStepDays: 2, ValueMaxLength: 10}).
		WithClock(func() time.Time { return today })

	out := b.BuildPreview(vpnService(), map[string]string{
		"vpnType":       "Remote access",
		"justification": "Work from home",
		"startDate":     "",
	}, UserContext{UserID: "ceo", VIP: true})

	assert.True(t, strings.HasPrefix(out, "VPN Access / Accès VPN\nID: vpn-access\nCategory: Network\n"))
	assert.Contains(t, out, "Your request details:\n- Vpn Type: Remote acc...\n- Justification: Work from ...\n")
	assert.NotContains(t, out, "Start Date")
	assert.Contains(t, out, "VIP status: yes (approval bypass eligible)")
	assert.True(t, strings.HasSuffix(out, `Reply "confirm" to submit or "cancel" to abandon.`))

	fr := b.BuildPreview(&catalog.ServiceDefinition{ID: "guest-wifi", Name: catalog.LocalizedText{"en": "Guest Wi-Fi"}}, nil, UserContext{Language: "fr"})
	assert.True(t, strings.HasPrefix(fr, "Guest Wi-Fi\n"))
	assert.Contains(t, fr, "- (no details required)")
	assert.Contains(t, fr, "1. "+StandardWorkflow)
	assert.Contains(t, fr, "« confirm »")
	assert.NotContains(t, fr, "VIP status")
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"vpnType":       "Vpn Type",
		"managerEmail":  "Manager Email",
		"userID":        "User ID",
		"HTTPServer":    "HTTP Server",
		"start_date":    "Start Date",
		"justification": "Justification",
		"os2Version":    "Os2 Version",
	}
	for in, want := range tests {
		assert.Equal(t, want, TitleCase(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "éééé...", Truncate("éééééé", 4))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
