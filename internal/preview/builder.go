// Package preview renders service summaries, approval workflows and the
// final request preview shown before confirmation.
package preview

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/config"
)

const (
	StandardWorkflow = "Standard approval workflow"
	arrow            = " → "
	dateLayout       = "Monday, January 2, 2006"
)

var (
	formStepWords   = []string{"form", "submit", "formulaire", "soumettre", "soumission"}
	reviewStepWords = []string{"security", "governance", "sécurité", "gouvernance"}
)

// UserContext carries what the preview needs to know about the requester.
type UserContext struct {
	UserID   string
	VIP      bool
	Language string
}

type Options struct {
	FormStepDays     int
	ReviewStepDays   int
	ApprovalStepDays int
	ValueMaxLength   int
}

func DefaultOptions() Options {
	return Options{
		FormStepDays:     config.DefaultPreviewFormStepDays,
		ReviewStepDays:   config.DefaultPreviewReviewStepDays,
		ApprovalStepDays: config.DefaultPreviewApprovalStepDays,
		ValueMaxLength:   config.DefaultPreviewValueMaxLength,
	}
}

func OptionsFromConfig(cfg config.PreviewConfig) Options {
	return Options{
		FormStepDays:     cfg.FormStepDays,
		ReviewStepDays:   cfg.ReviewStepDays,
		ApprovalStepDays: cfg.ApprovalStepDays,
		ValueMaxLength:   cfg.ValueMaxLength,
	}
}

// Builder is a pure renderer; the clock is its only input besides the
// arguments.
type Builder struct {
	opts Options
	now  func() time.Time
}

func NewBuilder(opts Options) *Builder {
	if opts.ValueMaxLength <= 0 {
		opts.ValueMaxLength = config.DefaultPreviewValueMaxLength
	}
	return &Builder{opts: opts, now: time.Now}
}

// WithClock overrides the source of "today".
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// BuildCompactWorkflow joins step descriptions in order.
func (b *Builder) BuildCompactWorkflow(svc *catalog.ServiceDefinition) string {
	steps := orderedSteps(svc)
	if len(steps) == 0 {
		return StandardWorkflow
	}
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		parts = append(parts, s.Description)
	}
	return strings.Join(parts, arrow)
}

// StepDays is the extra delay an approval step adds.
func (b *Builder) StepDays(step catalog.WorkflowStep) int {
	if !step.RequiresApproval {
		return 0
	}
	desc := strings.ToLower(step.Description)
	switch {
	case containsAny(desc, formStepWords):
		return b.opts.FormStepDays
	case containsAny(desc, reviewStepWords):
		return b.opts.ReviewStepDays
	default:
		return b.opts.ApprovalStepDays
	}
}

// EstimateDays sums StepDays over the service's workflow.
func (b *Builder) EstimateDays(svc *catalog.ServiceDefinition) int {
	total := 0
	for _, s := range svc.WorkflowSteps {
		total += b.StepDays(s)
	}
	return total
}

// BuildDetailedWorkflow numbers each step, annotates approval delays and
// ends with the estimated completion date.
func (b *Builder) BuildDetailedWorkflow(svc *catalog.ServiceDefinition, user UserContext) string {
	var sb strings.Builder
	sb.WriteString("Approval workflow:\n")

	steps := orderedSteps(svc)
	if len(steps) == 0 {
		sb.WriteString("1. " + StandardWorkflow + "\n")
	}
	for i, s := range steps {
		fmt.Fprintf(&sb, "%d. %s", i+1, s.Description)
		if s.Team != "" {
			fmt.Fprintf(&sb, " (%s)", s.Team)
		}
		if s.RequiresApproval {
			fmt.Fprintf(&sb, " [approval, +%s]", pluralDays(b.StepDays(s)))
		}
		if s.Condition != "" {
			fmt.Fprintf(&sb, " if %s", s.Condition)
		}
		sb.WriteByte('\n')
	}

	days := b.EstimateDays(svc)
	completion := b.now().AddDate(0, 0, days)
	fmt.Fprintf(&sb, "Estimated completion: %s (%s)", completion.Format(dateLayout), pluralDays(days))

	if svc.VIPBypassEligible && user.VIP {
		sb.WriteString("\nNote: as a VIP user, manager approval may be skipped.")
	}
	return sb.String()
}

// BuildPreview renders the full summary shown before final confirmation.
func (b *Builder) BuildPreview(svc *catalog.ServiceDefinition, fields map[string]string, user UserContext) string {
	var sb strings.Builder

	sb.WriteString(bilingualName(svc))
	fmt.Fprintf(&sb, "\nID: %s\nCategory: %s\n", svc.ID, svc.Category)

	sb.WriteString("\nYour request details:\n")
	names := detailOrder(svc, fields)
	if len(names) == 0 {
		sb.WriteString("- (no details required)\n")
	}
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", TitleCase(name), Truncate(fields[name], b.opts.ValueMaxLength))
	}

	sb.WriteString("\n")
	sb.WriteString(b.BuildDetailedWorkflow(svc, user))
	sb.WriteString("\n")

	if user.VIP {
		if svc.VIPBypassEligible {
			sb.WriteString("\nVIP status: yes (approval bypass eligible)\n")
		} else {
			sb.WriteString("\nVIP status: yes\n")
		}
	}

	if user.Language == catalog.LangSecondary {
		sb.WriteString("\nRépondez « confirm » pour soumettre ou « cancel » pour annuler.")
	} else {
		sb.WriteString("\nReply \"confirm\" to submit or \"cancel\" to abandon.")
	}
	return sb.String()
}

// TitleCase turns camelCase or snake_case names into spaced title case.
func TitleCase(name string) string {
	var words []string
	var cur []rune
	runes := []rune(name)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Truncate shortens value to max runes and appends an ellipsis.
func Truncate(value string, max int) string {
	r := []rune(value)
	if max <= 0 || len(r) <= max {
		return value
	}
	return string(r[:max]) + "..."
}

func bilingualName(svc *catalog.ServiceDefinition) string {
	primary := svc.DisplayName()
	secondary := svc.Name.Get(catalog.LangSecondary)
	if secondary == "" || secondary == primary {
		return primary
	}
	return primary + " / " + secondary
}

// detailOrder lists collected, non-empty fields in declared order followed
// by any undeclared keys sorted by name.
func detailOrder(svc *catalog.ServiceDefinition, fields map[string]string) []string {
	seen := make(map[string]bool, len(fields))
	var names []string
	for _, name := range svc.FieldNames() {
		if v, ok := fields[name]; ok && v != "" {
			names = append(names, name)
		}
		seen[name] = true
	}
	var extra []string
	for name, v := range fields {
		if !seen[name] && v != "" {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func orderedSteps(svc *catalog.ServiceDefinition) []catalog.WorkflowStep {
	steps := append([]catalog.WorkflowStep(nil), svc.WorkflowSteps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })
	return steps
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
