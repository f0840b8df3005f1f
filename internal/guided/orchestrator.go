// Package guided drives the guided-creation conversation: one message in,
// one reply out, with the session's dialog state advanced in between.
package guided

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/concurrency"
	"github.com/harunnryd/deskflow/internal/dialog"
	"github.com/harunnryd/deskflow/internal/field"
	"github.com/harunnryd/deskflow/internal/intent"
	"github.com/harunnryd/deskflow/internal/logger"
	"github.com/harunnryd/deskflow/internal/preview"

	"github.com/oklog/ulid/v2"
)

type Matcher interface {
	Match(ctx context.Context, text string) (intent.Result, error)
}

type ActionStore interface {
	Stage(ctx context.Context, actionType actions.Type, sessionID, userID, preview string, payload json.RawMessage) (*actions.PendingAction, error)
	Confirm(ctx context.Context, actionID, sessionID, userID string) actions.ConfirmationResult
	Cancel(ctx context.Context, actionID, sessionID, userID string) actions.ConfirmationResult
}

type Deps struct {
	Catalog catalog.Lookup
	Matcher Matcher
	States  *dialog.Store
	Actions ActionStore
	Preview *preview.Builder
	Users   UserDirectory
}

type Orchestrator struct {
	catalog catalog.Lookup
	matcher Matcher
	states  *dialog.Store
	actions ActionStore
	preview *preview.Builder
	users   UserDirectory
}

func New(d Deps) (*Orchestrator, error) {
	switch {
	case d.Catalog == nil:
		return nil, fmt.Errorf("catalog is required")
	case d.Matcher == nil:
		return nil, fmt.Errorf("matcher is required")
	case d.States == nil:
		return nil, fmt.Errorf("dialog store is required")
	case d.Actions == nil:
		return nil, fmt.Errorf("action store is required")
	}
	if d.Preview == nil {
		d.Preview = preview.NewBuilder(preview.DefaultOptions())
	}
	if d.Users == nil {
		d.Users = NewStaticDirectory(nil)
	}
	return &Orchestrator{
		catalog: d.Catalog,
		matcher: d.Matcher,
		states:  d.States,
		actions: d.Actions,
		preview: d.Preview,
		users:   d.Users,
	}, nil
}

// Process consumes one message for the session. It never panics and never
// returns a Go error; failures come back as Response.Error. The stored
// state is only replaced when a handler completes.
func (o *Orchestrator) Process(ctx context.Context, sessionID, userID, message string) (resp Response) {
	if logger.GetTraceID(ctx) == "" {
		ctx = logger.WithTraceID(ctx, ulid.Make().String())
	}
	ctx = logger.WithUserID(logger.WithSessionID(ctx, sessionID), userID)
	log := logger.FromContext(ctx)
	lang := catalog.LangPrimary

	defer concurrency.Recover("guided.process", func(r interface{}) {
		resp = errorResponse(msgGenericError, lang)
	})

	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(userID) == "" {
		return errorResponse(msgMissingIdentity, lang)
	}

	user, err := o.users.Lookup(ctx, userID)
	if err != nil {
		log.Warn("User lookup failed, continuing without context", "error", err)
		user = preview.UserContext{UserID: userID, Language: catalog.LangPrimary}
	}
	lang = user.Language

	unlock := o.states.Lock(sessionID)
	defer unlock()

	st, ok := o.states.Get(sessionID)
	if ok && st.UserID != userID {
		log.Warn("Session used by another user", "owner", st.UserID)
		return errorResponse(msgForeignSession, lang)
	}
	if !ok {
		st = dialog.NewState(sessionID, userID, message, o.states.Now())
	}

	from := st.Phase
	switch st.Phase {
	case dialog.PhaseInitial:
		resp, err = o.handleInitial(ctx, st, message, user)
	case dialog.PhaseAwaitingServiceSelection:
		resp, err = o.handleSelection(ctx, st, message, user)
	case dialog.PhaseConfirmingService:
		resp, err = o.handleServiceConfirmation(ctx, st, message, user)
	case dialog.PhaseGatheringFields:
		resp, err = o.handleGathering(ctx, st, message, user)
	case dialog.PhaseAwaitingConfirmation:
		resp, err = o.handleConfirmation(ctx, st, message, user)
	default:
		err = fmt.Errorf("unexpected phase %s", st.Phase)
	}
	if err != nil {
		log.Error("Failed to process message", "phase", from, "error", err)
		return errorResponse(msgGenericError, lang)
	}

	switch {
	case st.Phase == dialog.PhaseInitial, st.Phase.Terminal():
		o.states.Delete(sessionID)
	default:
		o.states.Put(st)
	}

	if from != st.Phase {
		log.Info("Dialog transition", "from", from, "to", st.Phase, "service", serviceID(st))
	}
	resp.Phase = st.Phase
	resp.State = st.Clone()
	return resp
}

func (o *Orchestrator) handleInitial(ctx context.Context, st *dialog.State, message string, user preview.UserContext) (Response, error) {
	res, err := o.matcher.Match(ctx, message)
	if err != nil {
		return Response{}, err
	}
	st.OriginalQuery = message

	switch {
	case res.Decisive():
		st.Service = res.Service
		st.Phase = dialog.PhaseConfirmingService
		return Response{
			Text:    o.serviceSummary(res.Service, user) + "\n\n" + localize(msgIsThisIt, user.Language),
			Options: withOptions(serviceOptions),
		}, nil

	case res.Kind == intent.Clarification && len(res.Candidates) > 0:
		st.Candidates = res.Candidates
		st.Phase = dialog.PhaseAwaitingServiceSelection
		return Response{
			Text:    localize(msgCandidatesLead, user.Language) + "\n" + candidateList(res.Candidates, user.Language) + "\n\n" + localize(msgCandidatesHint, user.Language),
			Options: candidateOptions(res.Candidates, user.Language),
		}, nil
	}

	st.Phase = dialog.PhaseInitial
	return o.categoriesResponse(ctx, res, user.Language)
}

func (o *Orchestrator) handleSelection(ctx context.Context, st *dialog.State, message string, user preview.UserContext) (Response, error) {
	if dialog.IsCancel(message) {
		return o.cancel(st, user.Language), nil
	}

	if svc := pickCandidate(st.Candidates, message); svc != nil {
		return o.startCollection(st, svc, user), nil
	}

	res, err := o.matcher.Match(ctx, message)
	if err != nil {
		return Response{}, err
	}
	if res.Decisive() {
		return o.startCollection(st, res.Service, user), nil
	}

	return Response{
		Text:    localize(msgChooseAgain, user.Language) + "\n" + candidateList(st.Candidates, user.Language),
		Options: candidateOptions(st.Candidates, user.Language),
	}, nil
}

func (o *Orchestrator) handleServiceConfirmation(ctx context.Context, st *dialog.State, message string, user preview.UserContext) (Response, error) {
	switch {
	case dialog.IsCancel(message):
		return o.cancel(st, user.Language), nil
	case dialog.IsNo(message):
		st.Phase = dialog.PhaseInitial
		st.Service = nil
		summary, err := o.catalog.CategorySummary(ctx)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Text:           localize(msgServiceRejected, user.Language) + "\n\n" + summary + "\n\n" + localize(msgEmptyMessage, user.Language),
			ShowCategories: true,
		}, nil
	case dialog.IsYes(message):
		return o.startCollection(st, st.Service, user), nil
	}
	return Response{Text: localize(msgYesNoPrompt, user.Language), Options: withOptions(serviceOptions)}, nil
}

func (o *Orchestrator) handleGathering(ctx context.Context, st *dialog.State, message string, user preview.UserContext) (Response, error) {
	if dialog.IsCancel(message) {
		st.ResetFields()
		return o.cancel(st, user.Language), nil
	}

	name, ok := st.CurrentField()
	if !ok {
		return o.toConfirmation(st, user)
	}
	def := st.Service.Field(name)

	switch {
	case field.Blank(message):
		return o.ask(st, name, localize(msgProvideValue, user.Language), user), nil
	case dialog.IsSkip(message) && def.Required:
		return o.ask(st, name, localize(msgCannotSkip, user.Language), user), nil
	case dialog.IsSkip(message):
		delete(st.Fields, name)
	default:
		res := field.Validate(def, message)
		if !res.Valid {
			return o.ask(st, name, res.Error, user), nil
		}
		if err := st.SetField(name, res.Value); err != nil {
			return Response{}, err
		}
	}

	if st.Advance() {
		next, _ := st.CurrentField()
		return o.ask(st, next, "", user), nil
	}
	return o.toConfirmation(st, user)
}

func (o *Orchestrator) handleConfirmation(ctx context.Context, st *dialog.State, message string, user preview.UserContext) (Response, error) {
	switch {
	case dialog.IsCancel(message):
		o.dropPendingAction(ctx, st)
		return o.cancel(st, user.Language), nil

	case dialog.IsEdit(message):
		if !st.Service.HasFields() {
			return Response{
				Text:    localize(msgNothingToEdit, user.Language) + "\n\n" + o.preview.BuildPreview(st.Service, st.Fields, user),
				Options: withOptions(confirmationOptions),
			}, nil
		}
		o.dropPendingAction(ctx, st)
		st.ResetFields()
		st.Phase = dialog.PhaseGatheringFields
		first, _ := st.CurrentField()
		return o.ask(st, first, localize(msgEditAgain, user.Language), user), nil

	case dialog.IsConfirm(message):
		return o.submit(ctx, st, user)
	}
	return Response{Text: localize(msgConfirmPrompt, user.Language), Options: withOptions(confirmationOptions)}, nil
}

// submit stages the request when needed and confirms it right away. Any
// failure keeps the dialog in AWAITING_CONFIRMATION so "confirm" can be
// retried against a fresh action.
func (o *Orchestrator) submit(ctx context.Context, st *dialog.State, user preview.UserContext) (Response, error) {
	log := logger.FromContext(ctx)

	if !st.AreAllFieldsCollected() {
		st.Phase = dialog.PhaseGatheringFields
		st.FieldIndex = firstMissing(st)
		name, _ := st.CurrentField()
		return o.ask(st, name, localize(msgStillMissing, user.Language), user), nil
	}

	if st.PendingActionID == "" {
		payload, err := actions.RecordRequest{
			ServiceID:   st.Service.ID,
			ServiceName: st.Service.DisplayName(),
			Category:    st.Service.Category,
			Fields:      st.Fields,
			SessionID:   st.SessionID,
			UserID:      st.UserID,
			VIP:         user.VIP,
		}.Marshal()
		if err != nil {
			return Response{}, err
		}

		action, err := o.actions.Stage(ctx, actions.TypeRecordCreate, st.SessionID, st.UserID,
			o.preview.BuildPreview(st.Service, st.Fields, user), payload)
		if err != nil {
			log.Error("Failed to stage request", "service", st.Service.ID, "error", err)
			return Response{
				Text:    localize(msgStageFailed, user.Language, err),
				Error:   true,
				Options: withOptions(confirmationOptions),
			}, nil
		}
		st.PendingActionID = action.ID
	}

	actionID := st.PendingActionID
	res := o.actions.Confirm(ctx, actionID, st.SessionID, st.UserID)
	if res.Success {
		st.Phase = dialog.PhaseSubmitted
		return Response{
			Text:          localize(msgSubmitted, user.Language, res.RecordID),
			Submitted:     true,
			RequestNumber: res.RecordID,
			ActionID:      actionID,
		}, nil
	}

	// The action is terminal or gone; the next confirm stages a new one.
	st.PendingActionID = ""
	log.Warn("Request confirmation failed", "action_id", actionID, "outcome", res.Outcome, "message", res.Message)
	return Response{
		Text:     localize(msgSubmitFailed, user.Language, res.Message),
		Error:    true,
		Options:  withOptions(confirmationOptions),
		ActionID: actionID,
	}, nil
}

func (o *Orchestrator) startCollection(st *dialog.State, svc *catalog.ServiceDefinition, user preview.UserContext) Response {
	st.SelectService(svc)
	if !svc.HasFields() {
		resp, _ := o.toConfirmation(st, user)
		return resp
	}
	st.Phase = dialog.PhaseGatheringFields
	first, _ := st.CurrentField()
	return o.ask(st, first, localize(msgStartCollection, user.Language, svc.Name.Get(user.Language)), user)
}

func (o *Orchestrator) toConfirmation(st *dialog.State, user preview.UserContext) (Response, error) {
	if !st.AreAllFieldsCollected() {
		return Response{}, fmt.Errorf("required fields missing for %s", st.Service.ID)
	}
	st.Phase = dialog.PhaseAwaitingConfirmation
	return Response{
		Text:    o.preview.BuildPreview(st.Service, st.Fields, user),
		Options: withOptions(confirmationOptions),
	}, nil
}

func (o *Orchestrator) cancel(st *dialog.State, lang string) Response {
	st.Phase = dialog.PhaseCancelled
	return Response{Text: localize(msgCancelled, lang), Cancelled: true}
}

func (o *Orchestrator) dropPendingAction(ctx context.Context, st *dialog.State) {
	if st.PendingActionID == "" {
		return
	}
	res := o.actions.Cancel(ctx, st.PendingActionID, st.SessionID, st.UserID)
	if !res.Cancelled {
		logger.FromContext(ctx).Info("Pending action was not cancelled", "action_id", st.PendingActionID, "outcome", res.Outcome)
	}
	st.PendingActionID = ""
}

func (o *Orchestrator) ask(st *dialog.State, name, lead string, user preview.UserContext) Response {
	text := dialog.Question(st.Service, name, user.Language)
	if lead != "" {
		text = lead + "\n\n" + text
	}
	resp := Response{Text: text}
	if def := st.Service.Field(name); def.Type == catalog.FieldSelect {
		resp.Options = withOptions(def.Options)
	}
	return resp
}

func (o *Orchestrator) categoriesResponse(ctx context.Context, res intent.Result, lang string) (Response, error) {
	summary, err := o.catalog.CategorySummary(ctx)
	if err != nil {
		return Response{}, err
	}

	lead := localize(msgNoMatch, lang)
	switch {
	case res.IsProblem():
		lead = localize(msgProblemReport, lang)
	case res.Reason == intent.ReasonEmpty:
		lead = localize(msgEmptyMessage, lang)
	}
	return Response{
		Text:           lead + "\n\n" + summary,
		ShowCategories: true,
		ProblemReport:  res.IsProblem(),
	}, nil
}

func (o *Orchestrator) serviceSummary(svc *catalog.ServiceDefinition, user preview.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", svc.Name.Get(user.Language), svc.Category)
	if desc := svc.Description.Get(user.Language); desc != "" {
		b.WriteString("\n" + desc)
	}
	b.WriteString("\n" + localize(msgWorkflowLabel, user.Language) + " " + o.preview.BuildCompactWorkflow(svc))
	return b.String()
}

// pickCandidate resolves a reply against the listed candidates: a 1-based
// index, an exact name, then a partial name matching a single candidate.
func pickCandidate(candidates []*catalog.ServiceDefinition, message string) *catalog.ServiceDefinition {
	reply := dialog.Normalize(message)
	if reply == "" {
		return nil
	}
	if idx, err := strconv.Atoi(reply); err == nil {
		if idx >= 1 && idx <= len(candidates) {
			return candidates[idx-1]
		}
		return nil
	}

	for _, c := range candidates {
		for _, name := range c.Name.Values() {
			if strings.EqualFold(name, reply) {
				return c
			}
		}
		if strings.EqualFold(c.ID, reply) {
			return c
		}
	}

	var hit *catalog.ServiceDefinition
	for _, c := range candidates {
		for _, name := range c.Name.Values() {
			name = strings.ToLower(name)
			if strings.Contains(name, reply) || strings.Contains(reply, name) {
				if hit != nil && hit != c {
					return nil
				}
				hit = c
				break
			}
		}
	}
	return hit
}

func candidateList(candidates []*catalog.ServiceDefinition, lang string) string {
	lines := make([]string, 0, len(candidates))
	for i, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, c.Name.Get(lang), c.Category))
	}
	return strings.Join(lines, "\n")
}

func candidateOptions(candidates []*catalog.ServiceDefinition, lang string) []string {
	out := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		out = append(out, c.Name.Get(lang))
	}
	return append(out, "cancel")
}

func firstMissing(st *dialog.State) int {
	for i, name := range st.Service.FieldNames() {
		if st.Service.IsRequired(name) && st.Fields[name] == "" {
			return i
		}
	}
	return 0
}

func serviceID(st *dialog.State) string {
	if st.Service == nil {
		return ""
	}
	return st.Service.ID
}
