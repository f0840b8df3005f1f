package guided

import (
	"fmt"
	"slices"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/dialog"
)

// Response is the single reply to one processed message.
type Response struct {
	Text           string
	Options        []string
	Phase          dialog.Phase
	State          *dialog.State
	Cancelled      bool
	Error          bool
	Submitted      bool
	RequestNumber  string
	ActionID       string
	ShowCategories bool
	ProblemReport  bool
}

var (
	serviceOptions      = []string{"yes", "no", "cancel"}
	confirmationOptions = []string{"confirm", "edit", "cancel"}
)

type msgKey string

const (
	msgGenericError    msgKey = "generic_error"
	msgCancelled       msgKey = "cancelled"
	msgForeignSession  msgKey = "foreign_session"
	msgMissingIdentity msgKey = "missing_identity"
	msgConfirmPrompt   msgKey = "confirm_prompt"
	msgYesNoPrompt     msgKey = "yes_no_prompt"
	msgProvideValue    msgKey = "provide_value"
	msgCannotSkip      msgKey = "cannot_skip"
	msgIsThisIt        msgKey = "is_this_it"
	msgCandidatesLead  msgKey = "candidates_lead"
	msgCandidatesHint  msgKey = "candidates_hint"
	msgChooseAgain     msgKey = "choose_again"
	msgServiceRejected msgKey = "service_rejected"
	msgNothingToEdit   msgKey = "nothing_to_edit"
	msgEditAgain       msgKey = "edit_again"
	msgStillMissing    msgKey = "still_missing"
	msgStageFailed     msgKey = "stage_failed"
	msgSubmitted       msgKey = "submitted"
	msgSubmitFailed    msgKey = "submit_failed"
	msgStartCollection msgKey = "start_collection"
	msgNoMatch         msgKey = "no_match"
	msgProblemReport   msgKey = "problem_report"
	msgEmptyMessage    msgKey = "empty_message"
	msgWorkflowLabel   msgKey = "workflow_label"
)

var messages = map[msgKey]catalog.LocalizedText{
	msgGenericError: {
		"en": "Sorry, something went wrong while handling your message. Please try again.",
		"fr": "Désolé, une erreur s'est produite lors du traitement de votre message. Veuillez réessayer.",
	},
	msgCancelled: {
		"en": "Your request has been cancelled. Let me know if you need anything else.",
		"fr": "Votre demande a été annulée. Dites-moi si vous avez besoin d'autre chose.",
	},
	msgForeignSession: {
		"en": "This conversation belongs to another user.",
		"fr": "Cette conversation appartient à un autre utilisateur.",
	},
	msgMissingIdentity: {
		"en": "A session and a user are required.",
		"fr": "Une session et un utilisateur sont requis.",
	},
	msgConfirmPrompt: {
		"en": "Please reply: confirm / edit / cancel",
		"fr": "Veuillez répondre : confirm / edit / cancel",
	},
	msgYesNoPrompt: {
		"en": "Please answer yes, no or cancel.",
		"fr": "Veuillez répondre yes, no ou cancel.",
	},
	msgProvideValue: {
		"en": "Please provide a value.",
		"fr": "Veuillez fournir une valeur.",
	},
	msgCannotSkip: {
		"en": "This field is required and cannot be skipped.",
		"fr": "Ce champ est obligatoire et ne peut pas être ignoré.",
	},
	msgIsThisIt: {
		"en": "Is this what you need? (yes / no / cancel)",
		"fr": "Est-ce bien ce dont vous avez besoin ? (yes / no / cancel)",
	},
	msgCandidatesLead: {
		"en": "I found several services that could match your request:",
		"fr": "J'ai trouvé plusieurs services qui pourraient correspondre à votre demande :",
	},
	msgCandidatesHint: {
		"en": "Reply with a number or a name, or \"cancel\".",
		"fr": "Répondez par un numéro ou un nom, ou \"cancel\".",
	},
	msgChooseAgain: {
		"en": "Sorry, I didn't understand your choice. Please choose again:",
		"fr": "Désolé, je n'ai pas compris votre choix. Veuillez choisir à nouveau :",
	},
	msgServiceRejected: {
		"en": "No problem. Here is what I can help with:",
		"fr": "Pas de problème. Voici ce que je peux faire pour vous :",
	},
	msgNothingToEdit: {
		"en": "There is nothing to edit for this service.",
		"fr": "Il n'y a rien à modifier pour ce service.",
	},
	msgEditAgain: {
		"en": "Let's go through the details again.",
		"fr": "Reprenons les détails.",
	},
	msgStillMissing: {
		"en": "Some details are still missing.",
		"fr": "Il manque encore certains détails.",
	},
	msgStageFailed: {
		"en": "Sorry, your request could not be prepared: %v. Reply \"confirm\" to try again or \"cancel\".",
		"fr": "Désolé, votre demande n'a pas pu être préparée : %v. Répondez \"confirm\" pour réessayer ou \"cancel\".",
	},
	msgSubmitted: {
		"en": "Your request has been submitted. Request number: %s",
		"fr": "Votre demande a été soumise. Numéro de demande : %s",
	},
	msgSubmitFailed: {
		"en": "Sorry, your request could not be submitted: %s. Reply \"confirm\" to try again or \"cancel\".",
		"fr": "Désolé, votre demande n'a pas pu être soumise : %s. Répondez \"confirm\" pour réessayer ou \"cancel\".",
	},
	msgStartCollection: {
		"en": "Great, let's set up your %s request.",
		"fr": "Parfait, préparons votre demande %s.",
	},
	msgNoMatch: {
		"en": "I couldn't match your message to a service in the catalog.",
		"fr": "Je n'ai trouvé aucun service du catalogue correspondant à votre message.",
	},
	msgProblemReport: {
		"en": "It sounds like something is not working. I can only help with new service requests; please report incidents to the service desk.",
		"fr": "Il semble que quelque chose ne fonctionne pas. Je ne traite que les nouvelles demandes de service ; veuillez signaler les incidents au centre de services.",
	},
	msgEmptyMessage: {
		"en": "Tell me what you need and I'll find the right service.",
		"fr": "Dites-moi ce dont vous avez besoin et je trouverai le bon service.",
	},
	msgWorkflowLabel: {
		"en": "Workflow:",
		"fr": "Circuit :",
	},
}

// localize returns the wording of key in lang, formatting args when given.
func localize(key msgKey, lang string, args ...any) string {
	text := messages[key].Get(lang)
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

func errorResponse(key msgKey, lang string) Response {
	return Response{Text: localize(key, lang), Error: true}
}

// withOptions hands out a copy so callers cannot mutate shared option lists.
func withOptions(opts []string) []string {
	return slices.Clone(opts)
}
