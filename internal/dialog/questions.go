package dialog

import (
	"strings"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/field"
	"github.com/harunnryd/deskflow/internal/preview"
)

// questions is the fallback wording per field name when the catalog field
// carries no prompt of its own.
var questions = map[string]catalog.LocalizedText{
	"vpnType": {
		"en": "What type of VPN access do you need?",
		"fr": "De quel type d'accès VPN avez-vous besoin ?",
	},
	"justification": {
		"en": "What is the business justification for this request?",
		"fr": "Quelle est la justification métier de cette demande ?",
	},
	"startDate": {
		"en": "From which date do you need it (YYYY-MM-DD)?",
		"fr": "À partir de quelle date en avez-vous besoin (AAAA-MM-JJ) ?",
	},
	"fullName": {
		"en": "What is the full name of the person this is for?",
		"fr": "Quel est le nom complet de la personne concernée ?",
	},
	"department": {
		"en": "Which department do they belong to?",
		"fr": "À quel service appartient-elle ?",
	},
	"managerEmail": {
		"en": "What is the email address of the approving manager?",
		"fr": "Quelle est l'adresse courriel du gestionnaire approbateur ?",
	},
	"softwareName": {
		"en": "Which software do you need installed?",
		"fr": "Quel logiciel souhaitez-vous faire installer ?",
	},
	"softwareVersion": {
		"en": "Which version do you need?",
		"fr": "Quelle version vous faut-il ?",
	},
	"deviceId": {
		"en": "What is the asset tag of the device (e.g. LT-12345)?",
		"fr": "Quel est le numéro d'inventaire de l'appareil (ex. LT-12345) ?",
	},
	"databaseName": {
		"en": "Which database do you need access to?",
		"fr": "À quelle base de données avez-vous besoin d'accéder ?",
	},
	"accessLevel": {
		"en": "What level of access do you need?",
		"fr": "De quel niveau d'accès avez-vous besoin ?",
	},
	"accountName": {
		"en": "Which account needs a password reset?",
		"fr": "Quel compte doit être réinitialisé ?",
	},
	"contactPhone": {
		"en": "At which phone number can we reach you?",
		"fr": "À quel numéro de téléphone pouvons-nous vous joindre ?",
	},
	"deviceType": {
		"en": "Which type of device do you need?",
		"fr": "De quel type d'appareil avez-vous besoin ?",
	},
	"quantity": {
		"en": "How many do you need?",
		"fr": "Combien vous en faut-il ?",
	},
	"deliveryAddress": {
		"en": "Where should it be delivered?",
		"fr": "Où faut-il le livrer ?",
	},
	"folderPath": {
		"en": "What is the path of the shared folder?",
		"fr": "Quel est le chemin du dossier partagé ?",
	},
	"costCenter": {
		"en": "Which cost center should be charged?",
		"fr": "Quel centre de coûts doit être imputé ?",
	},
	"location": {
		"en": "Where are you located?",
		"fr": "Où êtes-vous situé ?",
	},
}

// QuestionText picks the bare question for a field: the catalog prompt,
// then the question table, then a generic request.
func QuestionText(def catalog.FieldDefinition, lang string) string {
	if q := def.Prompt.Get(lang); q != "" {
		return q
	}
	if q, ok := questions[def.Name]; ok {
		return q.Get(lang)
	}
	if lang == catalog.LangSecondary {
		return "Veuillez indiquer : " + preview.TitleCase(def.Name)
	}
	return "Please provide " + preview.TitleCase(def.Name)
}

// Question renders the full prompt for the field with select options and
// a skip hint for optional fields.
func Question(svc *catalog.ServiceDefinition, name, lang string) string {
	def := svc.Field(name)

	var b strings.Builder
	b.WriteString(QuestionText(def, lang))
	if def.Type == catalog.FieldSelect && len(def.Options) > 0 {
		b.WriteString("\n")
		b.WriteString(field.FormatOptions(def.Options))
	}
	if !def.Required {
		if lang == catalog.LangSecondary {
			b.WriteString("\n(Facultatif : répondez « passer » pour ignorer.)")
		} else {
			b.WriteString("\n(Optional: reply \"skip\" to leave it empty.)")
		}
	}
	return b.String()
}
