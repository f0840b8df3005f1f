package intent

import (
	"strings"
	"unicode"
)

// problemPhrases mark a fault report rather than a service request.
var problemPhrases = []string{
	// en
	"not working", "stopped working", "isn't working", "is not working",
	"doesn't work", "does not work", "won't work", "error", "errors",
	"broken", "crashed", "crashes", "crashing", "unable to", "failed to",
	"fails to", "help me fix", "can't connect", "cannot connect",
	"problem with", "issue with", "keeps freezing",
	// fr
	"ne fonctionne pas", "ne fonctionne plus", "ne marche pas",
	"ne marche plus", "erreur", "en panne", "cassé", "cassée", "plante",
	"planté", "impossible de", "n'arrive pas", "problème avec",
	"aidez-moi à réparer", "bloqué",
}

// IsProblemReport reports whether text reads like a fault report.
func IsProblemReport(text string) bool {
	padded := " " + normalizePhrase(text) + " "
	for _, phrase := range problemPhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}

// normalizePhrase lowercases text and collapses everything except letters,
// digits, apostrophes and hyphens into single spaces.
func normalizePhrase(text string) string {
	text = strings.ReplaceAll(strings.ToLower(text), "’", "'")
	var b strings.Builder
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
