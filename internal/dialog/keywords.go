package dialog

import (
	"strings"
	"unicode"
)

type vocabulary map[string]struct{}

func words(ws ...string) vocabulary {
	v := make(vocabulary, len(ws))
	for _, w := range ws {
		v[w] = struct{}{}
	}
	return v
}

var (
	cancelWords = words(
		"cancel", "cancel it", "cancel request", "cancel the request", "stop", "abort", "quit", "never mind", "nevermind",
		"annuler", "annule", "annulez", "annuler la demande", "arrêter", "arrête", "abandonner", "laisse tomber",
	)
	yesWords = words(
		"yes", "y", "yeah", "yep", "sure", "ok", "okay", "correct", "right", "that's it", "exactly",
		"oui", "ouais", "d'accord", "exact", "exactement", "c'est ça", "bien sûr",
	)
	noWords = words(
		"no", "n", "nope", "nah", "not that", "wrong", "something else",
		"non", "pas ça", "pas du tout", "autre chose",
	)
	confirmWords = words(
		"confirm", "submit", "yes", "go ahead", "send it",
		"confirmer", "confirme", "valider", "valide", "soumettre", "oui",
	)
	editWords = words(
		"edit", "change", "modify", "start over",
		"modifier", "changer", "corriger", "recommencer",
	)
	skipWords = words(
		"skip", "none", "n/a", "-",
		"passer", "aucun", "aucune", "rien",
	)
)

// Normalize lowercases message, folds curly apostrophes, trims trailing
// punctuation and collapses whitespace.
func Normalize(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || unicode.IsSpace(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

func (v vocabulary) exact(message string) bool {
	_, ok := v[Normalize(message)]
	return ok
}

// leading also accepts short replies that open with a vocabulary word,
// such as "yes please" or "oui merci".
func (v vocabulary) leading(message string) bool {
	norm := Normalize(message)
	if _, ok := v[norm]; ok {
		return true
	}
	fields := strings.Fields(norm)
	if len(fields) < 2 || len(fields) > 3 {
		return false
	}
	_, ok := v[strings.TrimRight(fields[0], ",")]
	return ok
}

// Cancel words must make up the whole message so that field answers such
// as "stop the old account" are not mistaken for a cancel.
func IsCancel(message string) bool  { return cancelWords.exact(message) }
func IsYes(message string) bool     { return yesWords.leading(message) }
func IsNo(message string) bool      { return noWords.leading(message) }
func IsConfirm(message string) bool { return confirmWords.leading(message) }
func IsEdit(message string) bool    { return editWords.exact(message) }
func IsSkip(message string) bool    { return skipWords.exact(message) }
