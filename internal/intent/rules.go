package intent

import "regexp"

// Rule maps literal phrasings onto one service id.
type Rule struct {
	ServiceID string
	Patterns  []*regexp.Regexp
}

func (r Rule) matches(text string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func rule(serviceID string, patterns ...string) Rule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return Rule{ServiceID: serviceID, Patterns: compiled}
}

// DefaultRules covers the highest-volume services in English and French.
// A rule only fires when the catalog knows its service id.
func DefaultRules() []Rule {
	return []Rule{
		rule("vpn-access",
			`\bvpn\b`,
			`\bremote access\b`,
			`acc[eè]s (à )?distance`,
			`acc[eè]s au r[ée]seau de l'entreprise`,
		),
		rule("email-account",
			`\b(e-?mail|mailbox|outlook) account\b`,
			`\b(new|create|set ?up|open)\b.*\b(e-?mail|mailbox)\b`,
			`compte (de )?(courriel|messagerie|e-?mail)`,
			`bo[iî]te (aux lettres|mail|courriel)`,
		),
		rule("software-install",
			`\binstall\b`,
			`\binstallation of\b`,
			`\binstaller\b`,
			`installation (de|d'un|du) logiciel`,
		),
		rule("database-access",
			`\b(database|db) access\b`,
			`\baccess to (the |a |our )?([a-z0-9_-]+ )?(database|db)\b`,
			`acc[eè]s (à )?(la |une )?base de donn[ée]es`,
		),
		rule("password-reset",
			`\bpassword reset\b`,
			`\breset\b.*\bpassword\b`,
			`\bforgot\b.*\bpassword\b`,
			`r[ée]initialis\w* .*mot de passe`,
			`mot de passe oubli[ée]`,
		),
		rule("hardware-request",
			`\b(new|replacement|second) (laptop|computer|desktop|monitor|screen|keyboard|mouse|headset)\b`,
			`\bnouvel? (ordinateur|portable|[ée]cran|clavier|souris)`,
		),
	}
}
