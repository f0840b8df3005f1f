package catalog

import (
	"strings"
	"unicode"
)

// Scorer weighs keyword evidence for a service against a free-text query.
type Scorer struct {
	NameWeight        float64
	KeywordWeight     float64
	DescriptionWeight float64
	CategoryWeight    float64
	ReverseWeight     float64
}

func DefaultScorer() Scorer {
	return Scorer{
		NameWeight:        10,
		KeywordWeight:     7,
		DescriptionWeight: 4,
		CategoryWeight:    2,
		ReverseWeight:     5,
	}
}

func (s Scorer) isZero() bool {
	return s == Scorer{}
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "need": {}, "want": {}, "would": {}, "like": {},
	"please": {}, "can": {}, "get": {}, "have": {}, "with": {}, "new": {}, "some": {},
	"les": {}, "des": {}, "une": {}, "pour": {}, "avec": {}, "besoin": {}, "veux": {},
	"voudrais": {}, "mon": {}, "mes": {}, "svp": {},
}

// Tokens lowercases text and splits it into words of three letters or
// more, dropping filler words.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Score sums the evidence for svc. Each query token earns the name,
// keyword, description and category weights where it appears; each
// service keyword contained in the query earns the reverse weight.
func (s Scorer) Score(svc *ServiceDefinition, query string) float64 {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return 0
	}

	names := strings.ToLower(strings.Join(svc.Name.Values(), " "))
	descriptions := strings.ToLower(strings.Join(svc.Description.Values(), " "))
	category := strings.ToLower(svc.Category)
	keywords := make([]string, 0, len(svc.Keywords))
	for _, kw := range svc.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	var score float64
	for _, tok := range tokens {
		if strings.Contains(names, tok) {
			score += s.NameWeight
		}
		for _, kw := range keywords {
			if strings.Contains(kw, tok) {
				score += s.KeywordWeight
				break
			}
		}
		if strings.Contains(descriptions, tok) {
			score += s.DescriptionWeight
		}
		if category != "" && strings.Contains(category, tok) {
			score += s.CategoryWeight
		}
	}

	lowered := strings.ToLower(query)
	for _, kw := range keywords {
		if len([]rune(kw)) >= 3 && strings.Contains(lowered, kw) {
			score += s.ReverseWeight
		}
	}
	return score
}
