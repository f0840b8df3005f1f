package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSemantic struct {
	hits   []Hit
	err    error
	calls  int
	corpus string
}

func (f *fakeSemantic) SearchSimilar(ctx context.Context, query, corpus string, limit int, minScore float64) ([]Hit, error) {
	f.calls++
	f.corpus = corpus
	return f.hits, f.err
}

func hit(id string, score float64) Hit {
	return Hit{Score: score, Metadata: map[string]string{MetadataServiceID: id}}
}

func officeCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*catalog.ServiceDefinition{
		{
			ID:          "printer",
			Name:        catalog.LocalizedText{"en": "Printer Setup"},
			Description: catalog.LocalizedText{"en": "Configure a printer"},
			Category:    "Office",
			Keywords:    []string{"printer", "toner"},
		},
		{
			ID:          "scanner",
			Name:        catalog.LocalizedText{"en": "Scanner Setup"},
			Description: catalog.LocalizedText{"en": "Configure a scanner"},
			Category:    "Office",
			Keywords:    []string{"scanner"},
		},
	}, catalog.Scorer{})
	require.NoError(t, err)
	return cat
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default(catalog.Scorer{})
	require.NoError(t, err)
	return cat
}

func TestMatchEmptyAndProblem(t *testing.T) {
	m := NewMatcher(defaultCatalog(t), nil, DefaultOptions())
	ctx := context.Background()

	res, err := m.Match(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, res.Kind)
	assert.Equal(t, ReasonEmpty, res.Reason)

	for _, text := range []string{
		"email not working",
		"My VPN doesn't work since this morning",
		"Outlook crashed again",
		"Mon ordinateur ne fonctionne pas",
		"impossible de me connecter au VPN",
	} {
		res, err := m.Match(ctx, text)
		require.NoError(t, err)
		assert.True(t, res.IsProblem(), text)
		assert.False(t, res.Decisive(), text)
	}
}

func TestMatchLiteralRules(t *testing.T) {
	m := NewMatcher(defaultCatalog(t), nil, DefaultOptions())
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{text: "I need VPN access", want: "vpn-access"},
		{text: "J'ai besoin d'un accès à distance", want: "vpn-access"},
		{text: "Please create a new email account for our intern", want: "email-account"},
		{text: "Can you install Visual Studio Code?", want: "software-install"},
		{text: "I need access to the billing database", want: "database-access"},
		{text: "I forgot my password", want: "password-reset"},
		{text: "Réinitialiser mon mot de passe", want: "password-reset"},
		{text: "I would like a new laptop", want: "hardware-request"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res, err := m.Match(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, Exact, res.Kind)
			require.NotNil(t, res.Service)
			assert.Equal(t, tt.want, res.Service.ID)
		})
	}
}

func TestRuleIgnoredWhenServiceUnknown(t *testing.T) {
	m := NewMatcher(officeCatalog(t), nil, DefaultOptions())

	res, err := m.Match(context.Background(), "I need VPN access")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, res.Kind)
	assert.Equal(t, ReasonNoCandidates, res.Reason)
}

func TestMatchKeywordHighConfidence(t *testing.T) {
	sem := &fakeSemantic{}
	m := NewMatcher(officeCatalog(t), sem, DefaultOptions())

	res, err := m.Match(context.Background(), "toner for the printer")
	require.NoError(t, err)
	assert.Equal(t, HighConfidence, res.Kind)
	assert.Equal(t, "printer", res.Service.ID)
	assert.Equal(t, 38.0, res.Score)
	assert.Zero(t, sem.calls)
}

func TestMatchKeywordFallbackWithoutSemantic(t *testing.T) {
	m := NewMatcher(officeCatalog(t), nil, DefaultOptions())

	res, err := m.Match(context.Background(), "setup")
	require.NoError(t, err)
	assert.Equal(t, Clarification, res.Kind)
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "printer", res.Candidates[0].ID)
	assert.Equal(t, "scanner", res.Candidates[1].ID)
}

func TestMatchKeywordFallbackSingleCandidate(t *testing.T) {
	cat, err := catalog.New([]*catalog.ServiceDefinition{
		{
			ID:       "printer",
			Name:     catalog.LocalizedText{"en": "Printer Setup"},
			Category: "Office",
			Keywords: []string{"toner"},
		},
	}, catalog.Scorer{})
	require.NoError(t, err)
	m := NewMatcher(cat, nil, DefaultOptions())
	ctx := context.Background()

	res, err := m.Match(ctx, "toner")
	require.NoError(t, err)
	assert.Equal(t, HighConfidence, res.Kind)
	assert.Equal(t, "printer", res.Service.ID)
	assert.Equal(t, 12.0, res.Score)

	res, err = m.Match(ctx, "office")
	require.NoError(t, err)
	assert.Equal(t, Clarification, res.Kind)
	assert.False(t, res.Decisive())
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "printer", res.Candidates[0].ID)
}

func TestMatchSemanticFallback(t *testing.T) {
	tests := []struct {
		name       string
		hits       []Hit
		kind       Kind
		service    string
		candidates []string
	}{
		{
			name:    "clear leader after dedup",
			hits:    []Hit{hit("printer", 0.8), hit("scanner", 0.6), hit("printer", 0.9)},
			kind:    HighConfidence,
			service: "printer",
		},
		{
			name:       "close scores ask for clarification",
			hits:       []Hit{hit("scanner", 0.78), hit("printer", 0.8)},
			kind:       Clarification,
			candidates: []string{"printer", "scanner"},
		},
		{
			name:    "single strong candidate",
			hits:    []Hit{hit("scanner", 0.8)},
			kind:    HighConfidence,
			service: "scanner",
		},
		{
			name:       "single weak candidate",
			hits:       []Hit{hit("scanner", 0.6)},
			kind:       Clarification,
			candidates: []string{"scanner"},
		},
		{
			name: "no hits",
			kind: NoMatch,
		},
		{
			name: "unknown ids only",
			hits: []Hit{hit("retired-service", 0.99), {Score: 0.9}},
			kind: NoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sem := &fakeSemantic{hits: tt.hits}
			m := NewMatcher(officeCatalog(t), sem, DefaultOptions())

			res, err := m.Match(context.Background(), "setup")
			require.NoError(t, err)
			assert.Equal(t, 1, sem.calls)
			assert.Equal(t, "service_definition", sem.corpus)
			assert.Equal(t, tt.kind, res.Kind)
			if tt.service != "" {
				require.NotNil(t, res.Service)
				assert.Equal(t, tt.service, res.Service.ID)
			}
			var ids []string
			for _, c := range res.Candidates {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.candidates, ids)
		})
	}
}

func TestMatchSemanticErrorFallsBackToKeywords(t *testing.T) {
	sem := &fakeSemantic{err: errors.New("connection refused")}
	m := NewMatcher(officeCatalog(t), sem, DefaultOptions())

	res, err := m.Match(context.Background(), "setup")
	require.NoError(t, err)
	assert.Equal(t, Clarification, res.Kind)
	assert.Len(t, res.Candidates, 2)
}

func TestIsProblemReport(t *testing.T) {
	assert.True(t, IsProblemReport("Teams shows an ERROR on start"))
	assert.True(t, IsProblemReport("the printer is broken."))
	assert.True(t, IsProblemReport("Le VPN ne marche plus"))
	assert.True(t, IsProblemReport("it doesn’t work"))
	assert.False(t, IsProblemReport("I need VPN access"))
	assert.False(t, IsProblemReport("terrorism training course"))
}
