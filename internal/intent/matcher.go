package intent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/config"
	"github.com/harunnryd/deskflow/internal/logger"
)

// Options holds the matcher thresholds.
type Options struct {
	KeywordLimit         int
	HighConfidenceScore  float64
	KeywordCloseMargin   float64
	Corpus               string
	SemanticLimit        int
	SemanticMinScore     float64
	SemanticExactScore   float64
	SemanticSingleScore  float64
	SemanticClarifyGap   float64
	MaxClarifyCandidates int
}

func DefaultOptions() Options {
	return Options{
		KeywordLimit:         config.DefaultIntentKeywordLimit,
		HighConfidenceScore:  config.DefaultIntentHighConfidenceScore,
		KeywordCloseMargin:   config.DefaultIntentKeywordCloseMargin,
		Corpus:               config.DefaultSemanticCorpus,
		SemanticLimit:        config.DefaultSemanticLimit,
		SemanticMinScore:     config.DefaultSemanticMinScore,
		SemanticExactScore:   config.DefaultIntentSemanticExactScore,
		SemanticSingleScore:  config.DefaultIntentSemanticSingleScore,
		SemanticClarifyGap:   config.DefaultIntentSemanticClarifyGap,
		MaxClarifyCandidates: config.DefaultIntentMaxClarifyCandidates,
	}
}

// OptionsFromConfig reads thresholds from the intent and semantic sections.
func OptionsFromConfig(intentCfg config.IntentConfig, semanticCfg config.SemanticConfig) Options {
	return Options{
		KeywordLimit:         intentCfg.KeywordLimit,
		HighConfidenceScore:  intentCfg.HighConfidenceScore,
		KeywordCloseMargin:   intentCfg.KeywordCloseMargin,
		Corpus:               semanticCfg.Corpus,
		SemanticLimit:        semanticCfg.Limit,
		SemanticMinScore:     semanticCfg.MinScore,
		SemanticExactScore:   intentCfg.SemanticExactScore,
		SemanticSingleScore:  intentCfg.SemanticSingleScore,
		SemanticClarifyGap:   intentCfg.SemanticClarifyGap,
		MaxClarifyCandidates: intentCfg.MaxClarifyCandidates,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.KeywordLimit <= 0 {
		o.KeywordLimit = d.KeywordLimit
	}
	if o.HighConfidenceScore <= 0 {
		o.HighConfidenceScore = d.HighConfidenceScore
	}
	if o.KeywordCloseMargin < 0 {
		o.KeywordCloseMargin = d.KeywordCloseMargin
	}
	if o.Corpus == "" {
		o.Corpus = d.Corpus
	}
	if o.SemanticLimit <= 0 {
		o.SemanticLimit = d.SemanticLimit
	}
	if o.SemanticExactScore <= 0 {
		o.SemanticExactScore = d.SemanticExactScore
	}
	if o.SemanticSingleScore <= 0 {
		o.SemanticSingleScore = d.SemanticSingleScore
	}
	if o.SemanticClarifyGap < 0 {
		o.SemanticClarifyGap = d.SemanticClarifyGap
	}
	if o.MaxClarifyCandidates <= 0 {
		o.MaxClarifyCandidates = d.MaxClarifyCandidates
	}
	return o
}

// Matcher runs the layered strategy: problem rejection, literal rules,
// keyword scoring, then semantic fallback. It never mutates its collaborators.
type Matcher struct {
	catalog  catalog.Lookup
	semantic SemanticSearch
	rules    []Rule
	opts     Options
}

// NewMatcher builds a matcher. semantic may be nil, in which case keyword
// candidates decide on their own.
func NewMatcher(lookup catalog.Lookup, semantic SemanticSearch, opts Options) *Matcher {
	return &Matcher{
		catalog:  lookup,
		semantic: semantic,
		rules:    DefaultRules(),
		opts:     opts.withDefaults(),
	}
}

// WithRules replaces the literal rule table.
func (m *Matcher) WithRules(rules []Rule) *Matcher {
	m.rules = rules
	return m
}

// Match classifies text. Errors are catalog failures only; a failing
// semantic collaborator degrades to keyword candidates.
func (m *Matcher) Match(ctx context.Context, text string) (Result, error) {
	log := logger.FromContext(ctx)
	query := strings.TrimSpace(text)
	if query == "" {
		return noMatch(ReasonEmpty), nil
	}

	if IsProblemReport(query) {
		log.Debug("Intent rejected as problem report")
		return noMatch(ReasonProblem), nil
	}

	if res, ok, err := m.matchRules(ctx, query); err != nil {
		return Result{}, err
	} else if ok {
		log.Debug("Intent matched literal rule", "service", res.Service.ID)
		return res, nil
	}

	scored, err := m.catalog.SearchByKeyword(ctx, query, m.opts.KeywordLimit)
	if err != nil {
		return Result{}, fmt.Errorf("keyword search: %w", err)
	}
	if res, ok := m.keywordDecision(scored); ok {
		log.Debug("Intent matched by keywords", "service", res.Service.ID, "score", res.Score)
		return res, nil
	}

	if m.semantic == nil {
		return m.keywordFallback(scored), nil
	}

	hits, err := m.semantic.SearchSimilar(ctx, query, m.opts.Corpus, m.opts.SemanticLimit, m.opts.SemanticMinScore)
	if err != nil {
		log.Warn("Semantic search failed, using keyword candidates", "error", err)
		return m.keywordFallback(scored), nil
	}

	candidates, err := m.resolveHits(ctx, hits)
	if err != nil {
		return Result{}, err
	}
	return m.semanticDecision(candidates), nil
}

func (m *Matcher) matchRules(ctx context.Context, query string) (Result, bool, error) {
	for _, r := range m.rules {
		if !r.matches(query) {
			continue
		}
		svc, err := m.catalog.GetByID(ctx, r.ServiceID)
		if err != nil {
			return Result{}, false, fmt.Errorf("lookup %s: %w", r.ServiceID, err)
		}
		if svc == nil {
			continue
		}
		return Result{Kind: Exact, Service: svc, Score: 1}, true, nil
	}
	return Result{}, false, nil
}

// keywordDecision accepts the top keyword hit only when it clears the
// threshold and no runner-up sits within the close margin.
func (m *Matcher) keywordDecision(scored []catalog.ScoredService) (Result, bool) {
	if len(scored) == 0 {
		return Result{}, false
	}
	top := scored[0]
	if top.Score < m.opts.HighConfidenceScore {
		return Result{}, false
	}
	if len(scored) > 1 && top.Score-scored[1].Score < m.opts.KeywordCloseMargin {
		return Result{}, false
	}
	return Result{Kind: HighConfidence, Service: top.Service, Score: top.Score}, true
}

// keywordFallback decides without semantic help. A lone candidate needs at
// least half the high-confidence score; weaker ones are offered for
// clarification instead.
func (m *Matcher) keywordFallback(scored []catalog.ScoredService) Result {
	switch len(scored) {
	case 0:
		return noMatch(ReasonNoCandidates)
	case 1:
		if scored[0].Score >= m.opts.HighConfidenceScore/2 {
			return Result{Kind: HighConfidence, Service: scored[0].Service, Score: scored[0].Score}
		}
		return Result{Kind: Clarification, Candidates: []*catalog.ServiceDefinition{scored[0].Service}}
	}
	n := min(len(scored), m.opts.MaxClarifyCandidates)
	candidates := make([]*catalog.ServiceDefinition, 0, n)
	for _, s := range scored[:n] {
		candidates = append(candidates, s.Service)
	}
	return Result{Kind: Clarification, Candidates: candidates}
}

// resolveHits keeps the best score per service id and drops ids the
// catalog no longer knows.
func (m *Matcher) resolveHits(ctx context.Context, hits []Hit) ([]catalog.ScoredService, error) {
	best := make(map[string]float64, len(hits))
	for _, h := range hits {
		id := h.Metadata[MetadataServiceID]
		if id == "" {
			continue
		}
		if prev, ok := best[id]; !ok || h.Score > prev {
			best[id] = h.Score
		}
	}

	out := make([]catalog.ScoredService, 0, len(best))
	for id, score := range best {
		svc, err := m.catalog.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", id, err)
		}
		if svc == nil {
			continue
		}
		out = append(out, catalog.ScoredService{Service: svc, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Service.ID < out[j].Service.ID
	})
	return out, nil
}

func (m *Matcher) semanticDecision(candidates []catalog.ScoredService) Result {
	if len(candidates) == 0 {
		return noMatch(ReasonNoCandidates)
	}
	top := candidates[0]
	if len(candidates) == 1 {
		if top.Score >= m.opts.SemanticSingleScore {
			return Result{Kind: HighConfidence, Service: top.Service, Score: top.Score}
		}
		return Result{Kind: Clarification, Candidates: []*catalog.ServiceDefinition{top.Service}}
	}
	if top.Score >= m.opts.SemanticExactScore && top.Score-candidates[1].Score >= m.opts.SemanticClarifyGap {
		return Result{Kind: HighConfidence, Service: top.Service, Score: top.Score}
	}

	n := min(len(candidates), m.opts.MaxClarifyCandidates)
	out := make([]*catalog.ServiceDefinition, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.Service)
	}
	return Result{Kind: Clarification, Candidates: out}
}
