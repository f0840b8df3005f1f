// Package intent turns a free-text utterance into a catalog service and a
// confidence level.
package intent

import (
	"context"

	"github.com/harunnryd/deskflow/internal/catalog"
)

type Kind int

const (
	NoMatch Kind = iota
	Exact
	HighConfidence
	Clarification
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case HighConfidence:
		return "high_confidence"
	case Clarification:
		return "clarification"
	default:
		return "no_match"
	}
}

const (
	ReasonEmpty        = "empty query"
	ReasonProblem      = "problem, not a request"
	ReasonNoCandidates = "no matching service"
)

// Result is a tagged match outcome. Service and Score are set for Exact and
// HighConfidence, Candidates for Clarification, Reason for NoMatch.
type Result struct {
	Kind       Kind
	Service    *catalog.ServiceDefinition
	Score      float64
	Candidates []*catalog.ServiceDefinition
	Reason     string
}

// Decisive reports whether the result names a single service.
func (r Result) Decisive() bool {
	return (r.Kind == Exact || r.Kind == HighConfidence) && r.Service != nil
}

// IsProblem reports whether the text was rejected as a fault report.
func (r Result) IsProblem() bool {
	return r.Kind == NoMatch && r.Reason == ReasonProblem
}

func noMatch(reason string) Result {
	return Result{Kind: NoMatch, Reason: reason}
}

// MetadataServiceID is the metadata key carrying the catalog id of an
// indexed service document.
const MetadataServiceID = "service_id"

// Hit is one similarity-search result.
type Hit struct {
	Score    float64
	Metadata map[string]string
}

// SemanticSearch finds documents similar to query within a corpus.
type SemanticSearch interface {
	SearchSimilar(ctx context.Context, query, corpus string, limit int, minScore float64) ([]Hit, error)
}
