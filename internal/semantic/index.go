// Package semantic provides similarity search over catalog service
// documents, backed by chromem-go.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/intent"
	"github.com/philippgille/chromem-go"
)

// Index stores one chromem collection per corpus tag. Vectors are computed
// by the Embedder before they reach chromem.
type Index struct {
	db       *chromem.DB
	embedder Embedder
}

// NewIndex opens a persistent database under dir, or an in-memory one when
// dir is empty.
func NewIndex(dir string, embedder Embedder) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	db := chromem.NewDB()
	if dir != "" {
		var err error
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open vector db: %w", err)
		}
	}
	return &Index{db: db, embedder: embedder}, nil
}

// IndexCatalog upserts one document per service into the corpus collection.
func (i *Index) IndexCatalog(ctx context.Context, corpus string, services []*catalog.ServiceDefinition) error {
	col, err := i.db.GetOrCreateCollection(corpus, nil, nil)
	if err != nil {
		return fmt.Errorf("collection %s: %w", corpus, err)
	}

	docs := make([]chromem.Document, 0, len(services))
	for _, svc := range services {
		content := ServiceDocument(svc)
		vec, err := i.embedder.Embed(ctx, content)
		if err != nil {
			return fmt.Errorf("embed %s: %w", svc.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID: svc.ID,
			Metadata: map[string]string{
				intent.MetadataServiceID: svc.ID,
				"category":               svc.Category,
			},
			Embedding: vec,
			Content:   content,
		})
	}
	if len(docs) == 0 {
		return nil
	}

	// AddDocuments upserts by id.
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("index %s: %w", corpus, err)
	}
	slog.Debug("Indexed catalog", "corpus", corpus, "documents", len(docs))
	return nil
}

// SearchSimilar implements intent.SemanticSearch.
func (i *Index) SearchSimilar(ctx context.Context, query, corpus string, limit int, minScore float64) ([]intent.Hit, error) {
	col := i.db.GetCollection(corpus, nil)
	if col == nil {
		return []intent.Hit{}, nil
	}

	// chromem rejects nResults above the document count.
	count := col.Count()
	if count == 0 {
		return []intent.Hit{}, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	vec, err := i.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := col.QueryEmbedding(ctx, vec, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", corpus, err)
	}

	hits := make([]intent.Hit, 0, len(docs))
	for _, doc := range docs {
		score := float64(doc.Similarity)
		if score < minScore {
			continue
		}
		hits = append(hits, intent.Hit{Score: score, Metadata: doc.Metadata})
	}
	return hits, nil
}

// ServiceDocument is the text embedded for a service: names and
// descriptions in every language, keywords and category.
func ServiceDocument(svc *catalog.ServiceDefinition) string {
	parts := make([]string, 0, 8)
	parts = append(parts, svc.Name.Values()...)
	parts = append(parts, svc.Description.Values()...)
	if len(svc.Keywords) > 0 {
		parts = append(parts, strings.Join(svc.Keywords, ", "))
	}
	if svc.Category != "" {
		parts = append(parts, svc.Category)
	}
	return strings.Join(parts, "\n")
}
