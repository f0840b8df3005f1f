package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type fileFormat struct {
	Fields   map[string]FieldDefinition `yaml:"fields"`
	Services []serviceEntry             `yaml:"services"`
}

type serviceEntry struct {
	ServiceDefinition `yaml:",inline"`
	Fields            map[string]FieldDefinition `yaml:"fields"`
}

// Catalog is an in-memory, read-only service catalog loaded from YAML.
type Catalog struct {
	services []*ServiceDefinition
	byID     map[string]*ServiceDefinition
	scorer   Scorer
}

var _ Lookup = (*Catalog)(nil)

// Default returns the catalog bundled with the binary.
func Default(scorer Scorer) (*Catalog, error) {
	return Parse(defaultCatalog, scorer)
}

// Load reads a catalog file. An empty path loads the bundled catalog.
func Load(path string, scorer Scorer) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(scorer)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data, scorer)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	slog.Info("Catalog loaded", "path", path, "services", len(c.services))
	return c, nil
}

func Parse(data []byte, scorer Scorer) (*Catalog, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	services := make([]*ServiceDefinition, 0, len(raw.Services))
	for _, entry := range raw.Services {
		svc := entry.ServiceDefinition
		svc.Fields = make(map[string]FieldDefinition)
		for _, name := range svc.FieldNames() {
			if def, ok := entry.Fields[name]; ok {
				svc.Fields[name] = def
			} else if def, ok := raw.Fields[name]; ok {
				svc.Fields[name] = def
			}
		}
		sort.SliceStable(svc.WorkflowSteps, func(i, j int) bool {
			return svc.WorkflowSteps[i].Order < svc.WorkflowSteps[j].Order
		})
		services = append(services, &svc)
	}

	return New(services, scorer)
}

// New builds a catalog from already-constructed definitions.
func New(services []*ServiceDefinition, scorer Scorer) (*Catalog, error) {
	c := &Catalog{
		services: services,
		byID:     make(map[string]*ServiceDefinition, len(services)),
		scorer:   scorer,
	}
	if c.scorer.isZero() {
		c.scorer = DefaultScorer()
	}

	for _, svc := range services {
		if err := validateService(svc); err != nil {
			return nil, err
		}
		if _, dup := c.byID[svc.ID]; dup {
			return nil, fmt.Errorf("duplicate service id %q", svc.ID)
		}
		c.byID[svc.ID] = svc
	}
	return c, nil
}

func validateService(svc *ServiceDefinition) error {
	if strings.TrimSpace(svc.ID) == "" {
		return fmt.Errorf("service without id")
	}
	seen := make(map[string]struct{})
	for _, name := range svc.FieldNames() {
		if _, dup := seen[name]; dup {
			return fmt.Errorf("service %q declares field %q twice", svc.ID, name)
		}
		seen[name] = struct{}{}

		def := svc.Field(name)
		if !def.Type.Valid() {
			return fmt.Errorf("service %q field %q: unknown type %q", svc.ID, name, def.Type)
		}
		if def.Type == FieldSelect && len(def.Options) == 0 {
			return fmt.Errorf("service %q field %q: select field without options", svc.ID, name)
		}
		if def.Pattern != "" {
			if _, err := regexp.Compile(def.Pattern); err != nil {
				return fmt.Errorf("service %q field %q: bad pattern: %w", svc.ID, name, err)
			}
		}
	}
	return nil
}

func (c *Catalog) GetByID(ctx context.Context, id string) (*ServiceDefinition, error) {
	return c.byID[strings.TrimSpace(id)], nil
}

// SearchByKeyword scores every service against query and returns the
// positive hits, best first. limit <= 0 means no limit.
func (c *Catalog) SearchByKeyword(ctx context.Context, query string, limit int) ([]ScoredService, error) {
	var results []ScoredService
	for _, svc := range c.services {
		if score := c.scorer.Score(svc, query); score > 0 {
			results = append(results, ScoredService{Service: svc, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Service.ID < results[j].Service.ID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (c *Catalog) CategorySummary(ctx context.Context) (string, error) {
	counts := make(map[string]int)
	for _, svc := range c.services {
		counts[svc.Category]++
	}

	categories := make([]string, 0, len(counts))
	for cat := range counts {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString("Available service categories:\n")
	for _, cat := range categories {
		label := cat
		if label == "" {
			label = "Other"
		}
		fmt.Fprintf(&b, "- %s (%d)\n", label, counts[cat])
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Services returns every definition in file order.
func (c *Catalog) Services() []*ServiceDefinition {
	out := make([]*ServiceDefinition, len(c.services))
	copy(out, c.services)
	return out
}
