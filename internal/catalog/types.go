package catalog

import (
	"context"
	"sort"
	"strings"
)

// Languages supported by the desk. English is primary.
const (
	LangPrimary   = "en"
	LangSecondary = "fr"
)

// LocalizedText maps a language code onto text.
type LocalizedText map[string]string

// Get returns the text in lang, falling back to the primary language and
// then to any non-empty translation.
func (t LocalizedText) Get(lang string) string {
	if v := strings.TrimSpace(t[lang]); v != "" {
		return v
	}
	if v := strings.TrimSpace(t[LangPrimary]); v != "" {
		return v
	}
	for _, v := range t {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Values returns every non-empty translation ordered by language code.
func (t LocalizedText) Values() []string {
	langs := make([]string, 0, len(t))
	for lang := range t {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	out := make([]string, 0, len(t))
	for _, lang := range langs {
		if v := strings.TrimSpace(t[lang]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
	FieldEmail  FieldType = "email"
	FieldPhone  FieldType = "phone"
	FieldNumber FieldType = "number"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldSelect, FieldEmail, FieldPhone, FieldNumber:
		return true
	}
	return false
}

// FieldDefinition describes one input a service collects.
type FieldDefinition struct {
	Name         string        `yaml:"name" json:"name"`
	Prompt       LocalizedText `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Type         FieldType     `yaml:"type" json:"type"`
	Required     bool          `yaml:"required" json:"required"`
	MinLength    int           `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength    int           `yaml:"max_length,omitempty" json:"max_length,omitempty"`
	Pattern      string        `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	PatternError string        `yaml:"pattern_error,omitempty" json:"pattern_error,omitempty"`
	Options      []string      `yaml:"options,omitempty" json:"options,omitempty"`
}

type WorkflowStep struct {
	Order            int    `yaml:"order" json:"order"`
	Description      string `yaml:"description" json:"description"`
	Team             string `yaml:"team,omitempty" json:"team,omitempty"`
	RequiresApproval bool   `yaml:"requires_approval" json:"requires_approval"`
	Condition        string `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// ServiceDefinition is a catalog entry. Treat it as immutable once loaded.
type ServiceDefinition struct {
	ID                      string                     `yaml:"id" json:"id"`
	Name                    LocalizedText              `yaml:"name" json:"name"`
	Description             LocalizedText              `yaml:"description" json:"description"`
	Category                string                     `yaml:"category" json:"category"`
	Keywords                []string                   `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	RequiredFields          []string                   `yaml:"required_fields,omitempty" json:"required_fields,omitempty"`
	OptionalFields          []string                   `yaml:"optional_fields,omitempty" json:"optional_fields,omitempty"`
	WorkflowSteps           []WorkflowStep             `yaml:"workflow_steps,omitempty" json:"workflow_steps,omitempty"`
	RequiresManagerApproval bool                       `yaml:"requires_manager_approval" json:"requires_manager_approval"`
	VIPBypassEligible       bool                       `yaml:"vip_bypass_eligible" json:"vip_bypass_eligible"`
	Fields                  map[string]FieldDefinition `yaml:"-" json:"fields,omitempty"`
}

// DisplayName is the primary-language name, or the id when unnamed.
func (s *ServiceDefinition) DisplayName() string {
	if name := s.Name.Get(LangPrimary); name != "" {
		return name
	}
	return s.ID
}

// FieldNames lists required fields first, then optional ones, in declared order.
func (s *ServiceDefinition) FieldNames() []string {
	names := make([]string, 0, len(s.RequiredFields)+len(s.OptionalFields))
	names = append(names, s.RequiredFields...)
	names = append(names, s.OptionalFields...)
	return names
}

func (s *ServiceDefinition) HasFields() bool {
	return len(s.RequiredFields)+len(s.OptionalFields) > 0
}

func (s *ServiceDefinition) IsRequired(name string) bool {
	for _, f := range s.RequiredFields {
		if f == name {
			return true
		}
	}
	return false
}

// Declares reports whether name is one of the service's fields.
func (s *ServiceDefinition) Declares(name string) bool {
	for _, f := range s.FieldNames() {
		if f == name {
			return true
		}
	}
	return false
}

// Field returns the definition for a declared field. Undeclared details
// default to free text; Required always follows the service's lists.
func (s *ServiceDefinition) Field(name string) FieldDefinition {
	def, ok := s.Fields[name]
	if !ok {
		def = FieldDefinition{Name: name, Type: FieldText}
	}
	if def.Type == "" {
		def.Type = FieldText
	}
	def.Name = name
	def.Required = s.IsRequired(name)
	return def
}

// ScoredService is a keyword search hit.
type ScoredService struct {
	Service *ServiceDefinition
	Score   float64
}

// Lookup is the read-only catalog collaborator used by the matcher and
// the orchestrator. GetByID returns nil, nil for unknown ids.
type Lookup interface {
	GetByID(ctx context.Context, id string) (*ServiceDefinition, error)
	SearchByKeyword(ctx context.Context, query string, limit int) ([]ScoredService, error)
	CategorySummary(ctx context.Context) (string, error)
}
