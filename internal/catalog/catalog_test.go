package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default(DefaultScorer())
	require.NoError(t, err)

	ctx := context.Background()
	vpn, err := c.GetByID(ctx, "vpn-access")
	require.NoError(t, err)
	require.NotNil(t, vpn)

	assert.Equal(t, "VPN Access", vpn.DisplayName())
	assert.Equal(t, "Accès VPN", vpn.Name.Get(LangSecondary))
	assert.Equal(t, []string{"vpnType", "justification"}, vpn.FieldNames())
	assert.True(t, vpn.IsRequired("vpnType"))

	db, err := c.GetByID(ctx, "database-access")
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, []string{"databaseName", "accessLevel", "justification", "startDate"}, db.FieldNames())
	assert.False(t, db.IsRequired("startDate"))

	vpnType := vpn.Field("vpnType")
	assert.Equal(t, FieldSelect, vpnType.Type)
	assert.True(t, vpnType.Required)
	assert.Equal(t, []string{"Remote access", "Site-to-site", "Contractor access"}, vpnType.Options)

	wifi, err := c.GetByID(ctx, "guest-wifi")
	require.NoError(t, err)
	assert.False(t, wifi.HasFields())

	missing, err := c.GetByID(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFieldFallsBackToText(t *testing.T) {
	svc := &ServiceDefinition{ID: "x", RequiredFields: []string{"notes"}}
	def := svc.Field("notes")
	assert.Equal(t, FieldText, def.Type)
	assert.True(t, def.Required)
	assert.Equal(t, "notes", def.Name)
}

func TestSearchByKeyword(t *testing.T) {
	c, err := Default(DefaultScorer())
	require.NoError(t, err)

	results, err := c.SearchByKeyword(context.Background(), "I would like a new laptop and a monitor", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "hardware-request", results[0].Service.ID)
	assert.LessOrEqual(t, len(results), 3)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	none, err := c.SearchByKeyword(context.Background(), "zzz qqq", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestScorerWeights(t *testing.T) {
	svc := &ServiceDefinition{
		ID:          "vpn",
		Name:        LocalizedText{"en": "VPN Access"},
		Description: LocalizedText{"en": "Remote network access"},
		Category:    "Network",
		Keywords:    []string{"vpn", "tunnel"},
	}
	s := DefaultScorer()

	// "vpn": name 10 + keyword 7; reverse keyword "vpn" 5.
	assert.Equal(t, 22.0, s.Score(svc, "vpn"))
	// "network": description 4 + category 2.
	assert.Equal(t, 6.0, s.Score(svc, "network"))
	assert.Equal(t, 0.0, s.Score(svc, "the and"))
}

func TestCategorySummary(t *testing.T) {
	c, err := Default(DefaultScorer())
	require.NoError(t, err)

	summary, err := c.CategorySummary(context.Background())
	require.NoError(t, err)
	assert.Contains(t, summary, "Available service categories:")
	assert.Contains(t, summary, "- Network (2)")
	assert.Contains(t, summary, "- Hardware (1)")
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate id",
			yaml: "services:\n  - id: a\n  - id: a\n",
		},
		{
			name: "select without options",
			yaml: "fields:\n  f:\n    type: select\nservices:\n  - id: a\n    required_fields: [f]\n",
		},
		{
			name: "bad pattern",
			yaml: "fields:\n  f:\n    type: text\n    pattern: '('\nservices:\n  - id: a\n    required_fields: [f]\n",
		},
		{
			name: "unknown type",
			yaml: "fields:\n  f:\n    type: date\nservices:\n  - id: a\n    required_fields: [f]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := Load(path, DefaultScorer())
			assert.Error(t, err)
		})
	}
}

func TestServiceLevelFieldOverride(t *testing.T) {
	data := []byte(`
fields:
  level:
    type: select
    options: [Low, High]
services:
  - id: svc
    required_fields: [level]
    fields:
      level:
        type: select
        options: [Bronze, Silver, Gold]
`)
	c, err := Parse(data, Scorer{})
	require.NoError(t, err)

	svc, _ := c.GetByID(context.Background(), "svc")
	require.NotNil(t, svc)
	assert.Equal(t, []string{"Bronze", "Silver", "Gold"}, svc.Field("level").Options)
}
