package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Intent   IntentConfig   `koanf:"intent"`
	Semantic SemanticConfig `koanf:"semantic"`
	Models   ModelsConfig   `koanf:"models"`
	Dialog   DialogConfig   `koanf:"dialog"`
	Actions  ActionsConfig  `koanf:"actions"`
	Preview  PreviewConfig  `koanf:"preview"`
	ITSM     ITSMConfig     `koanf:"itsm"`
	Audit    AuditConfig    `koanf:"audit"`
	Sweeper  SweeperConfig  `koanf:"sweeper"`
	Store    StoreConfig    `koanf:"store"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type CatalogConfig struct {
	Path              string  `koanf:"path"`
	NameWeight        float64 `koanf:"name_weight"`
	KeywordWeight     float64 `koanf:"keyword_weight"`
	DescriptionWeight float64 `koanf:"description_weight"`
	CategoryWeight    float64 `koanf:"category_weight"`
	ReverseWeight     float64 `koanf:"reverse_weight"`
}

// IntentConfig holds the matcher thresholds. They come from observed
// behaviour and are meant to be tuned per catalog.
type IntentConfig struct {
	KeywordLimit         int     `koanf:"keyword_limit"`
	HighConfidenceScore  float64 `koanf:"high_confidence_score"`
	KeywordCloseMargin   float64 `koanf:"keyword_close_margin"`
	SemanticExactScore   float64 `koanf:"semantic_exact_score"`
	SemanticSingleScore  float64 `koanf:"semantic_single_score"`
	SemanticClarifyGap   float64 `koanf:"semantic_clarify_gap"`
	MaxClarifyCandidates int     `koanf:"max_clarify_candidates"`
}

type SemanticConfig struct {
	Enabled    bool    `koanf:"enabled"`
	Corpus     string  `koanf:"corpus"`
	PersistDir string  `koanf:"persist_dir"`
	Limit      int     `koanf:"limit"`
	MinScore   float64 `koanf:"min_score"`
}

type ModelsConfig struct {
	Embedding string `koanf:"embedding"`
	BaseURL   string `koanf:"base_url"`
	APIKey    string `koanf:"api_key"`
	Timeout   string `koanf:"timeout"`
}

type DialogConfig struct {
	TTL string `koanf:"ttl"`
}

type ActionsConfig struct {
	Timeout      string `koanf:"timeout"`
	Retention    string `koanf:"retention"`
	SnapshotPath string `koanf:"snapshot_path"`
}

type PreviewConfig struct {
	FormStepDays     int      `koanf:"form_step_days"`
	ReviewStepDays   int      `koanf:"review_step_days"`
	ApprovalStepDays int      `koanf:"approval_step_days"`
	ValueMaxLength   int      `koanf:"value_max_length"`
	VIPUsers         []string `koanf:"vip_users"`
}

type ITSMConfig struct {
	BaseURL string `koanf:"base_url"`
	Token   string `koanf:"token"`
	Timeout string `koanf:"timeout"`
	DryRun  bool   `koanf:"dry_run"`
}

type AuditConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Path           string   `koanf:"path"`
	RedactPatterns []string `koanf:"redact_patterns"`
}

type SweeperConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
}

type StoreConfig struct {
	DataDir      string `koanf:"data_dir"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

const (
	DefaultServerLogLevel             = "info"
	DefaultCatalogNameWeight          = 10.0
	DefaultCatalogKeywordWeight       = 7.0
	DefaultCatalogDescriptionWeight   = 4.0
	DefaultCatalogCategoryWeight      = 2.0
	DefaultCatalogReverseWeight       = 5.0
	DefaultIntentKeywordLimit         = 5
	DefaultIntentHighConfidenceScore  = 15.0
	DefaultIntentKeywordCloseMargin   = 5.0
	DefaultIntentSemanticExactScore   = 0.85
	DefaultIntentSemanticSingleScore  = 0.75
	DefaultIntentSemanticClarifyGap   = 0.1
	DefaultIntentMaxClarifyCandidates = 3
	DefaultSemanticEnabled            = false
	DefaultSemanticCorpus             = "service_definition"
	DefaultSemanticLimit              = 5
	DefaultSemanticMinScore           = 0.5
	DefaultModelEmbedding             = "text-embedding-3-small"
	DefaultOpenAIBaseURL              = "https://api.openai.com/v1"
	DefaultModelTimeout               = "15s"
	DefaultDialogTTL                  = "30m"
	DefaultActionsTimeout             = "5m"
	DefaultActionsRetention           = "1h"
	DefaultPreviewFormStepDays        = 0
	DefaultPreviewReviewStepDays      = 2
	DefaultPreviewApprovalStepDays    = 1
	DefaultPreviewValueMaxLength      = 120
	DefaultITSMTimeout                = "15s"
	DefaultITSMDryRun                 = true
	DefaultAuditEnabled               = false
	DefaultSweeperEnabled             = true
	DefaultSweeperSchedule            = "@every 1m"
	DefaultStoreLockTimeout           = "10s"
	DefaultStoreLockRetry             = "100ms"
	DefaultStoreLockMaxRetry          = 100
	DefaultConfigDirName              = ".deskflow"
	DefaultEnvPrefix                  = "DESKFLOW_"
	DefaultCatalogPath                = ""
	DefaultActionsSnapshotPath        = ""
	DefaultSemanticPersistDir         = ""
	DefaultAuditPath                  = ""
	DefaultITSMBaseURL                = ""
	DefaultStoreDataDirRelativeToHome = ".deskflow/data"
	DefaultAuditRedactTokenPattern    = `(?i)bearer\s+[a-z0-9._-]+`
	DefaultAuditRedactPasswordPattern = `(?i)"password"\s*:\s*"[^"]*"`
)

// FlagAliases maps short command-line flag names onto config keys.
var FlagAliases = map[string]string{
	"log-level": "server.log_level",
	"data-dir":  "store.data_dir",
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	home, _ := os.UserHomeDir()

	defaults := map[string]interface{}{
		"server.log_level":              DefaultServerLogLevel,
		"catalog.path":                  DefaultCatalogPath,
		"catalog.name_weight":           DefaultCatalogNameWeight,
		"catalog.keyword_weight":        DefaultCatalogKeywordWeight,
		"catalog.description_weight":    DefaultCatalogDescriptionWeight,
		"catalog.category_weight":       DefaultCatalogCategoryWeight,
		"catalog.reverse_weight":        DefaultCatalogReverseWeight,
		"intent.keyword_limit":          DefaultIntentKeywordLimit,
		"intent.high_confidence_score":  DefaultIntentHighConfidenceScore,
		"intent.keyword_close_margin":   DefaultIntentKeywordCloseMargin,
		"intent.semantic_exact_score":   DefaultIntentSemanticExactScore,
		"intent.semantic_single_score":  DefaultIntentSemanticSingleScore,
		"intent.semantic_clarify_gap":   DefaultIntentSemanticClarifyGap,
		"intent.max_clarify_candidates": DefaultIntentMaxClarifyCandidates,
		"semantic.enabled":              DefaultSemanticEnabled,
		"semantic.corpus":               DefaultSemanticCorpus,
		"semantic.persist_dir":          DefaultSemanticPersistDir,
		"semantic.limit":                DefaultSemanticLimit,
		"semantic.min_score":            DefaultSemanticMinScore,
		"models.embedding":              DefaultModelEmbedding,
		"models.base_url":               DefaultOpenAIBaseURL,
		"models.timeout":                DefaultModelTimeout,
		"dialog.ttl":                    DefaultDialogTTL,
		"actions.timeout":               DefaultActionsTimeout,
		"actions.retention":             DefaultActionsRetention,
		"actions.snapshot_path":         DefaultActionsSnapshotPath,
		"preview.form_step_days":        DefaultPreviewFormStepDays,
		"preview.review_step_days":      DefaultPreviewReviewStepDays,
		"preview.approval_step_days":    DefaultPreviewApprovalStepDays,
		"preview.value_max_length":      DefaultPreviewValueMaxLength,
		"preview.vip_users":             []string{},
		"itsm.base_url":                 DefaultITSMBaseURL,
		"itsm.timeout":                  DefaultITSMTimeout,
		"itsm.dry_run":                  DefaultITSMDryRun,
		"audit.enabled":                 DefaultAuditEnabled,
		"audit.path":                    DefaultAuditPath,
		"audit.redact_patterns":         []string{DefaultAuditRedactTokenPattern, DefaultAuditRedactPasswordPattern},
		"sweeper.enabled":               DefaultSweeperEnabled,
		"sweeper.schedule":              DefaultSweeperSchedule,
		"store.data_dir":                filepath.Join(home, DefaultStoreDataDirRelativeToHome),
		"store.lock_timeout":            DefaultStoreLockTimeout,
		"store.lock_retry":              DefaultStoreLockRetry,
		"store.lock_max_retry":          DefaultStoreLockMaxRetry,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
	} else if home != "" {
		globalPath := filepath.Join(home, DefaultConfigDirName, "config.yaml")
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	k.Load(env.Provider(DefaultEnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, DefaultEnvPrefix)), "_", ".", 1)
	}), nil)

	if cmd != nil {
		flags := cmd.Flags()
		k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := f.Name
			if alias, ok := FlagAliases[key]; ok {
				key = alias
			}
			return key, posflag.FlagVal(flags, f)
		}), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if cfg.Models.APIKey == "" {
		cfg.Models.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	fields := []*string{
		&cfg.Catalog.Path,
		&cfg.Semantic.PersistDir,
		&cfg.Actions.SnapshotPath,
		&cfg.Audit.Path,
		&cfg.Store.DataDir,
	}
	for _, field := range fields {
		expanded, err := ExpandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

// ExpandPath resolves environment variables and "~/" home shortcuts.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := resolveHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if expanded == "~" {
			expanded = home
		} else {
			expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~/"))
		}
	}

	return filepath.Clean(expanded), nil
}

func resolveHomeDir() (string, error) {
	if home, err := os.UserHomeDir(); err == nil && home != "" && !strings.HasPrefix(home, "~") {
		return home, nil
	}
	if current, err := user.Current(); err == nil && current.HomeDir != "" {
		return current.HomeDir, nil
	}
	return "", fmt.Errorf("HOME is not set")
}
