package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/audit"
	"github.com/harunnryd/deskflow/internal/catalog"
	"github.com/harunnryd/deskflow/internal/config"
	"github.com/harunnryd/deskflow/internal/dialog"
	dfErrors "github.com/harunnryd/deskflow/internal/errors"
	"github.com/harunnryd/deskflow/internal/guided"
	"github.com/harunnryd/deskflow/internal/intent"
	"github.com/harunnryd/deskflow/internal/itsm"
	"github.com/harunnryd/deskflow/internal/preview"
	"github.com/harunnryd/deskflow/internal/semantic"
	"github.com/harunnryd/deskflow/internal/store"
	"github.com/harunnryd/deskflow/internal/sweeper"
)

const sweeperStopTimeout = 5 * time.Second

type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config *config.Config
	Paths  store.Paths
	Lock   *store.FileLock

	Catalog      *catalog.Catalog
	Index        *semantic.Index
	Matcher      *intent.Matcher
	Dialogs      *dialog.Store
	Audit        *audit.FileLogger
	Errors       dfErrors.ErrorMapper
	Actions      *actions.Store
	Users        *guided.StaticDirectory
	Orchestrator *guided.Orchestrator
	Sweeper      *sweeper.Sweeper
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	c := &RuntimeComponents{
		Ctx:    ctx,
		Cancel: cancel,
		Config: cfg,
	}

	paths, err := store.ResolvePaths(cfg.Store.DataDir)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	c.Paths = paths

	lockCfg, err := store.FileLockConfigFrom(cfg.Store)
	if err != nil {
		c.cleanup()
		return nil, err
	}
	lock, err := store.NewFileLock(paths.DataDir, lockCfg)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	c.Lock = lock

	cat, err := catalog.Load(cfg.Catalog.Path, scorerFrom(cfg.Catalog))
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init catalog: %w", err)
	}
	c.Catalog = cat

	var search intent.SemanticSearch
	if cfg.Semantic.Enabled {
		if index, err := c.buildIndex(ctx, cfg); err != nil {
			slog.Warn("Semantic search disabled, using keywords only", "error", err)
		} else {
			c.Index = index
			search = index
		}
	}
	c.Matcher = intent.NewMatcher(cat, search, intent.OptionsFromConfig(cfg.Intent, cfg.Semantic))

	ttl, err := cfg.Dialog.DialogTTL()
	if err != nil {
		c.cleanup()
		return nil, err
	}
	c.Dialogs = dialog.NewStore(ttl)

	auditLog, err := audit.NewFileLogger(store.Or(cfg.Audit.Path, paths.Audit), cfg.Audit.Enabled, cfg.Audit.RedactPatterns)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init audit: %w", err)
	}
	c.Audit = auditLog

	c.Errors = dfErrors.NewDefaultErrorMapper()
	executor, err := newExecutor(cfg.ITSM)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init itsm executor (%s): %w", c.Errors.Category(c.Errors.MapError(err)), err)
	}
	timeout, err := cfg.Actions.ActionTimeout()
	if err != nil {
		c.cleanup()
		return nil, err
	}
	retention, err := cfg.Actions.RetentionPeriod()
	if err != nil {
		c.cleanup()
		return nil, err
	}
	actionStore, err := actions.NewStore(executor, timeout,
		actions.WithSnapshot(store.Or(cfg.Actions.SnapshotPath, paths.Snapshot)),
		actions.WithAudit(auditLog),
		actions.WithRetention(retention),
		actions.WithErrorMapper(c.Errors),
	)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init action store: %w", err)
	}
	c.Actions = actionStore

	c.Users = guided.NewStaticDirectory(cfg.Preview.VIPUsers)
	orch, err := guided.New(guided.Deps{
		Catalog: cat,
		Matcher: c.Matcher,
		States:  c.Dialogs,
		Actions: actionStore,
		Preview: preview.NewBuilder(preview.OptionsFromConfig(cfg.Preview)),
		Users:   c.Users,
	})
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}
	c.Orchestrator = orch

	sw, err := sweeper.New(cfg.Sweeper.Schedule, actionStore, c.Dialogs)
	if err != nil {
		c.cleanup()
		return nil, fmt.Errorf("init sweeper: %w", err)
	}
	c.Sweeper = sw

	slog.Info("Runtime components initialized", "data_dir", paths.DataDir, "services", len(cat.Services()), "semantic", c.Index != nil)
	return c, nil
}

func (r *RuntimeComponents) Start() error {
	if r.Orchestrator == nil {
		return fmt.Errorf("orchestrator not initialized")
	}
	if r.Config.Sweeper.Enabled && r.Sweeper != nil {
		if err := r.Sweeper.Start(r.Ctx); err != nil {
			return fmt.Errorf("start sweeper: %w", err)
		}
	}
	return nil
}

func (r *RuntimeComponents) Stop() {
	slog.Debug("Stopping runtime components")

	if err := r.stopSweeper(); err != nil {
		slog.Warn("Failed to stop sweeper", "error", err)
	}

	r.Cancel()

	if r.Lock != nil {
		r.Lock.Unlock()
	}
}

// stopSweeper waits on its own deadline; the runtime context may already be
// cancelled by a signal.
func (r *RuntimeComponents) stopSweeper() error {
	if r.Sweeper == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), sweeperStopTimeout)
	defer cancel()
	return r.Sweeper.Stop(ctx)
}

func (r *RuntimeComponents) cleanup() {
	r.Stop()
}

func (r *RuntimeComponents) buildIndex(ctx context.Context, cfg *config.Config) (*semantic.Index, error) {
	if cfg.Models.APIKey == "" {
		return nil, fmt.Errorf("models.api_key is not set")
	}
	timeout, err := cfg.Models.RequestTimeout()
	if err != nil {
		return nil, err
	}
	embedder := semantic.NewOpenAIEmbedder(cfg.Models.APIKey, cfg.Models.BaseURL, cfg.Models.Embedding, timeout)

	index, err := semantic.NewIndex(store.Or(cfg.Semantic.PersistDir, r.Paths.VectorDir), embedder)
	if err != nil {
		return nil, err
	}
	if err := index.IndexCatalog(ctx, store.Or(cfg.Semantic.Corpus, config.DefaultSemanticCorpus), r.Catalog.Services()); err != nil {
		return nil, err
	}
	return index, nil
}

func newExecutor(cfg config.ITSMConfig) (actions.Executor, error) {
	if cfg.DryRun || cfg.BaseURL == "" {
		slog.Info("ITSM dry run enabled, requests are numbered locally")
		return itsm.NewDryRunExecutor(), nil
	}
	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return nil, err
	}
	return itsm.NewHTTPExecutor(cfg.BaseURL, cfg.Token, timeout)
}

func scorerFrom(cfg config.CatalogConfig) catalog.Scorer {
	return catalog.Scorer{
		NameWeight:        cfg.NameWeight,
		KeywordWeight:     cfg.KeywordWeight,
		DescriptionWeight: cfg.DescriptionWeight,
		CategoryWeight:    cfg.CategoryWeight,
		ReverseWeight:     cfg.ReverseWeight,
	}
}
