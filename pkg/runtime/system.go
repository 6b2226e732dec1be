// Package runtime assembles the configured analytics pipeline: the feature
// store, the model registry over its artifact directory, the stock agents,
// and the orchestrator, all driven by one pkg/config document.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/agents"
	"github.com/courtside/courtside/pkg/audit"
	"github.com/courtside/courtside/pkg/config"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
	"github.com/courtside/courtside/pkg/model"
	"github.com/courtside/courtside/pkg/orchestrator"
	"github.com/courtside/courtside/pkg/telemetry"
)

// System is the wired pipeline. Build one per process with New and route
// requests through HandleRequest.
type System struct {
	cfg          *config.Config
	logger       *slog.Logger
	Registry     *model.Registry
	Features     model.FeatureStore
	Factory      *agent.Factory
	Orchestrator *orchestrator.Orchestrator

	db       *sql.DB
	shutdown telemetry.ShutdownFunc
}

// Option configures optional collaborators of the assembled system.
type Option func(*settings)

type settings struct {
	sink   orchestrator.MetricsSink
	trail  audit.Store
	logger *slog.Logger
}

// WithMetricsSink injects the metrics sink passed through to the orchestrator.
func WithMetricsSink(sink orchestrator.MetricsSink) Option {
	return func(s *settings) { s.sink = sink }
}

// WithAuditStore records every capability invocation in the given store.
func WithAuditStore(trail audit.Store) Option {
	return func(s *settings) { s.trail = trail }
}

// WithLogger sets the logger used by the system and its orchestrator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New builds a System from the configuration: the features backend, the
// manifest-driven registry with the configured accuracy window, the stock
// agents, and an orchestrator bounded by the configured agent timeout whose
// default caller level comes from orchestrator.default_access_level.
func New(cfg *config.Config, opts ...Option) (*System, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidInput, "config is required", nil)
	}
	set := settings{logger: slog.Default()}
	for _, opt := range opts {
		opt(&set)
	}

	features, db, err := newFeatureStore(cfg)
	if err != nil {
		return nil, err
	}

	manifest, err := model.LoadManifest(cfg.Models.ManifestPath)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	registry := model.NewRegistry(
		model.NewFileStore(cfg.Models.ArtifactDir),
		manifest,
		model.WithAccuracyWindow(cfg.Models.AccuracyWindowDays),
		model.WithLogger(set.logger),
	)

	factory := agent.NewFactory()
	created, err := agents.RegisterDefaults(factory, agents.Deps{
		Registry: registry,
		Features: features,
		LoadManifest: func() ([]model.ModelInfo, error) {
			return model.LoadManifest(cfg.Models.ManifestPath)
		},
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	// An unparseable configured level narrows to READ_ONLY rather than
	// granting anything.
	level, _ := core.ParseLevel(cfg.Orchestrator.DefaultAccessLevel)
	orchOpts := []orchestrator.Option{
		orchestrator.WithAgentTimeout(cfg.Orchestrator.AgentTimeout),
		orchestrator.WithLevelResolver(orchestrator.HintLevelResolver(level)),
		orchestrator.WithLogger(set.logger),
	}
	if set.sink != nil {
		orchOpts = append(orchOpts, orchestrator.WithMetricsSink(set.sink))
	}
	if set.trail != nil {
		orchOpts = append(orchOpts, orchestrator.WithAuditStore(set.trail))
	}
	o := orchestrator.New(orchOpts...)

	ids := make([]string, 0, len(created))
	for id := range created {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := o.Register(created[id]); err != nil {
			if db != nil {
				db.Close()
			}
			return nil, err
		}
	}

	return &System{
		cfg:          cfg,
		logger:       set.logger,
		Registry:     registry,
		Features:     features,
		Factory:      factory,
		Orchestrator: o,
		db:           db,
	}, nil
}

// HandleRequest routes one analytics request through the pipeline.
func (s *System) HandleRequest(ctx context.Context, req core.AnalyticsRequest) core.AnalyticsResponse {
	return s.Orchestrator.HandleRequest(ctx, req)
}

// Start configures process logging and the telemetry providers from the
// log and telemetry config sections.
func (s *System) Start(version string) error {
	telemetry.ConfigureSlog(os.Stdout, s.cfg.Log.Level, s.cfg.Log.Format)
	shutdown, err := telemetry.InitWithConfig("", version, telemetry.Config{
		Exporter:     s.cfg.Telemetry.Exporter,
		OTLPEndpoint: s.cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: s.cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	s.shutdown = shutdown
	return nil
}

// BindWatcher re-reads the model manifest whenever the watched configuration
// changes and swaps it into the registry, so a manifest re-point takes effect
// between requests without a restart.
func (s *System) BindWatcher(w *config.Watcher) {
	w.OnChange(func(cfg *config.Config) {
		manifest, err := model.LoadManifest(cfg.Models.ManifestPath)
		if err != nil {
			s.logger.Warn("runtime.manifest.reload_failed",
				slog.String("path", cfg.Models.ManifestPath),
				slog.String("error", err.Error()),
			)
			return
		}
		s.Registry.Reload(manifest)
	})
}

// Close releases the feature database and flushes telemetry, if started.
func (s *System) Close(ctx context.Context) error {
	var errs []error
	if s.shutdown != nil {
		if err := s.shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing system: %v", errs)
	}
	return nil
}

// newFeatureStore selects the backend named by features.backend.
func newFeatureStore(cfg *config.Config) (model.FeatureStore, *sql.DB, error) {
	switch cfg.Features.Backend {
	case "", "inmemory":
		return model.NewInMemoryFeatures(), nil, nil
	case "sqlite":
		db, err := sql.Open("sqlite", cfg.Features.SQLitePath)
		if err != nil {
			return nil, nil, errors.New(errors.CodeInternal, "opening feature database", err).
				WithContext("path", cfg.Features.SQLitePath)
		}
		store, err := model.NewSQLiteFeatures(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db, nil
	default:
		return nil, nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("unknown features backend %q", cfg.Features.Backend), nil)
	}
}
