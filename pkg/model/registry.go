package model

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/courtside/courtside/pkg/errors"
)

// DefaultAccuracyWindowDays is the recency window assumed for manifest
// accuracies that do not declare their own.
const DefaultAccuracyWindowDays = 365

// Registry serves named models. Loading is lazy and memoized per modelId:
// the first caller triggers the load, concurrent callers for the same id
// collapse into the same in-flight load, and a loaded handle is immutable
// until process teardown. A model whose load fails is marked unavailable for
// the rest of the process.
type Registry struct {
	store              ArtifactStore
	accuracyWindowDays int
	tracer             trace.Tracer
	logger             *slog.Logger

	mu       sync.RWMutex
	manifest map[string]ModelInfo
	handles  map[string]Artifact
	failed   map[string]*errors.CourtsideError

	group singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAccuracyWindow sets the default accuracy recency window in days.
func WithAccuracyWindow(days int) RegistryOption {
	return func(r *Registry) {
		if days > 0 {
			r.accuracyWindowDays = days
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a registry over the given artifact store and manifest.
func NewRegistry(store ArtifactStore, manifest []ModelInfo, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:              store,
		accuracyWindowDays: DefaultAccuracyWindowDays,
		tracer:             otel.Tracer("courtside/model"),
		logger:             slog.Default(),
		manifest:           make(map[string]ModelInfo, len(manifest)),
		handles:            make(map[string]Artifact),
		failed:             make(map[string]*errors.CourtsideError),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, info := range manifest {
		if info.AccuracyWindowDays == 0 {
			info.AccuracyWindowDays = r.accuracyWindowDays
		}
		r.manifest[info.ID] = info
	}
	return r
}

// Reload replaces the manifest. Loaded handles and the unavailable set are
// kept: a modelId still resolves to exactly one cached handle per process
// lifetime.
func (r *Registry) Reload(manifest []ModelInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifest = make(map[string]ModelInfo, len(manifest))
	for _, info := range manifest {
		if info.AccuracyWindowDays == 0 {
			info.AccuracyWindowDays = r.accuracyWindowDays
		}
		r.manifest[info.ID] = info
	}
	r.logger.Info("model.manifest.reloaded", slog.Int("models", len(manifest)))
}

// ListAvailableModels returns the manifest entries sorted by id. With no
// state change, repeated calls return identical lists.
func (r *Registry) ListAvailableModels() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	models := make([]ModelInfo, 0, len(r.manifest))
	for _, info := range r.manifest {
		models = append(models, info)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// Info returns the manifest entry for a model.
func (r *Registry) Info(modelID string) (ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.manifest[modelID]
	return info, ok
}

// Predict runs a single model against the given features. Any missing
// required feature is a FeatureMismatch; the engine never zero-fills, so
// imputation stays the caller's explicit step.
func (r *Registry) Predict(ctx context.Context, modelID string, features map[string]float64) (PredictionResult, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.Predict", trace.WithAttributes(
		attribute.String("model.id", modelID),
	))
	defer span.End()

	info, ok := r.Info(modelID)
	if !ok {
		return PredictionResult{}, errors.New(errors.CodeModelNotFound,
			fmt.Sprintf("model %q is not registered", modelID), nil).
			WithRecoverable(true)
	}
	if missing := missingFeatures(info.RequiredFeatures, features); len(missing) > 0 {
		return PredictionResult{}, errors.New(errors.CodeFeatureMismatch,
			fmt.Sprintf("model %q missing required features", modelID), nil).
			WithContext("missing", missing).
			WithRecoverable(true)
	}

	artifact, err := r.handle(ctx, info)
	if err != nil {
		return PredictionResult{}, err
	}

	raw, err := artifact.Predict(features)
	if err != nil {
		return PredictionResult{}, errors.New(errors.CodeInternal,
			fmt.Sprintf("model %q inference failed", modelID), err)
	}

	result := PredictionResult{ModelID: modelID, Task: info.Task, Confidence: info.HistoricalAccuracy}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		// Clamp and report low confidence rather than propagating the
		// overflow.
		raw = clampToTask(raw, info.Task)
		result.Confidence = 0.0
		r.logger.Warn("model.predict.overflow", slog.String("model_id", modelID))
	}
	switch info.Task {
	case TaskWinProbability:
		result.WinProbability = float64Ptr(clamp(raw, 0, 1))
	default:
		result.Margin = float64Ptr(raw)
	}
	return result, nil
}

// handle returns the memoized artifact, loading it on first use. Concurrent
// first-accesses collapse into one load via singleflight.
func (r *Registry) handle(ctx context.Context, info ModelInfo) (Artifact, error) {
	r.mu.RLock()
	if artifact, ok := r.handles[info.ID]; ok {
		r.mu.RUnlock()
		return artifact, nil
	}
	if failure, ok := r.failed[info.ID]; ok {
		r.mu.RUnlock()
		return nil, failure
	}
	r.mu.RUnlock()

	value, err, _ := r.group.Do(info.ID, func() (any, error) {
		r.mu.RLock()
		if artifact, ok := r.handles[info.ID]; ok {
			r.mu.RUnlock()
			return artifact, nil
		}
		if failure, ok := r.failed[info.ID]; ok {
			r.mu.RUnlock()
			return nil, failure
		}
		r.mu.RUnlock()

		loadCtx, span := r.tracer.Start(ctx, "Registry.Load", trace.WithAttributes(
			attribute.String("model.id", info.ID),
		))
		defer span.End()

		artifact, err := r.store.Load(loadCtx, info)
		if err != nil {
			failure := errors.AsCourtsideError(err)
			if failure.Code != errors.CodeModelLoadFailure {
				failure = errors.New(errors.CodeModelLoadFailure,
					fmt.Sprintf("loading model %q", info.ID), err)
			}
			r.mu.Lock()
			r.failed[info.ID] = failure
			r.mu.Unlock()
			// Escalated once; subsequent callers see the cached failure.
			r.logger.Error("model.load.failed",
				slog.String("model_id", info.ID),
				slog.String("error", failure.Error()),
			)
			return nil, failure
		}
		r.mu.Lock()
		r.handles[info.ID] = artifact
		r.mu.Unlock()
		r.logger.Info("model.load.complete", slog.String("model_id", info.ID))
		return artifact, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(Artifact), nil
}

func missingFeatures(required []string, features map[string]float64) []string {
	var missing []string
	for _, name := range required {
		if _, ok := features[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func clampToTask(v float64, task Task) float64 {
	if math.IsNaN(v) {
		return 0
	}
	span := task.OutputSpan()
	if task == TaskWinProbability {
		return clamp(v, 0, 1)
	}
	return clamp(v, -span/2, span/2)
}
