package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/courtside/courtside/pkg/audit"
	"github.com/courtside/courtside/pkg/config"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
	"github.com/courtside/courtside/pkg/model"
)

func writeFixtures(t *testing.T, dir, modelID string) string {
	t.Helper()
	artifact := `version: "1"
weights:
  off_rating: 0.5
intercept: 1.0
link: identity
`
	if err := os.WriteFile(filepath.Join(dir, modelID+".yaml"), []byte(artifact), 0o644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	manifest := fmt.Sprintf(`models:
  - id: %s
    task: margin
    algorithm: ridge
    path: %s.yaml
    required_features: [off_rating]
    historical_accuracy: 0.6
`, modelID, modelID)
	manifestPath := filepath.Join(dir, modelID+"-manifest.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return manifestPath
}

func testConfig(dir, manifestPath string) *config.Config {
	return &config.Config{
		Orchestrator: config.OrchestratorConfig{
			AgentTimeout:       2 * time.Second,
			DefaultAccessLevel: "READ_EXECUTE",
		},
		Models: config.ModelsConfig{
			ManifestPath:       manifestPath,
			ArtifactDir:        dir,
			AccuracyWindowDays: 90,
		},
		Features: config.FeaturesConfig{Backend: "inmemory"},
	}
}

func TestNewServesConfiguredPipeline(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFixtures(t, dir, "ridge_v1")

	system, err := New(testConfig(dir, manifestPath))
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	defer system.Close(context.Background())

	models := system.Registry.ListAvailableModels()
	if len(models) != 1 || models[0].AccuracyWindowDays != 90 {
		t.Fatalf("configured accuracy window not applied: %+v", models)
	}

	response := system.HandleRequest(context.Background(), core.AnalyticsRequest{
		UserID:    "u1",
		QueryType: "game_prediction",
		Parameters: map[string]any{
			"model_id": "ridge_v1",
			"features": map[string]any{"off_rating": 110.0},
		},
	})
	if response.Status != core.StatusSuccess {
		t.Fatalf("request failed: %s (%s)", response.Status, response.ErrorMessage)
	}
	prediction, ok := response.Results["predictor"].Payload.(model.PredictionResult)
	if !ok {
		t.Fatalf("unexpected predictor payload %T", response.Results["predictor"].Payload)
	}
	if prediction.Margin == nil || *prediction.Margin != 56.0 {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
}

func TestNewSQLiteFeaturesBackend(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFixtures(t, dir, "ridge_v1")

	cfg := testConfig(dir, manifestPath)
	cfg.Features = config.FeaturesConfig{
		Backend:    "sqlite",
		SQLitePath: filepath.Join(dir, "features.db"),
	}

	system, err := New(cfg)
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	defer system.Close(context.Background())

	store, ok := system.Features.(*model.SQLiteFeatures)
	if !ok {
		t.Fatalf("expected sqlite feature store, got %T", system.Features)
	}
	if err := store.Put(context.Background(), "LAL@BOS", map[string]float64{"off_rating": 110.0}); err != nil {
		t.Fatalf("putting features: %v", err)
	}

	response := system.HandleRequest(context.Background(), core.AnalyticsRequest{
		QueryType: "game_prediction",
		Parameters: map[string]any{
			"model_id": "ridge_v1",
			"game_id":  "LAL@BOS",
		},
	})
	if response.Status != core.StatusSuccess {
		t.Fatalf("request failed: %s (%s)", response.Status, response.ErrorMessage)
	}
	if !response.Results["predictor"].Success {
		t.Fatalf("predictor failed: %v", response.Results["predictor"].Err)
	}
}

func TestNewUnknownFeaturesBackend(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFixtures(t, dir, "ridge_v1")

	cfg := testConfig(dir, manifestPath)
	cfg.Features.Backend = "redis"

	if _, err := New(cfg); errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT for unknown backend, got %v", err)
	}
}

func TestNewMissingManifest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, filepath.Join(dir, "nope.yaml"))

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestDefaultAccessLevelFromConfig(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFixtures(t, dir, "ridge_v1")

	trail := audit.NewMemoryStore()
	cfg := testConfig(dir, manifestPath)
	cfg.Orchestrator.DefaultAccessLevel = "admin"

	system, err := New(cfg, WithAuditStore(trail))
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	defer system.Close(context.Background())

	response := system.HandleRequest(context.Background(), core.AnalyticsRequest{
		ID:        "req-admin",
		QueryType: "model_management",
	})
	if response.Status != core.StatusSuccess {
		t.Fatalf("request failed: %s (%s)", response.Status, response.ErrorMessage)
	}
	if !response.Results["curator"].Success {
		t.Fatalf("admin-level config should allow reload_models: %v", response.Results["curator"].Err)
	}

	events, err := trail.List(context.Background(), audit.Filter{RequestID: "req-admin"})
	if err != nil {
		t.Fatalf("listing trail: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}

	// The READ_EXECUTE default denies the same capability.
	cfg2 := testConfig(dir, manifestPath)
	system2, err := New(cfg2)
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	defer system2.Close(context.Background())

	response = system2.HandleRequest(context.Background(), core.AnalyticsRequest{
		QueryType: "model_management",
	})
	if errors.CodeOf(response.Results["curator"].Err) != errors.CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED for curator, got %v", response.Results["curator"].Err)
	}
}

func TestBindWatcherRepointsManifest(t *testing.T) {
	dir := t.TempDir()
	firstManifest := writeFixtures(t, dir, "ridge_v1")
	secondManifest := writeFixtures(t, dir, "xgb_v2")

	configPath := filepath.Join(dir, "config.yaml")
	configBody := func(manifestPath string) string {
		return fmt.Sprintf(`orchestrator:
  agent_timeout: "2s"
  default_access_level: "READ_EXECUTE"
models:
  manifest_path: %q
  artifact_dir: %q
features:
  backend: inmemory
`, manifestPath, dir)
	}
	if err := os.WriteFile(configPath, []byte(configBody(firstManifest)), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	system, err := New(cfg)
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	defer system.Close(context.Background())

	watcher, err := config.NewWatcher([]string{configPath}, config.WithWatchInterval(50*time.Millisecond))
	if err != nil {
		t.Fatalf("creating watcher: %v", err)
	}
	system.BindWatcher(watcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)
	defer watcher.Stop()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(configPath, []byte(configBody(secondManifest)), 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		models := system.Registry.ListAvailableModels()
		if len(models) == 1 && models[0].ID == "xgb_v2" {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("manifest not re-pointed, registry still serves %+v", models)
		case <-time.After(50 * time.Millisecond):
		}
	}
}
