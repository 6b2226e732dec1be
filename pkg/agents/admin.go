package agents

import (
	"context"
	"log/slog"

	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/model"
)

// ManifestLoader fetches the current model manifest, typically from the
// configured YAML path.
type ManifestLoader func() ([]model.ModelInfo, error)

// NewCurator builds the admin agent that manages the serving manifest.
func NewCurator(id string, registry *model.Registry, loadManifest ManifestLoader) (core.Agent, error) {
	return agent.New(id,
		agent.WithCeiling(core.LevelAdmin),
		agent.WithCapability(core.Capability{
			Name:               "reload_models",
			Description:        "Re-read the model manifest and swap it into the registry",
			RequiredPermission: core.LevelAdmin,
			DeclaredTools:      []string{"model_registry", "manifest"},
			DataAccess:         "write",
			TimeEstimate:       "fast",
		}, func(ctx context.Context, _ map[string]any) (any, error) {
			manifest, err := loadManifest()
			if err != nil {
				return nil, err
			}
			registry.Reload(manifest)
			slog.InfoContext(ctx, "curator.manifest.reloaded", slog.Int("models", len(manifest)))
			return map[string]any{"models": len(manifest)}, nil
		}),
	)
}
