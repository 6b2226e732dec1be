package agents

import (
	"context"

	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/model"
)

// NewPredictor builds the prediction agent. Its ceiling is READ_EXECUTE:
// it runs models but never mutates the manifest or the feature store.
func NewPredictor(id string, registry *model.Registry, features model.FeatureStore) (core.Agent, error) {
	resolve := func(ctx context.Context, params map[string]any) (map[string]float64, error) {
		// An inline feature map wins over a game lookup so callers can
		// run what-if rows that are not in the store.
		if inline, ok, err := paramFloatMap(params, "features"); err != nil {
			return nil, err
		} else if ok {
			return inline, nil
		}
		gameID, err := paramString(params, "game_id")
		if err != nil {
			return nil, err
		}
		return features.Lookup(ctx, gameID)
	}

	return agent.New(id,
		agent.WithCeiling(core.LevelReadExecute),
		agent.WithCapability(core.Capability{
			Name:               "predict_game",
			Description:        "Run a single registered model against a game's feature row",
			RequiredPermission: core.LevelReadExecute,
			DeclaredTools:      []string{"model_registry", "feature_store"},
			DataAccess:         "read",
			TimeEstimate:       "fast",
		}, func(ctx context.Context, params map[string]any) (any, error) {
			modelID, err := paramString(params, "model_id")
			if err != nil {
				return nil, err
			}
			row, err := resolve(ctx, params)
			if err != nil {
				return nil, err
			}
			return registry.Predict(ctx, modelID, row)
		}),
		agent.WithCapability(core.Capability{
			Name:               "predict_ensemble",
			Description:        "Combine several models' outputs by normalized weight",
			RequiredPermission: core.LevelReadExecute,
			DeclaredTools:      []string{"model_registry", "feature_store"},
			DataAccess:         "read",
			TimeEstimate:       "fast",
		}, func(ctx context.Context, params map[string]any) (any, error) {
			modelIDs, err := paramStringSlice(params, "models")
			if err != nil {
				return nil, err
			}
			weights, _, err := paramFloatMap(params, "weights")
			if err != nil {
				return nil, err
			}
			row, err := resolve(ctx, params)
			if err != nil {
				return nil, err
			}
			return registry.PredictEnsemble(ctx, row, modelIDs, weights)
		}),
		agent.WithCapability(core.Capability{
			Name:               "list_models",
			Description:        "List the registered models and their metadata",
			RequiredPermission: core.LevelReadOnly,
			DeclaredTools:      []string{"model_registry"},
			DataAccess:         "read",
			TimeEstimate:       "instant",
		}, func(context.Context, map[string]any) (any, error) {
			return registry.ListAvailableModels(), nil
		}),
	)
}
