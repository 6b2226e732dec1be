package agents

import (
	"context"

	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/model"
)

// NewStatistician builds the read-only stats agent over the feature store.
func NewStatistician(id string, features model.FeatureStore) (core.Agent, error) {
	return agent.New(id,
		agent.WithCeiling(core.LevelReadOnly),
		agent.WithCapability(core.Capability{
			Name:               "game_features",
			Description:        "Return the named-feature row for a game",
			RequiredPermission: core.LevelReadOnly,
			DeclaredTools:      []string{"feature_store"},
			DataAccess:         "read",
			TimeEstimate:       "instant",
		}, func(ctx context.Context, params map[string]any) (any, error) {
			gameID, err := paramString(params, "game_id")
			if err != nil {
				return nil, err
			}
			return features.Lookup(ctx, gameID)
		}),
		agent.WithCapability(core.Capability{
			Name:               "compare_teams",
			Description:        "Diff two games' feature rows, home minus away",
			RequiredPermission: core.LevelReadOnly,
			DeclaredTools:      []string{"feature_store"},
			DataAccess:         "read",
			TimeEstimate:       "instant",
		}, func(ctx context.Context, params map[string]any) (any, error) {
			homeID, err := paramString(params, "home_game_id")
			if err != nil {
				return nil, err
			}
			awayID, err := paramString(params, "away_game_id")
			if err != nil {
				return nil, err
			}
			home, err := features.Lookup(ctx, homeID)
			if err != nil {
				return nil, err
			}
			away, err := features.Lookup(ctx, awayID)
			if err != nil {
				return nil, err
			}
			// Only features present on both sides are comparable.
			diff := make(map[string]float64)
			for name, homeValue := range home {
				if awayValue, ok := away[name]; ok {
					diff[name] = homeValue - awayValue
				}
			}
			return diff, nil
		}),
	)
}
