package agents

import (
	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
	"github.com/courtside/courtside/pkg/model"
)

// Deps carries the shared services the stock agents close over.
type Deps struct {
	Registry     *model.Registry
	Features     model.FeatureStore
	LoadManifest ManifestLoader
}

// RegisterDefaults registers the stock agent types with the factory and
// creates one instance of each under its conventional id: predictor,
// statistician, curator. The created instances are returned keyed by id.
func RegisterDefaults(factory *agent.Factory, deps Deps) (map[string]core.Agent, error) {
	if deps.Registry == nil || deps.Features == nil {
		return nil, errors.New(errors.CodeInvalidInput,
			"registry and feature store are required", nil)
	}

	types := map[string]agent.Constructor{
		"predictor": func(instanceID string) (core.Agent, error) {
			return NewPredictor(instanceID, deps.Registry, deps.Features)
		},
		"statistician": func(instanceID string) (core.Agent, error) {
			return NewStatistician(instanceID, deps.Features)
		},
	}
	if deps.LoadManifest != nil {
		types["curator"] = func(instanceID string) (core.Agent, error) {
			return NewCurator(instanceID, deps.Registry, deps.LoadManifest)
		}
	}

	created := make(map[string]core.Agent, len(types))
	for typeName, constructor := range types {
		if err := factory.Register(typeName, constructor); err != nil {
			return nil, err
		}
		instance, err := factory.Create(typeName, typeName)
		if err != nil {
			return nil, err
		}
		created[typeName] = instance
	}
	return created, nil
}
