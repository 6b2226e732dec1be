package agent

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
)

// Constructor builds an agent instance for a registered type.
type Constructor func(instanceID string) (core.Agent, error)

// Factory registers agent types and owns the lifetime of their instances.
// Instances are created once and reused across requests.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	instances    map[string]core.Agent
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		constructors: make(map[string]Constructor),
		instances:    make(map[string]core.Agent),
	}
}

// Register binds a type name to a constructor. Re-registering the same
// constructor under the same name is a no-op; a different constructor for an
// existing name is an error.
func (f *Factory) Register(typeName string, constructor Constructor) error {
	if typeName == "" {
		return errors.New(errors.CodeInvalidInput, "type name is required", nil)
	}
	if constructor == nil {
		return errors.New(errors.CodeInvalidInput, "constructor is required", nil)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.constructors[typeName]; ok {
		if reflect.ValueOf(existing).Pointer() == reflect.ValueOf(constructor).Pointer() {
			return nil
		}
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("type %q already registered with a different constructor", typeName), nil)
	}
	f.constructors[typeName] = constructor
	return nil
}

// Create instantiates a registered type under a unique instance id.
func (f *Factory) Create(typeName, instanceID string) (core.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	constructor, ok := f.constructors[typeName]
	if !ok {
		return nil, errors.New(errors.CodeNotFound,
			fmt.Sprintf("agent type %q is not registered", typeName), nil)
	}
	if _, exists := f.instances[instanceID]; exists {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("instance %q already exists", instanceID), nil)
	}
	instance, err := constructor(instanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, errors.New(errors.CodeInternal,
			fmt.Sprintf("constructor for %q returned nil", typeName), nil)
	}
	f.instances[instanceID] = instance
	return instance, nil
}

// Get returns a previously created instance.
func (f *Factory) Get(instanceID string) (core.Agent, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	instance, ok := f.instances[instanceID]
	return instance, ok
}

// Instances returns the ids of all created instances.
func (f *Factory) Instances() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := make([]string, 0, len(f.instances))
	for id := range f.instances {
		ids = append(ids, id)
	}
	return ids
}
