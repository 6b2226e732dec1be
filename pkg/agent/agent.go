// Package agent provides the standard Agent implementation and the factory
// that owns agent lifetimes.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
)

// Handler executes a single capability. Business failures are returned as
// errors and become error-tagged ActionResults; they never panic.
type Handler func(ctx context.Context, params map[string]any) (any, error)

// Agent is a capability provider built from declared capabilities and one
// handler per capability. The action set is closed at construction: an
// unknown action yields CAPABILITY_NOT_FOUND, never a silent default.
type Agent struct {
	id           string
	ceiling      core.Level
	capabilities []core.Capability
	handlers     map[string]Handler
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an Agent with a required id and options. Every declared
// capability must have a handler, every handler a declaration, and no
// capability may require more than the ceiling — violations fail here so
// non-conforming agents are rejected before they can serve a request.
func New(id string, opts ...Option) (*Agent, error) {
	a := &Agent{
		id:       id,
		ceiling:  core.LevelReadOnly,
		handlers: make(map[string]Handler),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.id == "" {
		return nil, errors.New(errors.CodeInvalidInput, "agent id is required", nil)
	}
	declared := make(map[string]bool, len(a.capabilities))
	for _, capability := range a.capabilities {
		declared[capability.Name] = true
		if !a.ceiling.Grants(capability.RequiredPermission) {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("capability %q requires %s above ceiling %s",
					capability.Name, capability.RequiredPermission, a.ceiling), nil)
		}
		if _, ok := a.handlers[capability.Name]; !ok {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("capability %q declared without a handler", capability.Name), nil)
		}
	}
	for name := range a.handlers {
		if !declared[name] {
			return nil, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("handler %q registered without a capability declaration", name), nil)
		}
	}
	return a, nil
}

// WithCeiling sets the agent's permission ceiling.
func WithCeiling(level core.Level) Option {
	return func(a *Agent) error {
		a.ceiling = level
		return nil
	}
}

// WithCapability declares a capability and binds its handler.
func WithCapability(capability core.Capability, handler Handler) Option {
	return func(a *Agent) error {
		if handler == nil {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("nil handler for capability %q", capability.Name), nil)
		}
		a.capabilities = append(a.capabilities, capability)
		a.handlers[capability.Name] = handler
		return nil
	}
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Ceiling returns the agent's permission ceiling.
func (a *Agent) Ceiling() core.Level { return a.ceiling }

// Capabilities returns a copy of the declared capabilities.
func (a *Agent) Capabilities() []core.Capability {
	return append([]core.Capability(nil), a.capabilities...)
}

// Execute runs the handler bound to the action and tags the outcome.
func (a *Agent) Execute(ctx context.Context, action string, params map[string]any) core.ActionResult {
	started := time.Now()
	handler, ok := a.handlers[action]
	if !ok {
		return core.ActionResult{
			AgentID:    a.id,
			Capability: action,
			Err: errors.New(errors.CodeCapabilityNotFound,
				fmt.Sprintf("agent %q has no capability %q", a.id, action), nil).
				WithRecoverable(true),
			Duration: time.Since(started),
		}
	}
	payload, err := handler(ctx, params)
	result := core.ActionResult{
		AgentID:    a.id,
		Capability: action,
		Duration:   time.Since(started),
	}
	if err != nil {
		if ce, ok := err.(*errors.CourtsideError); ok {
			result.Err = ce
		} else {
			result.Err = errors.New(errors.CodeAgentExecution, "agent execution failed", err)
		}
		return result
	}
	result.Success = true
	result.Payload = payload
	return result
}
