// Package governance enforces the Courtside permission model: ranked caller
// levels checked against per-capability requirements, fail-closed.
package governance

import (
	"context"
	"fmt"
	"sync"

	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
)

// Decision captures the outcome of a permission evaluation.
type Decision struct {
	Allowed bool
	Reason  string
	Code    errors.ErrorCode
}

// Deny builds a denied decision carrying the taxonomy code.
func deny(code errors.ErrorCode, reason string) Decision {
	return Decision{Allowed: false, Reason: reason, Code: code}
}

// Checker validates agent declarations at registration time and evaluates
// capability access at call time. Unknown capability names are a distinct
// CAPABILITY_NOT_FOUND, never silently granted.
type Checker struct {
	mu sync.RWMutex
	// capability index keyed by agent id, then capability name
	agents map[string]map[string]core.Capability
}

// NewChecker creates an empty checker.
func NewChecker() *Checker {
	return &Checker{agents: make(map[string]map[string]core.Capability)}
}

// RegisterAgent indexes an agent's capabilities, rejecting any declaration
// whose required permission exceeds the agent's ceiling. Non-conforming
// agents fail here, at registration, not at call time.
func (c *Checker) RegisterAgent(agent core.Agent) error {
	if agent == nil {
		return errors.New(errors.CodeInvalidInput, "agent is nil", nil)
	}
	caps := agent.Capabilities()
	index := make(map[string]core.Capability, len(caps))
	for _, capability := range caps {
		if capability.Name == "" {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("agent %q declares an unnamed capability", agent.ID()), nil)
		}
		if !agent.Ceiling().Grants(capability.RequiredPermission) {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("capability %q requires %s above agent %q ceiling %s",
					capability.Name, capability.RequiredPermission, agent.ID(), agent.Ceiling()), nil)
		}
		if _, dup := index[capability.Name]; dup {
			return errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("agent %q declares capability %q twice", agent.ID(), capability.Name), nil)
		}
		index[capability.Name] = capability
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.agents[agent.ID()] = index
	return nil
}

// Check evaluates whether a caller at the given level may invoke the named
// capability on the named agent.
func (c *Checker) Check(_ context.Context, agentID, capability string, caller core.Level) Decision {
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, ok := c.agents[agentID]
	if !ok {
		return deny(errors.CodeCapabilityNotFound,
			fmt.Sprintf("agent %q is not registered", agentID))
	}
	declared, ok := index[capability]
	if !ok {
		return deny(errors.CodeCapabilityNotFound,
			fmt.Sprintf("agent %q does not declare capability %q", agentID, capability))
	}
	if !caller.Grants(declared.RequiredPermission) {
		return deny(errors.CodePermissionDenied,
			fmt.Sprintf("capability %q requires %s, caller has %s",
				capability, declared.RequiredPermission, caller))
	}
	return Decision{Allowed: true}
}

// Lookup returns the declared capability for an agent, if registered.
func (c *Checker) Lookup(agentID, capability string) (core.Capability, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	index, ok := c.agents[agentID]
	if !ok {
		return core.Capability{}, false
	}
	declared, ok := index[capability]
	return declared, ok
}

// Err converts a denied decision into the matching typed error.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return errors.New(d.Code, d.Reason, nil).WithRecoverable(true)
}
