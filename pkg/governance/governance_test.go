package governance

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/courtside/courtside/pkg/agent"
	"github.com/courtside/courtside/pkg/core"
	"github.com/courtside/courtside/pkg/errors"
)

func noop(_ context.Context, _ map[string]any) (any, error) { return nil, nil }

func mustAgent(t *testing.T, id string, ceiling core.Level, caps ...core.Capability) core.Agent {
	t.Helper()
	opts := []agent.Option{agent.WithCeiling(ceiling)}
	for _, c := range caps {
		opts = append(opts, agent.WithCapability(c, noop))
	}
	a, err := agent.New(id, opts...)
	if err != nil {
		t.Fatalf("agent %s: %v", id, err)
	}
	return a
}

func TestCheckDeniesBelowRequiredLevel(t *testing.T) {
	checker := NewChecker()
	a := mustAgent(t, "curator", core.LevelAdmin,
		core.Capability{Name: "reload_models", RequiredPermission: core.LevelAdmin})
	if err := checker.RegisterAgent(a); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	decision := checker.Check(context.Background(), "curator", "reload_models", core.LevelReadExecute)
	if decision.Allowed {
		t.Fatal("read_execute caller must not reach an admin capability")
	}
	if decision.Code != errors.CodePermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %s", decision.Code)
	}
	if errors.CodeOf(decision.Err()) != errors.CodePermissionDenied {
		t.Fatal("decision error code mismatch")
	}
}

func TestCheckUnknownCapabilityFailsClosed(t *testing.T) {
	checker := NewChecker()
	a := mustAgent(t, "stats", core.LevelReadOnly,
		core.Capability{Name: "game_features", RequiredPermission: core.LevelReadOnly})
	if err := checker.RegisterAgent(a); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	decision := checker.Check(context.Background(), "stats", "drop_tables", core.LevelAdmin)
	if decision.Allowed {
		t.Fatal("unknown capability must never be granted")
	}
	if decision.Code != errors.CodeCapabilityNotFound {
		t.Fatalf("expected CAPABILITY_NOT_FOUND, got %s", decision.Code)
	}

	decision = checker.Check(context.Background(), "ghost", "anything", core.LevelAdmin)
	if decision.Code != errors.CodeCapabilityNotFound {
		t.Fatalf("unregistered agent should be CAPABILITY_NOT_FOUND, got %s", decision.Code)
	}
}

func TestCheckAllowsAtOrAboveRequiredLevel(t *testing.T) {
	checker := NewChecker()
	a := mustAgent(t, "predictor", core.LevelReadExecute,
		core.Capability{Name: "predict", RequiredPermission: core.LevelReadExecute},
		core.Capability{Name: "list_models", RequiredPermission: core.LevelReadOnly})
	if err := checker.RegisterAgent(a); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, level := range []core.Level{core.LevelReadExecute, core.LevelReadExecuteWrite, core.LevelAdmin} {
		if d := checker.Check(context.Background(), "predictor", "predict", level); !d.Allowed {
			t.Fatalf("caller at %s should reach predict: %s", level, d.Reason)
		}
	}
	if d := checker.Check(context.Background(), "predictor", "list_models", core.LevelReadOnly); !d.Allowed {
		t.Fatalf("read_only caller should reach list_models: %s", d.Reason)
	}
}

func TestRegisterRejectsCeilingViolation(t *testing.T) {
	checker := NewChecker()
	// Build an agent type whose declarations bypass the constructor checks.
	bad := badAgent{}
	if err := checker.RegisterAgent(bad); err == nil {
		t.Fatal("checker must reject declarations above the ceiling")
	}
}

type badAgent struct{}

func (badAgent) ID() string                { return "bad" }
func (badAgent) Ceiling() core.Level       { return core.LevelReadOnly }
func (badAgent) Capabilities() []core.Capability {
	return []core.Capability{{Name: "escalate", RequiredPermission: core.LevelAdmin}}
}
func (badAgent) Execute(context.Context, string, map[string]any) core.ActionResult {
	return core.ActionResult{}
}

// Property: for every registered agent, every declared capability requires at
// most the agent's ceiling, over randomized registrations.
func TestRegisteredCapabilitiesNeverExceedCeiling(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	checker := NewChecker()
	levels := []core.Level{core.LevelReadOnly, core.LevelReadExecute, core.LevelReadExecuteWrite, core.LevelAdmin}

	for i := 0; i < 50; i++ {
		ceiling := levels[rng.Intn(len(levels))]
		var caps []core.Capability
		for j := 0; j < 1+rng.Intn(4); j++ {
			caps = append(caps, core.Capability{
				Name:               fmt.Sprintf("cap-%d-%d", i, j),
				RequiredPermission: levels[rng.Intn(len(levels))],
			})
		}
		opts := []agent.Option{agent.WithCeiling(ceiling)}
		for _, c := range caps {
			opts = append(opts, agent.WithCapability(c, noop))
		}
		a, err := agent.New(fmt.Sprintf("agent-%d", i), opts...)
		if err != nil {
			// Constructor rejected a random ceiling violation, as it must.
			continue
		}
		if err := checker.RegisterAgent(a); err != nil {
			t.Fatalf("checker rejected constructor-validated agent: %v", err)
		}
		for _, c := range a.Capabilities() {
			if !a.Ceiling().Grants(c.RequiredPermission) {
				t.Fatalf("registered capability %q exceeds ceiling", c.Name)
			}
		}
	}
}
