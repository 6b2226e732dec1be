package orchestrator

import (
	"context"
	"testing"

	"github.com/courtside/courtside/pkg/audit"
	"github.com/courtside/courtside/pkg/core"
)

func TestAuditTrailRecordsEveryInvocation(t *testing.T) {
	table := testTable(t, map[string][]Route{
		"model_management": {
			{AgentID: "curator", Capability: "reload_models"},
			{AgentID: "predictor", Capability: "list_models"},
		},
	})
	trail := audit.NewMemoryStore()
	o := New(WithTable(table), WithAuditStore(trail))

	if err := o.Register(mustAgent(t, "curator", core.LevelAdmin,
		"reload_models", core.LevelAdmin, okHandler("reloaded"))); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := o.Register(mustAgent(t, "predictor", core.LevelReadExecute,
		"list_models", core.LevelReadOnly, okHandler([]string{"ridge_v1"}))); err != nil {
		t.Fatalf("register: %v", err)
	}

	response := o.HandleRequest(context.Background(), core.AnalyticsRequest{
		ID:        "req-audit",
		UserID:    "u1",
		QueryType: "model_management",
	})
	if response.Status != core.StatusSuccess {
		t.Fatalf("request failed: %s", response.Status)
	}

	events, err := trail.List(context.Background(), audit.Filter{RequestID: "req-audit"})
	if err != nil {
		t.Fatalf("listing trail: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(events))
	}

	denied, err := trail.List(context.Background(), audit.Filter{AgentID: "curator", Status: "denied"})
	if err != nil {
		t.Fatalf("listing denials: %v", err)
	}
	// Default resolver grants READ_EXECUTE; the admin capability is denied.
	if len(denied) != 1 {
		t.Fatalf("expected 1 denied event for curator, got %d", len(denied))
	}
	succeeded, err := trail.List(context.Background(), audit.Filter{AgentID: "predictor", Status: "success"})
	if err != nil {
		t.Fatalf("listing successes: %v", err)
	}
	if len(succeeded) != 1 {
		t.Fatalf("expected 1 success event for predictor, got %d", len(succeeded))
	}
}
