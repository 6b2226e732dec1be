package orchestrator

import (
	"testing"

	"github.com/courtside/courtside/pkg/errors"
)

func TestDefaultTableCoversStockQueryTypes(t *testing.T) {
	table := DefaultTable()
	for _, queryType := range []string{
		"game_prediction", "ensemble_prediction", "team_comparison", "model_management",
	} {
		routes, err := table.Routes(queryType)
		if err != nil {
			t.Fatalf("query type %q missing: %v", queryType, err)
		}
		if len(routes) == 0 {
			t.Fatalf("query type %q has no routes", queryType)
		}
	}
}

func TestRoutesUnknownQueryType(t *testing.T) {
	table := DefaultTable()
	_, err := table.Routes("horoscope")
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNewTableRejectsEmptyRouteList(t *testing.T) {
	_, err := NewTable(map[string][]Route{"game_prediction": {}})
	if err == nil {
		t.Fatal("expected error for empty route list")
	}
}

func TestNewTableRejectsIncompleteRoute(t *testing.T) {
	_, err := NewTable(map[string][]Route{
		"game_prediction": {{AgentID: "predictor"}},
	})
	if err == nil {
		t.Fatal("expected error for route without capability")
	}
}

func TestRoutesReturnsCopy(t *testing.T) {
	table := testTable(t, map[string][]Route{
		"game_prediction": {{AgentID: "predictor", Capability: "predict"}},
	})
	routes, _ := table.Routes("game_prediction")
	routes[0].AgentID = "mutated"

	again, _ := table.Routes("game_prediction")
	if again[0].AgentID != "predictor" {
		t.Fatal("Routes leaked internal state")
	}
}

func TestQueryTypesSorted(t *testing.T) {
	types := DefaultTable().QueryTypes()
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("query types not sorted: %v", types)
		}
	}
}
