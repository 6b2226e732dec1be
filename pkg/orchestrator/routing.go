package orchestrator

import (
	"fmt"
	"sort"

	"github.com/courtside/courtside/pkg/errors"
)

// Route names one candidate capability invocation for a query type.
type Route struct {
	AgentID    string
	Capability string
}

// Table is the static routing table mapping query types to their ordered
// candidate routes. It is the only place new agent types get wired in.
type Table struct {
	routes map[string][]Route
}

// NewTable validates and builds a routing table. Query types are translated
// exactly once, here at ingestion; downstream code never switches on raw
// query-type strings.
func NewTable(routes map[string][]Route) (Table, error) {
	for queryType, candidates := range routes {
		if queryType == "" {
			return Table{}, errors.New(errors.CodeInvalidInput,
				"routing table contains an empty query type", nil)
		}
		if len(candidates) == 0 {
			return Table{}, errors.New(errors.CodeInvalidInput,
				fmt.Sprintf("query type %q has no routes", queryType), nil)
		}
		for _, route := range candidates {
			if route.AgentID == "" || route.Capability == "" {
				return Table{}, errors.New(errors.CodeInvalidInput,
					fmt.Sprintf("query type %q has an incomplete route %+v", queryType, route), nil)
			}
		}
	}
	copied := make(map[string][]Route, len(routes))
	for queryType, candidates := range routes {
		copied[queryType] = append([]Route(nil), candidates...)
	}
	return Table{routes: copied}, nil
}

// DefaultTable wires the stock agents.
func DefaultTable() Table {
	table, err := NewTable(map[string][]Route{
		"game_prediction": {
			{AgentID: "predictor", Capability: "predict_game"},
			{AgentID: "statistician", Capability: "game_features"},
		},
		"ensemble_prediction": {
			{AgentID: "predictor", Capability: "predict_ensemble"},
		},
		"team_comparison": {
			{AgentID: "statistician", Capability: "compare_teams"},
		},
		"model_management": {
			{AgentID: "curator", Capability: "reload_models"},
			{AgentID: "predictor", Capability: "list_models"},
		},
	})
	if err != nil {
		panic(err) // static table, validated at init
	}
	return table
}

// Routes resolves the candidate list for a query type. An unknown query type
// is a typed error, never a silent default branch.
func (t Table) Routes(queryType string) ([]Route, error) {
	candidates, ok := t.routes[queryType]
	if !ok {
		return nil, errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("unknown query type %q", queryType), nil).
			WithContext("known", t.QueryTypes()).
			WithRecoverable(true)
	}
	return append([]Route(nil), candidates...), nil
}

// QueryTypes returns the known query types, sorted.
func (t Table) QueryTypes() []string {
	types := make([]string, 0, len(t.routes))
	for queryType := range t.routes {
		types = append(types, queryType)
	}
	sort.Strings(types)
	return types
}
