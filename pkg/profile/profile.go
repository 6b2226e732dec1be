// Package profile derives a caller role and context token budget from a
// request. BuildContext is pure: same request in, same profile and context
// out, with no hidden state.
package profile

import (
	"strings"

	"github.com/courtside/courtside/pkg/core"
)

// Role classifies a caller for context-budget purposes.
type Role string

const (
	RoleAnalyst       Role = "analyst"
	RoleDataScientist Role = "data_scientist"
	RoleProduction    Role = "production"
)

// Profile is the derived caller classification. It is computed per request
// and never persisted.
type Profile struct {
	Role           Role
	BudgetFraction float64
}

// Built is the output of BuildContext: the derived profile plus the
// assembled, budget-truncated supporting context.
type Built struct {
	Profile Profile
	Context string
}

// roleRule is one entry in the ordered rule table. The first matching rule
// wins; evaluation is deterministic and hint-driven, not model-driven.
type roleRule struct {
	matches func(hints map[string]any) bool
	profile Profile
}

var roleRules = []roleRule{
	{
		matches: func(hints map[string]any) bool {
			return hasModels(hints) && hintString(hints, "skill_level") == "advanced"
		},
		profile: Profile{Role: RoleDataScientist, BudgetFraction: 0.75},
	},
	{
		matches: func(hints map[string]any) bool {
			if hintBool(hints, "production") || hintBool(hints, "fast_path") {
				return true
			}
			return hintString(hints, "mode") == "production"
		},
		profile: Profile{Role: RoleProduction, BudgetFraction: 0.25},
	},
}

// defaultProfile applies when hints are empty, absent, or match no rule.
var defaultProfile = Profile{Role: RoleAnalyst, BudgetFraction: 0.50}

// DetectRole evaluates the ordered rule table against the request's hints.
func DetectRole(req core.AnalyticsRequest) Profile {
	for _, rule := range roleRules {
		if rule.matches(req.ContextHints) {
			return rule.profile
		}
	}
	return defaultProfile
}

// BuildContext derives the role profile and assembles supporting context
// within the role's token budget.
func BuildContext(req core.AnalyticsRequest) Built {
	p := DetectRole(req)
	return Built{
		Profile: p,
		Context: assemble(req, p),
	}
}

func hasModels(hints map[string]any) bool {
	v, ok := hints["models"]
	if !ok {
		return false
	}
	switch models := v.(type) {
	case []string:
		return len(models) > 0
	case []any:
		return len(models) > 0
	case string:
		return strings.TrimSpace(models) != ""
	default:
		return false
	}
}

func hintString(hints map[string]any, key string) string {
	if v, ok := hints[key]; ok {
		if s, ok := v.(string); ok {
			return strings.ToLower(strings.TrimSpace(s))
		}
	}
	return ""
}

func hintBool(hints map[string]any, key string) bool {
	v, ok := hints[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	default:
		return false
	}
}
