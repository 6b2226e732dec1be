package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/courtside/courtside/pkg/core"
)

// BaselineContextTokens is the full context budget; a role's budget is its
// fraction of this.
const BaselineContextTokens = 2048

// section is one assembled block of supporting context. Lower priority
// numbers survive truncation longer.
type section struct {
	priority int
	text     string
}

const (
	priorityEntities   = 1 // directly requested entities
	priorityRoleText   = 2 // role-appropriate explanatory text
	priorityHistorical = 3 // historical background, dropped first
)

// assemble builds the supporting context and truncates it to the role's
// budget, dropping whole sections last-priority-first and trimming the last
// surviving section if it alone overruns.
func assemble(req core.AnalyticsRequest, p Profile) string {
	sections := []section{}
	if entities := entitySection(req); entities != "" {
		sections = append(sections, section{priorityEntities, entities})
	}
	if text := roleText(p.Role); text != "" {
		sections = append(sections, section{priorityRoleText, text})
	}
	if history := historySection(req); history != "" {
		sections = append(sections, section{priorityHistorical, history})
	}

	budget := int(float64(BaselineContextTokens) * p.BudgetFraction)
	return truncate(sections, budget)
}

func truncate(sections []section, budget int) string {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].priority < sections[j].priority
	})
	for len(sections) > 0 {
		total := 0
		for _, s := range sections {
			total += estimateTokens(s.text)
		}
		if total <= budget {
			break
		}
		if len(sections) == 1 {
			// Nothing left to drop; trim the highest-priority section.
			sections[0].text = trimToTokens(sections[0].text, budget)
			break
		}
		sections = sections[:len(sections)-1]
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.text)
	}
	return strings.Join(parts, "\n\n")
}

// estimateTokens uses the rough 4-characters-per-token heuristic.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return len(s)/4 + 1
}

func trimToTokens(s string, budget int) string {
	maxChars := budget * 4
	if maxChars <= 0 {
		return ""
	}
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars]
}

func entitySection(req core.AnalyticsRequest) string {
	keys := make([]string, 0, len(req.Parameters))
	for k := range req.Parameters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, req.Parameters[k]))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Requested entities:\n" + strings.Join(lines, "\n")
}

func roleText(role Role) string {
	switch role {
	case RoleDataScientist:
		return "Include model-level detail: per-model outputs, weights, and disagreement alongside the combined result."
	case RoleProduction:
		return "Return the combined result only; omit explanatory detail."
	default:
		return "Explain what the prediction means and how confident the models are, in plain language."
	}
}

func historySection(req core.AnalyticsRequest) string {
	v, ok := req.ContextHints["history"]
	if !ok {
		return ""
	}
	switch history := v.(type) {
	case string:
		if strings.TrimSpace(history) == "" {
			return ""
		}
		return "Background:\n" + history
	case []string:
		if len(history) == 0 {
			return ""
		}
		return "Background:\n" + strings.Join(history, "\n")
	case []any:
		lines := make([]string, 0, len(history))
		for _, item := range history {
			lines = append(lines, fmt.Sprintf("%v", item))
		}
		if len(lines) == 0 {
			return ""
		}
		return "Background:\n" + strings.Join(lines, "\n")
	default:
		return ""
	}
}
