package agents

import (
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	toolx "github.com/corvid-labs/atlas/agent/tool"
)

var analyticsKeywords = []string{
	"project", "projects", "report", "reports", "document", "documents",
	"metric", "metrics", "kpi", "performance", "trend", "analysis",
	"analytics", "dashboard", "quarter", "quarterly", "status",
}

// planAnalytics covers the reporting surface: project lookups, document
// search, leadership metrics and concept relations.
func planAnalytics(q contractx.Query) []contractx.ToolRequest {
	hints := entityHints(q.Text)
	lower := strings.ToLower(q.Text)

	var reqs []contractx.ToolRequest

	wantsTeam := strings.Contains(lower, "team") || strings.Contains(lower, "who is on") ||
		strings.Contains(lower, "who's on")
	wantsProject := strings.Contains(lower, "project") || strings.Contains(lower, "initiative")

	if wantsProject || wantsTeam {
		for _, h := range hints {
			reqs = append(reqs, contractx.ToolRequest{
				Op:     toolx.OpGetProjectDetails,
				Params: map[string]any{"name": h},
			})
			if wantsTeam {
				reqs = append(reqs, contractx.ToolRequest{
					Op:     toolx.OpGetProjectTeam,
					Params: map[string]any{"project": h},
				})
			}
		}
	}

	if strings.Contains(lower, "document") || strings.Contains(lower, "report") ||
		strings.Contains(lower, "doc ") || strings.HasSuffix(lower, "doc") {
		if len(hints) > 0 {
			reqs = append(reqs, contractx.ToolRequest{
				Op:     toolx.OpGetDocumentDetails,
				Params: map[string]any{"title": hints[0]},
			})
		}
		reqs = append(reqs, contractx.ToolRequest{
			Op:     toolx.OpSearchDocuments,
			Params: map[string]any{"query": strings.TrimRight(strings.TrimSpace(q.Text), "?.!")},
		})
	}

	if strings.Contains(lower, "metric") || strings.Contains(lower, "kpi") ||
		strings.Contains(lower, "performance") || strings.Contains(lower, "revenue") {
		reqs = append(reqs, contractx.ToolRequest{
			Op: toolx.OpGetLeadershipMetrics,
		})
	}

	if len(reqs) == 0 {
		concept := trailingPhrase(lower)
		if len(hints) > 0 {
			concept = hints[0]
		}
		reqs = append(reqs, contractx.ToolRequest{
			Op:     toolx.OpGetConceptRelations,
			Params: map[string]any{"concept": concept},
		})
	}
	return reqs
}
