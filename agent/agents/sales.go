package agents

import (
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	toolx "github.com/corvid-labs/atlas/agent/tool"
)

var salesKeywords = []string{
	"deal", "deals", "pipeline", "account", "client", "customer",
	"organization", "company", "contract", "opportunity", "renewal",
	"prospect", "quota", "sale", "sales",
}

// planSales asks for organization details and their deal lists; without a
// named organization it falls back to the recent-deals feed.
func planSales(q contractx.Query) []contractx.ToolRequest {
	hints := entityHints(q.Text)
	lower := strings.ToLower(q.Text)

	if len(hints) >= 2 {
		reqs := []contractx.ToolRequest{{
			Op:     toolx.OpGetOrganizationsBatch,
			Params: map[string]any{"names": anySlice(hints)},
		}}
		if strings.Contains(lower, "deal") || strings.Contains(lower, "pipeline") {
			for _, h := range hints {
				reqs = append(reqs, contractx.ToolRequest{
					Op:     toolx.OpGetOrganizationDeals,
					Params: map[string]any{"organization": h},
				})
			}
		}
		return reqs
	}

	if len(hints) == 1 {
		reqs := []contractx.ToolRequest{{
			Op:     toolx.OpGetOrganizationDetails,
			Params: map[string]any{"name": hints[0]},
		}}
		if strings.Contains(lower, "deal") || strings.Contains(lower, "pipeline") ||
			strings.Contains(lower, "opportunit") {
			reqs = append(reqs, contractx.ToolRequest{
				Op:     toolx.OpGetOrganizationDeals,
				Params: map[string]any{"organization": hints[0]},
			})
		}
		return reqs
	}

	return []contractx.ToolRequest{{
		Op: toolx.OpListRecentDeals,
	}}
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
