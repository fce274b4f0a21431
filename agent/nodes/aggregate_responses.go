package supervisornode

import (
	"fmt"
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

var sectionLabels = map[contractx.AgentID]string{
	contractx.AgentSales:     "Sales",
	contractx.AgentTalent:    "Talent",
	contractx.AgentAnalytics: "Analytics",
}

// AggregateResponses merges contributions into one reply. Responses
// arrive already sorted by the fixed agent order, so output is identical
// regardless of which agent finished first. A single contribution passes
// through unlabeled.
func AggregateResponses(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	switch len(in.Responses) {
	case 0:
		in.Text = noAnswerNotice(in.Skipped, in.Failed)
	case 1:
		in.Text = strings.TrimSpace(in.Responses[0].Text)
	default:
		var b strings.Builder
		for i, resp := range in.Responses {
			if i > 0 {
				b.WriteString("\n\n")
			}
			label := sectionLabels[resp.AgentID]
			if label == "" {
				label = string(resp.AgentID)
			}
			fmt.Fprintf(&b, "## %s\n%s", label, strings.TrimSpace(resp.Text))
		}
		in.Text = b.String()
	}
	return in, nil
}

func noAnswerNotice(skipped, failed []contractx.AgentID) string {
	if len(skipped) > 0 {
		return fmt.Sprintf(
			"The responsible agents (%s) did not answer within their time budget. Please retry.",
			joinIDs(skipped),
		)
	}
	if len(failed) > 0 {
		return fmt.Sprintf(
			"The responsible agents (%s) could not answer this question. Please retry.",
			joinIDs(failed),
		)
	}
	return "No agent produced an answer for this question."
}

func joinIDs(ids []contractx.AgentID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
