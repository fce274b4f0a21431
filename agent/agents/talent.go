package agents

import (
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	toolx "github.com/corvid-labs/atlas/agent/tool"
)

var talentKeywords = []string{
	"people", "person", "hire", "hiring", "skill", "skills", "staffing",
	"team member", "engineer", "developer", "candidate", "availability",
	"collaborate", "collaboration", "worked with", "experience",
}

// skillMarkers precede a skill phrase in a staffing question, e.g.
// "who has experience with Kafka".
var skillMarkers = []string{
	"experience with", "experience in", "skilled in", "skills in",
	"who knows", "expertise in", "proficient in",
}

// planTalent resolves named people, their collaboration history when the
// query asks about it, and skill searches when a skill marker is present.
func planTalent(q contractx.Query) []contractx.ToolRequest {
	hints := entityHints(q.Text)
	lower := strings.ToLower(q.Text)

	var reqs []contractx.ToolRequest

	if skill, ok := skillPhrase(lower); ok {
		reqs = append(reqs, contractx.ToolRequest{
			Op:     toolx.OpFindPeopleBySkill,
			Params: map[string]any{"skill": skill},
		})
	}

	wantsCollab := strings.Contains(lower, "collaborat") || strings.Contains(lower, "worked with")

	switch {
	case len(hints) >= 2 && !wantsCollab:
		reqs = append(reqs, contractx.ToolRequest{
			Op:     toolx.OpGetPeopleBatch,
			Params: map[string]any{"names": anySlice(hints)},
		})
	default:
		for _, h := range hints {
			reqs = append(reqs, contractx.ToolRequest{
				Op:     toolx.OpGetPersonDetails,
				Params: map[string]any{"name": h},
			})
			if wantsCollab {
				reqs = append(reqs, contractx.ToolRequest{
					Op:     toolx.OpGetPersonCollaborations,
					Params: map[string]any{"name": h},
				})
			}
		}
	}

	if len(reqs) == 0 {
		// No names and no skill marker: treat the trailing noun phrase as
		// a skill so staffing questions still resolve something.
		reqs = append(reqs, contractx.ToolRequest{
			Op:     toolx.OpFindPeopleBySkill,
			Params: map[string]any{"skill": trailingPhrase(lower)},
		})
	}
	return reqs
}

func skillPhrase(lower string) (string, bool) {
	for _, marker := range skillMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(lower[idx+len(marker):])
		rest = strings.TrimRight(rest, "?.!")
		words := strings.Fields(rest)
		if len(words) == 0 {
			continue
		}
		if len(words) > 3 {
			words = words[:3]
		}
		return strings.Join(words, " "), true
	}
	return "", false
}

func trailingPhrase(lower string) string {
	lower = strings.TrimRight(strings.TrimSpace(lower), "?.!")
	words := strings.Fields(lower)
	if len(words) > 2 {
		words = words[len(words)-2:]
	}
	return strings.Join(words, " ")
}
