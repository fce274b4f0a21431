package supervisornode

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

// strongScore is the keyword-hit count at which an agent's domain is
// considered a strong match. Two strong domains force the multi-agent
// strategy.
const strongScore = 2

// ClassifyQuery picks the routing strategy. Precedence: a valid pinned
// preference wins outright, an explicit multi preference forces fan-out,
// otherwise keyword scoring decides, tying toward the fixed agent order.
func ClassifyQuery(in *GraphState, registry contractx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Filtered.Preference == contractx.PreferencePinned {
		if _, ok := registry.Agent(in.Filtered.PinnedAgent); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPinnedAgent, in.Filtered.PinnedAgent)
		}
		in.Routing = contractx.RoutingDecision{
			Strategy:   contractx.StrategySingle,
			Agents:     []contractx.AgentID{in.Filtered.PinnedAgent},
			Confidence: 1.0,
		}
		return in, nil
	}

	scores, total := scoreAgents(in.Filtered.Text, registry)

	if in.Filtered.Preference == contractx.PreferenceMulti {
		in.Routing = contractx.RoutingDecision{
			Strategy:   contractx.StrategyMulti,
			Agents:     scoredOrAll(scores, registry),
			Confidence: 1.0,
		}
		return in, nil
	}

	ranked := rankAgents(scores)
	if len(ranked) == 0 {
		// No domain keywords matched. The query still deserves an
		// answer, so it routes to the highest-priority registered agent
		// at zero confidence instead of erroring.
		id, ok := defaultAgent(registry)
		if !ok {
			return nil, ErrNoRoutableAgent
		}
		in.Routing = contractx.RoutingDecision{
			Strategy:   contractx.StrategySingle,
			Agents:     []contractx.AgentID{id},
			Confidence: 0,
		}
		return in, nil
	}

	strong := 0
	for _, id := range ranked {
		if scores[id] >= strongScore {
			strong++
		}
	}

	if strong >= 2 {
		agents := make([]contractx.AgentID, 0, strong)
		for _, id := range contractx.AgentOrder {
			if scores[id] >= strongScore {
				agents = append(agents, id)
			}
		}
		in.Routing = contractx.RoutingDecision{
			Strategy:   contractx.StrategyMulti,
			Agents:     agents,
			Confidence: confidenceOf(scores, agents, total),
		}
		return in, nil
	}

	top := ranked[0]
	in.Routing = contractx.RoutingDecision{
		Strategy:   contractx.StrategySingle,
		Agents:     []contractx.AgentID{top},
		Confidence: confidenceOf(scores, []contractx.AgentID{top}, total),
	}
	return in, nil
}

// defaultAgent is the zero-score fallback target: the first agent in the
// fixed priority order that is actually registered.
func defaultAgent(registry contractx.Registry) (contractx.AgentID, bool) {
	for _, id := range contractx.AgentOrder {
		if _, ok := registry.Agent(id); ok {
			return id, true
		}
	}
	return "", false
}

func scoreAgents(text string, registry contractx.Registry) (map[contractx.AgentID]int, int) {
	lower := strings.ToLower(text)
	scores := map[contractx.AgentID]int{}
	total := 0
	for _, a := range registry.All() {
		n := 0
		for _, kw := range a.Keywords() {
			if strings.Contains(lower, kw) {
				n++
			}
		}
		if n > 0 {
			scores[a.ID()] = n
			total += n
		}
	}
	return scores, total
}

// rankAgents orders scored agents by score descending, breaking ties by
// the fixed agent order.
func rankAgents(scores map[contractx.AgentID]int) []contractx.AgentID {
	ranked := make([]contractx.AgentID, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return contractx.AgentRank(ranked[i]) < contractx.AgentRank(ranked[j])
	})
	return ranked
}

func scoredOrAll(scores map[contractx.AgentID]int, registry contractx.Registry) []contractx.AgentID {
	if len(scores) == 0 {
		all := registry.All()
		ids := make([]contractx.AgentID, len(all))
		for i, a := range all {
			ids[i] = a.ID()
		}
		return ids
	}
	return rankedInOrder(scores)
}

// rankedInOrder returns scored agents in the fixed agent order, not score
// order, so fan-out membership is stable.
func rankedInOrder(scores map[contractx.AgentID]int) []contractx.AgentID {
	var ids []contractx.AgentID
	for _, id := range contractx.AgentOrder {
		if scores[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func confidenceOf(scores map[contractx.AgentID]int, agents []contractx.AgentID, total int) float64 {
	if total == 0 {
		return 0
	}
	chosen := 0
	for _, id := range agents {
		chosen += scores[id]
	}
	return float64(chosen) / float64(total)
}
