package agents

import (
	"context"
	"fmt"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	llmx "github.com/corvid-labs/atlas/agent/llm"
	promptx "github.com/corvid-labs/atlas/agent/prompt"
)

// registry is the closed table of responders. It is built once at
// startup and read-only afterwards.
type registry struct {
	byID map[contractx.AgentID]contractx.Agent
}

// NewRegistry compiles one model graph per agent and wires each to the
// shared tool gateway. A single model failure fails the whole build;
// degraded operation is the caller's decision, not a partial registry.
func NewRegistry(ctx context.Context, cfg llmx.Config, tools contractx.ToolGateway) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool gateway is required", contractx.ErrValidation)
	}

	prompts := promptx.LoadPromptSet()
	specs := []struct {
		id       contractx.AgentID
		prompt   string
		keywords []string
		plan     planFunc
	}{
		{contractx.AgentSales, prompts.Sales, salesKeywords, planSales},
		{contractx.AgentTalent, prompts.Talent, talentKeywords, planTalent},
		{contractx.AgentAnalytics, prompts.Analytics, analyticsKeywords, planAnalytics},
	}

	byID := make(map[contractx.AgentID]contractx.Agent, len(specs))
	for _, s := range specs {
		providerCfg := cfg.OpenRouterFor(s.id)
		chatModel, err := providerCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("build %s model: %w", s.id, err)
		}
		runner, err := compileAgentGraph(ctx, chatModel, s.prompt, string(s.id)+"_agent")
		if err != nil {
			return nil, fmt.Errorf("compile %s graph: %w", s.id, err)
		}
		byID[s.id] = newAgent(s.id, s.keywords, tools, runner, s.plan)
	}

	return &registry{byID: byID}, nil
}

// NewRegistryFromAgents builds a registry over prebuilt agents. Used by
// tests to substitute fakes.
func NewRegistryFromAgents(list ...contractx.Agent) contractx.Registry {
	byID := make(map[contractx.AgentID]contractx.Agent, len(list))
	for _, a := range list {
		byID[a.ID()] = a
	}
	return &registry{byID: byID}
}

func (r *registry) Agent(id contractx.AgentID) (contractx.Agent, bool) {
	a, ok := r.byID[id]
	return a, ok
}

func (r *registry) All() []contractx.Agent {
	all := make([]contractx.Agent, 0, len(r.byID))
	for _, id := range contractx.AgentOrder {
		if a, ok := r.byID[id]; ok {
			all = append(all, a)
		}
	}
	return all
}
