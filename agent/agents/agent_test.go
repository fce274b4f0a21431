package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	toolx "github.com/corvid-labs/atlas/agent/tool"
)

type fakeRunner struct {
	out   agentLLMOutput
	err   error
	calls int
}

func (f *fakeRunner) Invoke(ctx context.Context, in map[string]any, opts ...compose.Option) (agentLLMOutput, error) {
	f.calls++
	if f.err != nil {
		return agentLLMOutput{}, f.err
	}
	return f.out, nil
}

func (f *fakeRunner) Stream(ctx context.Context, in map[string]any, opts ...compose.Option) (*schema.StreamReader[agentLLMOutput], error) {
	return nil, contractx.ErrModelInvoke
}

func (f *fakeRunner) Collect(ctx context.Context, in *schema.StreamReader[map[string]any], opts ...compose.Option) (agentLLMOutput, error) {
	return agentLLMOutput{}, contractx.ErrModelInvoke
}

func (f *fakeRunner) Transform(ctx context.Context, in *schema.StreamReader[map[string]any], opts ...compose.Option) (*schema.StreamReader[agentLLMOutput], error) {
	return nil, contractx.ErrModelInvoke
}

type fakeGateway struct {
	results map[string]contractx.ToolResult
	calls   []contractx.ToolRequest
}

func (f *fakeGateway) Invoke(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	f.calls = append(f.calls, req)
	if res, ok := f.results[req.Op]; ok {
		res.Op = req.Op
		return res
	}
	return contractx.ToolResult{Op: req.Op, NotFound: true, Warnings: []string{"no fixture"}}
}

func simplePlan(ops ...string) planFunc {
	return func(q contractx.Query) []contractx.ToolRequest {
		reqs := make([]contractx.ToolRequest, len(ops))
		for i, op := range ops {
			reqs[i] = contractx.ToolRequest{Op: op}
		}
		return reqs
	}
}

func TestRespondHighConfidenceAllResolved(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		toolx.OpGetOrganizationDetails: {
			Source:  contractx.SourceCache,
			Records: []contractx.EntityRecord{{Key: "org-1", Name: "Acme", Category: contractx.CategoryOrganization}},
		},
	}}
	runner := &fakeRunner{out: agentLLMOutput{Message: "Acme is doing fine."}}
	a := newAgent(contractx.AgentSales, salesKeywords, gw, runner, simplePlan(toolx.OpGetOrganizationDetails))

	resp, err := a.Respond(context.Background(), contractx.AgentRequest{
		Query: contractx.Query{Text: "how is Acme"},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.Confidence != contractx.ConfidenceHigh {
		t.Fatalf("confidence = %s, want high", resp.Confidence)
	}
	if resp.Text != "Acme is doing fine." {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "cache" {
		t.Fatalf("sources = %v, want [cache]", resp.Sources)
	}
	if runner.calls != 1 {
		t.Fatalf("runner calls = %d, want 1", runner.calls)
	}
}

func TestRespondPartialResolutionIsMedium(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		toolx.OpGetOrganizationDetails: {
			Source:  contractx.SourceKnowledge,
			Records: []contractx.EntityRecord{{Key: "org-1", Name: "Acme"}},
		},
	}}
	runner := &fakeRunner{out: agentLLMOutput{Message: "partial answer"}}
	a := newAgent(contractx.AgentSales, salesKeywords, gw, runner,
		simplePlan(toolx.OpGetOrganizationDetails, toolx.OpGetOrganizationDeals))

	resp, err := a.Respond(context.Background(), contractx.AgentRequest{
		Query: contractx.Query{Text: "acme deals"},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.Confidence != contractx.ConfidenceMedium {
		t.Fatalf("confidence = %s, want medium", resp.Confidence)
	}
}

func TestRespondNothingResolvedIsLow(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	runner := &fakeRunner{out: agentLLMOutput{Message: "I could not find anything."}}
	a := newAgent(contractx.AgentSales, salesKeywords, gw, runner, simplePlan(toolx.OpGetOrganizationDetails))

	resp, err := a.Respond(context.Background(), contractx.AgentRequest{
		Query: contractx.Query{Text: "how is Nowhere Inc"},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.Confidence != contractx.ConfidenceLow {
		t.Fatalf("confidence = %s, want low", resp.Confidence)
	}
}

func TestRespondFuzzyOnlyIsLow(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		toolx.OpGetPersonDetails: {
			Source:  contractx.SourceFuzzy,
			Records: []contractx.EntityRecord{{Key: "p-1", Name: "Jane Doe"}},
		},
	}}
	runner := &fakeRunner{out: agentLLMOutput{Message: "best guess"}}
	a := newAgent(contractx.AgentTalent, talentKeywords, gw, runner, simplePlan(toolx.OpGetPersonDetails))

	resp, err := a.Respond(context.Background(), contractx.AgentRequest{
		Query: contractx.Query{Text: "who is Jan Doe"},
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if resp.Confidence != contractx.ConfidenceLow {
		t.Fatalf("fuzzy-only resolution must stay low, got %s", resp.Confidence)
	}
}

func TestRespondFallsBackWhenModelFails(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{results: map[string]contractx.ToolResult{
		toolx.OpGetOrganizationDetails: {
			Source:  contractx.SourceCache,
			Records: []contractx.EntityRecord{{Key: "org-1", Name: "Acme", Category: contractx.CategoryOrganization}},
		},
	}}
	runner := &fakeRunner{err: contractx.ErrModelInvoke}
	a := newAgent(contractx.AgentSales, salesKeywords, gw, runner, simplePlan(toolx.OpGetOrganizationDetails))

	resp, err := a.Respond(context.Background(), contractx.AgentRequest{
		Query: contractx.Query{Text: "how is Acme"},
	})
	if err != nil {
		t.Fatalf("model failure must not fail the agent, got %v", err)
	}
	if resp.Confidence != contractx.ConfidenceLow {
		t.Fatalf("fallback summary must be low confidence, got %s", resp.Confidence)
	}
	if !strings.Contains(resp.Text, "Acme") {
		t.Fatalf("fallback summary must mention retrieved entities: %q", resp.Text)
	}
}

func TestPlanSalesNamedOrganization(t *testing.T) {
	t.Parallel()

	reqs := planSales(contractx.Query{Text: "show deals for Acme Corp"})
	if len(reqs) != 2 {
		t.Fatalf("expected details + deals, got %+v", reqs)
	}
	if reqs[0].Op != toolx.OpGetOrganizationDetails {
		t.Fatalf("first op = %s", reqs[0].Op)
	}
	if reqs[1].Op != toolx.OpGetOrganizationDeals {
		t.Fatalf("second op = %s", reqs[1].Op)
	}
	if reqs[1].Params["organization"] != "Acme Corp" {
		t.Fatalf("deal lookup params = %v", reqs[1].Params)
	}
}

func TestPlanSalesNoEntityListsRecentDeals(t *testing.T) {
	t.Parallel()

	reqs := planSales(contractx.Query{Text: "what closed recently"})
	if len(reqs) != 1 || reqs[0].Op != toolx.OpListRecentDeals {
		t.Fatalf("expected recent-deals fallback, got %+v", reqs)
	}
}

func TestPlanTalentCollaborations(t *testing.T) {
	t.Parallel()

	reqs := planTalent(contractx.Query{Text: "who collaborated with Jane Doe"})
	ops := map[string]bool{}
	for _, r := range reqs {
		ops[r.Op] = true
	}
	if !ops[toolx.OpGetPersonDetails] || !ops[toolx.OpGetPersonCollaborations] {
		t.Fatalf("expected person details + collaborations, got %+v", reqs)
	}
}

func TestPlanTalentBatchForManyNames(t *testing.T) {
	t.Parallel()

	reqs := planTalent(contractx.Query{Text: "compare Jane Doe and John Roe"})
	if len(reqs) != 1 || reqs[0].Op != toolx.OpGetPeopleBatch {
		t.Fatalf("expected one batch op, got %+v", reqs)
	}
	names, ok := reqs[0].Params["names"].([]any)
	if !ok || len(names) != 2 {
		t.Fatalf("batch names = %v", reqs[0].Params["names"])
	}
}

func TestPlanAnalyticsMetrics(t *testing.T) {
	t.Parallel()

	reqs := planAnalytics(contractx.Query{Text: "show quarterly performance metrics"})
	found := false
	for _, r := range reqs {
		if r.Op == toolx.OpGetLeadershipMetrics {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected leadership metrics op, got %+v", reqs)
	}
}

func TestPlanAnalyticsConceptFallback(t *testing.T) {
	t.Parallel()

	reqs := planAnalytics(contractx.Query{Text: "how does churn relate to onboarding"})
	if len(reqs) != 1 || reqs[0].Op != toolx.OpGetConceptRelations {
		t.Fatalf("expected concept-relations fallback, got %+v", reqs)
	}
}
