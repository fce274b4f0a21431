// Package agents holds the three domain responders. An agent is a
// routing policy over the tool layer plus a phrasing step through the
// model; it carries no retrieval logic of its own.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
)

// planFunc selects which tool operations answer the given query.
type planFunc func(q contractx.Query) []contractx.ToolRequest

type agentImpl struct {
	id       contractx.AgentID
	keywords []string
	tools    contractx.ToolGateway
	runner   compose.Runnable[map[string]any, agentLLMOutput]
	plan     planFunc
	log      zerolog.Logger
}

func newAgent(
	id contractx.AgentID,
	keywords []string,
	tools contractx.ToolGateway,
	runner compose.Runnable[map[string]any, agentLLMOutput],
	plan planFunc,
) *agentImpl {
	return &agentImpl{
		id:       id,
		keywords: keywords,
		tools:    tools,
		runner:   runner,
		plan:     plan,
		log:      logx.Component("agent." + string(id)),
	}
}

func (a *agentImpl) ID() contractx.AgentID {
	return a.id
}

func (a *agentImpl) Keywords() []string {
	return a.keywords
}

// Respond runs the agent's tool plan, then phrases an answer from the
// retrieved context. Upstream degradation lowers the confidence tier;
// it never surfaces as an error.
func (a *agentImpl) Respond(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	start := time.Now()

	reqs := a.plan(req.Query)
	results := a.invokeTools(ctx, reqs)

	if err := ctx.Err(); err != nil {
		return contractx.AgentResponse{}, fmt.Errorf("%w: agent %s: %v", contractx.ErrTimeout, a.id, err)
	}

	confidence, sources := assess(results)

	text, err := a.phrase(ctx, req, results)
	if err != nil {
		a.log.Warn().Err(err).Msg("model phrasing failed, falling back to plain summary")
		text = plainSummary(results)
		confidence = contractx.ConfidenceLow
	}

	return contractx.AgentResponse{
		AgentID:    a.id,
		Text:       text,
		Confidence: confidence,
		Sources:    sources,
		Elapsed:    time.Since(start),
	}, nil
}

// invokeTools runs the plan with a small fan-out. The tool layer's own
// semaphore bounds pressure on the knowledge store, so no extra limit is
// needed here.
func (a *agentImpl) invokeTools(ctx context.Context, reqs []contractx.ToolRequest) []contractx.ToolResult {
	results := make([]contractx.ToolResult, len(reqs))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			results[i] = a.tools.Invoke(egCtx, req)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (a *agentImpl) phrase(ctx context.Context, req contractx.AgentRequest, results []contractx.ToolResult) (string, error) {
	payload := map[string]any{
		"query":          req.Query.Text,
		"memory_summary": req.MemorySummary,
		"context":        contextBlock(results),
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal agent payload: %v", contractx.ErrValidation, err)
	}

	out, err := a.runner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return "", fmt.Errorf("%w: agent invoke: %v", contractx.ErrModelInvoke, err)
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		return "", fmt.Errorf("%w: agent message is empty", contractx.ErrSchemaViolation)
	}
	return message, nil
}

// assess derives the confidence tier from how many planned sources
// resolved: all of them without fuzzy fallback is high, anything partial
// is medium, nothing (or fuzzy-only) is low.
func assess(results []contractx.ToolResult) (contractx.ConfidenceTier, []string) {
	var resolved, fuzzy int
	sourceSet := map[string]bool{}
	for _, r := range results {
		if !r.Resolved() {
			continue
		}
		resolved++
		if r.Source == contractx.SourceFuzzy {
			fuzzy++
		}
		sourceSet[string(r.Source)] = true
	}

	sources := make([]string, 0, len(sourceSet))
	for _, s := range []contractx.Source{
		contractx.SourceCache,
		contractx.SourceKnowledge,
		contractx.SourceRelationship,
		contractx.SourceHybrid,
		contractx.SourceFuzzy,
	} {
		if sourceSet[string(s)] {
			sources = append(sources, string(s))
		}
	}

	switch {
	case resolved == 0 || resolved == fuzzy:
		return contractx.ConfidenceLow, sources
	case resolved == len(results) && fuzzy == 0:
		return contractx.ConfidenceHigh, sources
	default:
		return contractx.ConfidenceMedium, sources
	}
}

func contextBlock(results []contractx.ToolResult) []map[string]any {
	block := make([]map[string]any, 0, len(results))
	for _, r := range results {
		entry := map[string]any{
			"op":     r.Op,
			"source": string(r.Source),
		}
		if r.NotFound {
			entry["not_found"] = true
			entry["warnings"] = r.Warnings
		} else {
			entry["records"] = r.Records
		}
		block = append(block, entry)
	}
	return block
}

// plainSummary renders tool results without the model, for the phrasing
// fallback.
func plainSummary(results []contractx.ToolResult) string {
	var b strings.Builder
	b.WriteString("Retrieved facts (automatic summary):\n")
	any := false
	for _, r := range results {
		if !r.Resolved() {
			continue
		}
		any = true
		for _, rec := range r.Records {
			name := rec.Name
			if name == "" {
				name = rec.Key
			}
			fmt.Fprintf(&b, "- %s (%s, via %s)\n", name, rec.Category, r.Source)
		}
	}
	if !any {
		return "No supporting data could be retrieved for this question right now."
	}
	return strings.TrimSpace(b.String())
}
