package supervisornode

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

// Timeouts bound agent work per strategy. A single agent gets the longer
// budget because nothing runs beside it.
type Timeouts struct {
	Single time.Duration
	Agent  time.Duration
}

const (
	DefaultSingleTimeout = 20 * time.Second
	DefaultAgentTimeout  = 10 * time.Second
)

func (t Timeouts) withDefaults() Timeouts {
	if t.Single <= 0 {
		t.Single = DefaultSingleTimeout
	}
	if t.Agent <= 0 {
		t.Agent = DefaultAgentTimeout
	}
	return t
}

// DispatchAgents runs every routed agent under its deadline. A timed-out
// agent lands in Skipped, an erroring one in Failed; in-flight tool work
// is abandoned through context cancellation and its results discarded.
func DispatchAgents(
	ctx context.Context,
	in *GraphState,
	registry contractx.Registry,
	timeouts Timeouts,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	timeouts = timeouts.withDefaults()
	log := logx.Component("supervisor.dispatch")

	budget := timeouts.Agent
	if in.Routing.Strategy == contractx.StrategySingle {
		budget = timeouts.Single
	}

	req := contractx.AgentRequest{
		Query:         in.Filtered,
		User:          in.User,
		MemorySummary: in.MemorySummary,
	}

	var mu sync.Mutex
	var responses []contractx.AgentResponse
	var skipped []contractx.AgentID
	var failed []contractx.AgentID

	eg, egCtx := errgroup.WithContext(ctx)
	for _, id := range in.Routing.Agents {
		agent, ok := registry.Agent(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPinnedAgent, id)
		}

		eg.Go(func() error {
			agentCtx, cancel := context.WithTimeout(egCtx, budget)
			defer cancel()

			resp, err := agent.Respond(agentCtx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				responses = append(responses, resp)
			case errors.Is(err, contractx.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
				metrics.AgentTimeouts.WithLabelValues(string(agent.ID())).Inc()
				skipped = append(skipped, agent.ID())
				log.Warn().Str("agent", string(agent.ID())).Dur("budget", budget).
					Msg("agent deadline elapsed, contribution skipped")
			default:
				failed = append(failed, agent.ID())
				log.Warn().Err(err).Str("agent", string(agent.ID())).
					Msg("agent failed, contribution dropped")
			}
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(responses, func(i, j int) bool {
		return contractx.AgentRank(responses[i].AgentID) < contractx.AgentRank(responses[j].AgentID)
	})
	sort.Slice(skipped, func(i, j int) bool {
		return contractx.AgentRank(skipped[i]) < contractx.AgentRank(skipped[j])
	})
	sort.Slice(failed, func(i, j int) bool {
		return contractx.AgentRank(failed[i]) < contractx.AgentRank(failed[j])
	})

	in.Responses = responses
	in.Skipped = skipped
	in.Failed = failed
	return in, nil
}
