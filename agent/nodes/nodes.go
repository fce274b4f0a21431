// Package supervisornode holds the node functions of the supervisor's
// request graph. Each node is a plain function over *GraphState so it can
// be tested without compiling the graph.
package supervisornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	gatex "github.com/corvid-labs/atlas/agent/gate"
)

var (
	ErrInvalidQuery       = errors.New("query text is empty")
	ErrNoRoutableAgent    = errors.New("no agent can take this query")
	ErrUnknownPinnedAgent = errors.New("pinned agent is not registered")
)

type GraphInput struct {
	Query contractx.Query
	User  contractx.UserContext
}

type GraphOutput struct {
	Response contractx.SynthesizedResponse
}

type GraphState struct {
	Raw  contractx.Query
	User contractx.UserContext
	Now  time.Time

	// Filtered is the gate's sanitized query; nothing downstream may
	// touch Raw.Text again.
	Filtered      contractx.Query
	GateDecision  gatex.Decision
	MemorySummary string

	Routing   contractx.RoutingDecision
	Responses []contractx.AgentResponse

	// Skipped holds deadline casualties only; Failed holds agents that
	// errored outright.
	Skipped []contractx.AgentID
	Failed  []contractx.AgentID

	Text string
}

func ValidateRequest(in GraphInput, nowFn contractx.Clock) (*GraphState, error) {
	if strings.TrimSpace(in.Query.Text) == "" {
		return nil, ErrInvalidQuery
	}

	return &GraphState{
		Raw:  in.Query,
		User: in.User,
		Now:  nowFn().UTC(),
	}, nil
}
