package contract

import "time"

type AgentID string

const (
	AgentSales     AgentID = "sales"
	AgentTalent    AgentID = "talent"
	AgentAnalytics AgentID = "analytics"
)

// AgentOrder is the stable presentation and tie-break order. Aggregation
// sorts contributions by this order so output never depends on completion
// order.
var AgentOrder = []AgentID{AgentSales, AgentTalent, AgentAnalytics}

func AgentRank(id AgentID) int {
	for i, a := range AgentOrder {
		if a == id {
			return i
		}
	}
	return len(AgentOrder)
}

// UserContext is supplied by the auth layer and is immutable per request.
// RoleLevel 1 is the highest authority, 4 the lowest. Clearance ranks
// 1 (public) to 6 (most restricted).
type UserContext struct {
	UserID     string `json:"user_id"`
	RoleLevel  int    `json:"role_level"`
	Clearance  int    `json:"clearance"`
	Department string `json:"department,omitempty"`
}

type RoutingPreference string

const (
	PreferenceNone   RoutingPreference = ""
	PreferencePinned RoutingPreference = "pinned"
	PreferenceMulti  RoutingPreference = "multi"
)

// Query is created per inbound request. The security gate produces a new
// sanitized Query; the original is never mutated.
type Query struct {
	Text           string            `json:"text"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Preference     RoutingPreference `json:"preference,omitempty"`
	PinnedAgent    AgentID           `json:"pinned_agent,omitempty"`
}

type Strategy string

const (
	StrategySingle Strategy = "single_agent"
	StrategyMulti  Strategy = "multi_agent"
)

// RoutingDecision is computed once per filtered query and attached to the
// response for observability.
type RoutingDecision struct {
	Strategy   Strategy  `json:"strategy"`
	Agents     []AgentID `json:"agents"`
	Confidence float64   `json:"confidence"`
}

type ConfidenceTier string

const (
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceHigh   ConfidenceTier = "high"
)

// AgentRequest carries the filtered query into one agent invocation.
type AgentRequest struct {
	Query         Query       `json:"query"`
	User          UserContext `json:"user"`
	MemorySummary string      `json:"memory_summary,omitempty"`
}

// AgentResponse is immutable once returned to the supervisor.
type AgentResponse struct {
	AgentID    AgentID        `json:"agent_id"`
	Text       string         `json:"text"`
	Confidence ConfidenceTier `json:"confidence"`
	Sources    []string       `json:"sources,omitempty"`
	Elapsed    time.Duration  `json:"elapsed"`
}

// SynthesizedResponse is the system's sole output besides errors.
type SynthesizedResponse struct {
	Text            string          `json:"text"`
	Routing         RoutingDecision `json:"routing"`
	SkippedTimeouts []AgentID       `json:"skipped_timeouts,omitempty"`
	FailedAgents    []AgentID       `json:"failed_agents,omitempty"`
	Contributions   []AgentResponse `json:"contributing_agents"`
	ConversationID  string          `json:"conversation_id,omitempty"`
	Degraded        bool            `json:"degraded,omitempty"`
}

// Turn is one persisted conversation exchange. Seq starts at 1 and is
// assigned per conversation in arrival order.
type Turn struct {
	ConversationID string    `json:"conversation_id"`
	Seq            int64     `json:"seq"`
	Query          string    `json:"query"`
	Agents         []AgentID `json:"agents,omitempty"`
	Response       string    `json:"response"`
	At             time.Time `json:"at"`
}
