package contract

import (
	"context"
	"time"
)

// Agent is one domain-specialized responder.
type Agent interface {
	ID() AgentID
	// Keywords declares the agent's domain vocabulary for classification.
	Keywords() []string
	Respond(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// Registry is a closed table of agents. Adding an agent means adding an
// AgentID constant and a table entry, never reflection.
type Registry interface {
	Agent(id AgentID) (Agent, bool)
	All() []Agent
}

// ToolGateway executes tool-layer operations on behalf of agents.
type ToolGateway interface {
	Invoke(ctx context.Context, req ToolRequest) ToolResult
}

// Cache is the shared key/value store with category TTLs. Implementations
// must be safe for concurrent use; single-key atomicity is sufficient.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte, category Category) error
	// IndexName records an entity name for the fuzzy-match fallback rung.
	IndexName(ctx context.Context, category Category, name, key string) error
	Names(ctx context.Context, category Category) (map[string]string, error)
}

// TraversalQuery is one parameterized query against the knowledge store.
type TraversalQuery struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// KnowledgeStore executes graph traversal queries.
type KnowledgeStore interface {
	Query(ctx context.Context, q TraversalQuery) ([]EntityRecord, error)
}

// RelationshipService looks up live records for entities with a CRM
// counterpart (people, organizations, deals).
type RelationshipService interface {
	Lookup(ctx context.Context, category Category, key string) (EntityRecord, error)
}

// MemoryStore persists conversation turns. Append must be idempotent per
// (conversation id, seq).
type MemoryStore interface {
	Append(ctx context.Context, turn Turn) error
	Read(ctx context.Context, conversationID string) ([]Turn, error)
	NextSeq(ctx context.Context, conversationID string) (int64, error)
}

// Completer is the direct LLM capability used by agents' final phrasing
// and by the supervisor's degraded path.
type Completer interface {
	Complete(ctx context.Context, system, input string) (string, error)
}

// Clock lets tests pin time.
type Clock func() time.Time
