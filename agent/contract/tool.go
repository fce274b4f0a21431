package contract

// Category classifies a cached entity. Cache TTL is a pure function of
// the category and is never overridden per call.
type Category string

const (
	CategoryPerson       Category = "person"
	CategoryProject      Category = "project"
	CategoryOrganization Category = "organization"
	CategoryDocument     Category = "document"
	CategoryConcept      Category = "concept"
)

// Source marks where a tool result was ultimately served from.
type Source string

const (
	SourceCache        Source = "cache"
	SourceKnowledge    Source = "knowledge_store"
	SourceRelationship Source = "relationship_service"
	SourceHybrid       Source = "hybrid"
	SourceFuzzy        Source = "fuzzy_cache"
)

// ToolRequest names one tool-layer operation invocation. Params are
// normalized by the tool layer before the cache key is derived.
type ToolRequest struct {
	Op     string         `json:"op"`
	Params map[string]any `json:"params,omitempty"`
}

// EntityRecord is the flat merged view of one entity.
type EntityRecord struct {
	Key      string         `json:"key"`
	Name     string         `json:"name,omitempty"`
	Category Category       `json:"category"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// ToolResult is what every tool operation resolves to. Operations never
// surface raw store errors: a failed rung downgrades to the next one, and
// full exhaustion yields NotFound=true with Warnings naming each rung
// that was tried.
type ToolResult struct {
	Op       string         `json:"op"`
	Source   Source         `json:"source,omitempty"`
	Records  []EntityRecord `json:"records,omitempty"`
	NotFound bool           `json:"not_found,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (r ToolResult) Resolved() bool {
	return !r.NotFound && len(r.Records) > 0
}
