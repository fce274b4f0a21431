package tool

import (
	contractx "github.com/corvid-labs/atlas/agent/contract"
)

// liveFields are volatile attributes where the relationship service is
// authoritative.
var liveFields = map[string]bool{
	"status":        true,
	"stage":         true,
	"last_activity": true,
	"owner":         true,
	"open_deals":    true,
	"email":         true,
	"phone":         true,
}

// historyFields are relationship/history attributes where the knowledge
// store is authoritative.
var historyFields = map[string]bool{
	"collaborations":  true,
	"project_history": true,
	"projects":        true,
	"tenure":          true,
	"skills":          true,
	"relationships":   true,
}

// mergeHybrid combines the graph and live views of one entity field by
// field: live wins its fields, knowledge wins its fields, and fields
// known to only one side pass through.
func mergeHybrid(graph, live contractx.EntityRecord) contractx.EntityRecord {
	merged := contractx.EntityRecord{
		Key:      graph.Key,
		Name:     graph.Name,
		Category: graph.Category,
		Fields:   make(map[string]any, len(graph.Fields)+len(live.Fields)),
	}
	if merged.Key == "" {
		merged.Key = live.Key
	}
	if merged.Name == "" {
		merged.Name = live.Name
	}

	for k, v := range graph.Fields {
		merged.Fields[k] = v
	}
	for k, v := range live.Fields {
		if historyFields[k] {
			if _, known := merged.Fields[k]; known {
				continue
			}
		}
		if liveFields[k] {
			merged.Fields[k] = v
			continue
		}
		if _, known := merged.Fields[k]; !known {
			merged.Fields[k] = v
		}
	}
	return merged
}
