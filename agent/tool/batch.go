package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cachex "github.com/corvid-labs/atlas/agent/cache"
	contractx "github.com/corvid-labs/atlas/agent/contract"
)

// batchSpec describes one batched entity lookup: a single cache
// round-trip for all keys, one multi-parameter knowledge query for the
// misses, individual write-backs. Keys are shared with the single-entity
// operation so batch fills warm single lookups and vice versa.
type batchSpec struct {
	op        string
	singleOp  string
	category  contractx.Category
	traversal string // multi-parameter knowledge query name
	keyParam  string // single-op parameter name, e.g. "name"
}

func (g *Gateway) getPeopleBatch(ctx context.Context, params map[string]any) contractx.ToolResult {
	return g.fetchBatch(ctx, params, batchSpec{
		op:        OpGetPeopleBatch,
		singleOp:  OpGetPersonDetails,
		category:  contractx.CategoryPerson,
		traversal: "people_by_names",
		keyParam:  "name",
	})
}

func (g *Gateway) getOrganizationsBatch(ctx context.Context, params map[string]any) contractx.ToolResult {
	return g.fetchBatch(ctx, params, batchSpec{
		op:        OpGetOrganizationsBatch,
		singleOp:  OpGetOrganizationDetails,
		category:  contractx.CategoryOrganization,
		traversal: "organizations_by_names",
		keyParam:  "name",
	})
}

func (g *Gateway) fetchBatch(ctx context.Context, params map[string]any, spec batchSpec) contractx.ToolResult {
	names, warnings := batchNames(params)
	if len(names) == 0 {
		warnings = append(warnings, `parameter "names" must hold at least one name`)
		return contractx.ToolResult{NotFound: true, Warnings: warnings}
	}

	keys := make([]string, len(names))
	keyToName := make(map[string]string, len(names))
	for i, name := range names {
		keys[i] = BuildCacheKey(spec.singleOp, map[string]any{spec.keyParam: name})
		keyToName[keys[i]] = name
	}

	var records []contractx.EntityRecord
	resolved := make(map[string]bool, len(names))

	cached, err := g.cache.GetMany(ctx, keys)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("cache: %v", err))
	}
	for key, raw := range cached {
		var recs []contractx.EntityRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			warnings = append(warnings, fmt.Sprintf("cache: corrupt entry for %q", keyToName[key]))
			continue
		}
		records = append(records, recs...)
		resolved[strings.ToLower(keyToName[key])] = true
		cachex.Observe(spec.category, true)
	}

	var misses []string
	for _, name := range names {
		if !resolved[strings.ToLower(name)] {
			misses = append(misses, name)
			cachex.Observe(spec.category, false)
		}
	}

	if len(misses) == 0 {
		return contractx.ToolResult{Source: contractx.SourceCache, Records: records, Warnings: warnings}
	}

	// One multi-parameter query covers every miss.
	fetched, err := g.knowledgeQuery(ctx, contractx.TraversalQuery{
		Name:   spec.traversal,
		Params: map[string]any{"names": misses},
	})
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("knowledge store: %v", err))
	}

	for _, rec := range fetched {
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
		resolved[strings.ToLower(rec.Name)] = true
		key := BuildCacheKey(spec.singleOp, map[string]any{spec.keyParam: rec.Name})
		g.writeBack(ctx, key, spec.category, []contractx.EntityRecord{rec})
	}

	for _, name := range misses {
		if !resolved[strings.ToLower(name)] {
			warnings = append(warnings, fmt.Sprintf("%s: not found", name))
		}
	}

	if len(records) == 0 {
		return contractx.ToolResult{NotFound: true, Warnings: warnings}
	}

	source := contractx.SourceKnowledge
	if len(cached) > 0 {
		source = contractx.SourceHybrid
	}
	return contractx.ToolResult{Source: source, Records: records, Warnings: warnings}
}

// batchNames extracts the names list, keeping well-formed entries when
// others are malformed.
func batchNames(params map[string]any) ([]string, []string) {
	var names []string
	var warnings []string

	appendName := func(v any) {
		s, ok := v.(string)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipping malformed batch entry %v", v))
			return
		}
		s = strings.TrimSpace(s)
		if s == "" {
			warnings = append(warnings, "skipping empty batch entry")
			return
		}
		names = append(names, s)
	}

	switch v := params["names"].(type) {
	case []string:
		for _, s := range v {
			appendName(s)
		}
	case []any:
		for _, e := range v {
			appendName(e)
		}
	}
	return names, warnings
}
