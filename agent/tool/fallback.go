package tool

import (
	"context"
	"encoding/json"
	"fmt"

	cachex "github.com/corvid-labs/atlas/agent/cache"
	contractx "github.com/corvid-labs/atlas/agent/contract"
	"github.com/corvid-labs/atlas/pkg/metrics"
)

// entitySpec describes one single-entity fetch for the degradation
// ladder: cache, knowledge store, relationship service, fuzzy match over
// cached names, structured not-found.
type entitySpec struct {
	op        string
	category  contractx.Category
	name      string                   // entity name, used for fuzzy matching
	traversal contractx.TraversalQuery // knowledge store rung
	live      bool                     // entity has a relationship-service counterpart
	liveKey   string                   // key for the relationship lookup
}

// querySpec describes a list-shaped fetch, which only has the cache and
// knowledge rungs.
type querySpec struct {
	op        string
	category  contractx.Category
	traversal contractx.TraversalQuery
}

func (g *Gateway) fetchEntity(ctx context.Context, spec entitySpec) contractx.ToolResult {
	key := BuildCacheKey(spec.op, spec.traversal.Params)
	var warnings []string

	// Rung 1: cache.
	if records, ok := g.cacheLookup(ctx, key, spec.category, &warnings); ok {
		return contractx.ToolResult{Source: contractx.SourceCache, Records: records}
	}

	// Rung 2: knowledge store.
	graphRecords, graphErr := g.knowledgeQuery(ctx, spec.traversal)
	if graphErr != nil {
		warnings = append(warnings, fmt.Sprintf("knowledge store: %v", graphErr))
	}

	// Rung 3: relationship service, also the live half of a hybrid merge.
	var liveRecord *contractx.EntityRecord
	if spec.live {
		rec, err := g.crm.Lookup(ctx, spec.category, spec.liveKey)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("relationship service: %v", err))
		} else {
			liveRecord = &rec
		}
	}

	source, records := combine(graphRecords, liveRecord)
	if len(records) > 0 {
		g.writeBack(ctx, key, spec.category, records)
		return contractx.ToolResult{Source: source, Records: records, Warnings: warnings}
	}

	// Rung 4: best-effort fuzzy match against cached entity names.
	if spec.name != "" {
		if res, ok := g.fuzzyLookup(ctx, spec.category, spec.name, &warnings); ok {
			res.Warnings = append(warnings, res.Warnings...)
			return res
		}
	}

	// Rung 5: structured not-found.
	metrics.FallbackExhausted.Inc()
	return contractx.ToolResult{NotFound: true, Warnings: warnings}
}

func (g *Gateway) fetchQuery(ctx context.Context, spec querySpec) contractx.ToolResult {
	key := BuildCacheKey(spec.op, spec.traversal.Params)
	var warnings []string

	if records, ok := g.cacheLookup(ctx, key, spec.category, &warnings); ok {
		return contractx.ToolResult{Source: contractx.SourceCache, Records: records}
	}

	records, err := g.knowledgeQuery(ctx, spec.traversal)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("knowledge store: %v", err))
	}
	if len(records) > 0 {
		g.writeBack(ctx, key, spec.category, records)
		return contractx.ToolResult{Source: contractx.SourceKnowledge, Records: records, Warnings: warnings}
	}

	if len(warnings) == 0 {
		warnings = append(warnings, "knowledge store returned no records")
	}
	metrics.FallbackExhausted.Inc()
	return contractx.ToolResult{NotFound: true, Warnings: warnings}
}

func (g *Gateway) cacheLookup(ctx context.Context, key string, category contractx.Category, warnings *[]string) ([]contractx.EntityRecord, bool) {
	raw, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("cache: %v", err))
		cachex.Observe(category, false)
		return nil, false
	}
	if !hit {
		cachex.Observe(category, false)
		return nil, false
	}

	var records []contractx.EntityRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("cache: corrupt entry for key=%s", key))
		cachex.Observe(category, false)
		return nil, false
	}
	cachex.Observe(category, true)
	return records, true
}

// knowledgeQuery runs one traversal under the shared concurrency bound.
func (g *Gateway) knowledgeQuery(ctx context.Context, q contractx.TraversalQuery) ([]contractx.EntityRecord, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrTimeout, err)
	}
	defer g.sem.Release(1)

	return g.graph.Query(ctx, q)
}

// writeBack stores the fetched records as a whole-value replacement under
// the category TTL and refreshes the name index for the fuzzy rung.
func (g *Gateway) writeBack(ctx context.Context, key string, category contractx.Category, records []contractx.EntityRecord) {
	payload, err := json.Marshal(records)
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("marshal cache payload")
		return
	}
	if err := g.cache.Set(ctx, key, payload, category); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("cache write-back failed")
		return
	}
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		if err := g.cache.IndexName(ctx, category, r.Name, key); err != nil {
			g.log.Warn().Err(err).Str("name", r.Name).Msg("name index update failed")
		}
	}
}

func (g *Gateway) fuzzyLookup(ctx context.Context, category contractx.Category, name string, warnings *[]string) (contractx.ToolResult, bool) {
	names, err := g.cache.Names(ctx, category)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("fuzzy match: %v", err))
		return contractx.ToolResult{}, false
	}

	matched, key, ok := bestMatch(name, names)
	if !ok {
		*warnings = append(*warnings, fmt.Sprintf("fuzzy match: no cached name close to %q", name))
		return contractx.ToolResult{}, false
	}

	raw, hit, err := g.cache.Get(ctx, key)
	if err != nil || !hit {
		*warnings = append(*warnings, fmt.Sprintf("fuzzy match: cached entry for %q expired", matched))
		return contractx.ToolResult{}, false
	}
	var records []contractx.EntityRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("fuzzy match: corrupt entry for %q", matched))
		return contractx.ToolResult{}, false
	}

	return contractx.ToolResult{
		Source:   contractx.SourceFuzzy,
		Records:  records,
		Warnings: []string{fmt.Sprintf("served fuzzy match %q for requested %q", matched, name)},
	}, true
}

// combine merges the knowledge and live halves of one entity. Live fields
// win for volatile data, knowledge fields win for relationship history.
func combine(graphRecords []contractx.EntityRecord, liveRecord *contractx.EntityRecord) (contractx.Source, []contractx.EntityRecord) {
	switch {
	case len(graphRecords) > 0 && liveRecord != nil:
		merged := mergeHybrid(graphRecords[0], *liveRecord)
		out := append([]contractx.EntityRecord{merged}, graphRecords[1:]...)
		return contractx.SourceHybrid, out
	case len(graphRecords) > 0:
		return contractx.SourceKnowledge, graphRecords
	case liveRecord != nil:
		return contractx.SourceRelationship, []contractx.EntityRecord{*liveRecord}
	default:
		return "", nil
	}
}
