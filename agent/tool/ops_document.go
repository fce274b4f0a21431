package tool

import (
	"context"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func (g *Gateway) searchDocuments(ctx context.Context, params map[string]any) contractx.ToolResult {
	query, ok := stringParam(params, "query")
	if !ok {
		return missingParam(OpSearchDocuments, "query")
	}

	traversalParams := map[string]any{"query": query}
	if docType, ok := stringParam(params, "type"); ok {
		traversalParams["type"] = docType
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpSearchDocuments,
		category: contractx.CategoryDocument,
		traversal: contractx.TraversalQuery{
			Name:   "documents_by_text",
			Params: traversalParams,
		},
	})
}

func (g *Gateway) getDocumentDetails(ctx context.Context, params map[string]any) contractx.ToolResult {
	title, ok := stringParam(params, "title")
	if !ok {
		return missingParam(OpGetDocumentDetails, "title")
	}

	return g.fetchEntity(ctx, entitySpec{
		op:       OpGetDocumentDetails,
		category: contractx.CategoryDocument,
		name:     title,
		traversal: contractx.TraversalQuery{
			Name:   "document_by_title",
			Params: map[string]any{"title": title},
		},
	})
}

func (g *Gateway) getConceptRelations(ctx context.Context, params map[string]any) contractx.ToolResult {
	concept, ok := stringParam(params, "concept")
	if !ok {
		return missingParam(OpGetConceptRelations, "concept")
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetConceptRelations,
		category: contractx.CategoryConcept,
		traversal: contractx.TraversalQuery{
			Name:   "concept_relations",
			Params: map[string]any{"concept": concept},
		},
	})
}

func (g *Gateway) getLeadershipMetrics(ctx context.Context, params map[string]any) contractx.ToolResult {
	traversalParams := map[string]any{}
	if unit, ok := stringParam(params, "unit"); ok {
		traversalParams["unit"] = unit
	}
	if window, ok := stringParam(params, "window"); ok {
		traversalParams["window"] = window
	} else {
		traversalParams["window"] = "quarter"
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetLeadershipMetrics,
		category: contractx.CategoryConcept,
		traversal: contractx.TraversalQuery{
			Name:   "leadership_metrics",
			Params: traversalParams,
		},
	})
}
