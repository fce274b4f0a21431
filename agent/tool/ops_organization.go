package tool

import (
	"context"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func (g *Gateway) getOrganizationDetails(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "name")
	if !ok {
		return missingParam(OpGetOrganizationDetails, "name")
	}

	return g.fetchEntity(ctx, entitySpec{
		op:       OpGetOrganizationDetails,
		category: contractx.CategoryOrganization,
		name:     name,
		traversal: contractx.TraversalQuery{
			Name:   "organization_by_name",
			Params: map[string]any{"name": name},
		},
		live:    true,
		liveKey: name,
	})
}

func (g *Gateway) getOrganizationDeals(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "organization")
	if !ok {
		return missingParam(OpGetOrganizationDeals, "organization")
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetOrganizationDeals,
		category: contractx.CategoryOrganization,
		traversal: contractx.TraversalQuery{
			Name:   "deals_by_organization",
			Params: map[string]any{"organization": name},
		},
	})
}

func (g *Gateway) getDealDetails(ctx context.Context, params map[string]any) contractx.ToolResult {
	dealID, ok := stringParam(params, "deal_id")
	if !ok {
		return missingParam(OpGetDealDetails, "deal_id")
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetDealDetails,
		category: contractx.CategoryOrganization,
		traversal: contractx.TraversalQuery{
			Name:   "deal_by_id",
			Params: map[string]any{"deal_id": dealID},
		},
	})
}

func (g *Gateway) listRecentDeals(ctx context.Context, params map[string]any) contractx.ToolResult {
	traversalParams := map[string]any{}
	if window, ok := stringParam(params, "window"); ok {
		traversalParams["window"] = window
	} else {
		traversalParams["window"] = "30d"
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpListRecentDeals,
		category: contractx.CategoryOrganization,
		traversal: contractx.TraversalQuery{
			Name:   "recent_deals",
			Params: traversalParams,
		},
	})
}
