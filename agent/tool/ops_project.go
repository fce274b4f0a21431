package tool

import (
	"context"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func (g *Gateway) getProjectDetails(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "name")
	if !ok {
		return missingParam(OpGetProjectDetails, "name")
	}

	return g.fetchEntity(ctx, entitySpec{
		op:       OpGetProjectDetails,
		category: contractx.CategoryProject,
		name:     name,
		traversal: contractx.TraversalQuery{
			Name:   "project_by_name",
			Params: map[string]any{"name": name},
		},
	})
}

func (g *Gateway) getProjectTeam(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "project")
	if !ok {
		return missingParam(OpGetProjectTeam, "project")
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetProjectTeam,
		category: contractx.CategoryProject,
		traversal: contractx.TraversalQuery{
			Name:   "project_team",
			Params: map[string]any{"project": name},
		},
	})
}
