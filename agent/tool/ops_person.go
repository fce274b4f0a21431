package tool

import (
	"context"

	contractx "github.com/corvid-labs/atlas/agent/contract"
)

func (g *Gateway) getPersonDetails(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "name")
	if !ok {
		return missingParam(OpGetPersonDetails, "name")
	}

	return g.fetchEntity(ctx, entitySpec{
		op:       OpGetPersonDetails,
		category: contractx.CategoryPerson,
		name:     name,
		traversal: contractx.TraversalQuery{
			Name:   "person_by_name",
			Params: map[string]any{"name": name},
		},
		live:    true,
		liveKey: name,
	})
}

func (g *Gateway) findPeopleBySkill(ctx context.Context, params map[string]any) contractx.ToolResult {
	skill, ok := stringParam(params, "skill")
	if !ok {
		return missingParam(OpFindPeopleBySkill, "skill")
	}

	traversalParams := map[string]any{"skill": skill}
	if avail, ok := stringParam(params, "availability"); ok {
		traversalParams["availability"] = avail
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpFindPeopleBySkill,
		category: contractx.CategoryPerson,
		traversal: contractx.TraversalQuery{
			Name:   "people_by_skill",
			Params: traversalParams,
		},
	})
}

func (g *Gateway) getPersonCollaborations(ctx context.Context, params map[string]any) contractx.ToolResult {
	name, ok := stringParam(params, "name")
	if !ok {
		return missingParam(OpGetPersonCollaborations, "name")
	}

	return g.fetchQuery(ctx, querySpec{
		op:       OpGetPersonCollaborations,
		category: contractx.CategoryPerson,
		traversal: contractx.TraversalQuery{
			Name:   "person_collaborations",
			Params: map[string]any{"name": name},
		},
	})
}
