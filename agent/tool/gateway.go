// Package tool implements the retrieval operations agents call. Every
// operation is cache-first, falls back from the knowledge store to the
// relationship service to a fuzzy match over cached names, and resolves
// to a structured not-found instead of raising when everything fails.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	contractx "github.com/corvid-labs/atlas/agent/contract"
	logx "github.com/corvid-labs/atlas/pkg/logger"
)

// DefaultKnowledgeConcurrency caps in-flight knowledge store queries
// across every operation and every concurrently running agent.
const DefaultKnowledgeConcurrency = 12

// Operation names. The set is a closed catalog; agents may only request
// these.
const (
	OpGetPersonDetails        = "get_person_details"
	OpFindPeopleBySkill       = "find_people_by_skill"
	OpGetPersonCollaborations = "get_person_collaborations"
	OpGetPeopleBatch          = "get_people_batch"
	OpGetOrganizationDetails  = "get_organization_details"
	OpGetOrganizationDeals    = "get_organization_deals"
	OpGetOrganizationsBatch   = "get_organizations_batch"
	OpGetDealDetails          = "get_deal_details"
	OpListRecentDeals         = "list_recent_deals"
	OpGetProjectDetails       = "get_project_details"
	OpGetProjectTeam          = "get_project_team"
	OpSearchDocuments         = "search_documents"
	OpGetDocumentDetails      = "get_document_details"
	OpGetConceptRelations     = "get_concept_relations"
	OpGetLeadershipMetrics    = "get_leadership_metrics"
)

type opFunc func(ctx context.Context, params map[string]any) contractx.ToolResult

type Config struct {
	KnowledgeConcurrency int64 `envconfig:"KNOWLEDGE_CONCURRENCY" split_words:"true" default:"12"`
}

// Gateway wires the stores together and dispatches operations through a
// closed table.
type Gateway struct {
	cache contractx.Cache
	graph contractx.KnowledgeStore
	crm   contractx.RelationshipService
	sem   *semaphore.Weighted
	log   zerolog.Logger
	ops   map[string]opFunc
}

func NewGateway(cache contractx.Cache, graph contractx.KnowledgeStore, crm contractx.RelationshipService, cfg Config) (*Gateway, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if graph == nil {
		return nil, errors.New("knowledge store is required")
	}
	if crm == nil {
		return nil, errors.New("relationship service is required")
	}

	limit := cfg.KnowledgeConcurrency
	if limit <= 0 {
		limit = DefaultKnowledgeConcurrency
	}

	g := &Gateway{
		cache: cache,
		graph: graph,
		crm:   crm,
		sem:   semaphore.NewWeighted(limit),
		log:   logx.Component("tool"),
	}
	g.ops = map[string]opFunc{
		OpGetPersonDetails:        g.getPersonDetails,
		OpFindPeopleBySkill:       g.findPeopleBySkill,
		OpGetPersonCollaborations: g.getPersonCollaborations,
		OpGetPeopleBatch:          g.getPeopleBatch,
		OpGetOrganizationDetails:  g.getOrganizationDetails,
		OpGetOrganizationDeals:    g.getOrganizationDeals,
		OpGetOrganizationsBatch:   g.getOrganizationsBatch,
		OpGetDealDetails:          g.getDealDetails,
		OpListRecentDeals:         g.listRecentDeals,
		OpGetProjectDetails:       g.getProjectDetails,
		OpGetProjectTeam:          g.getProjectTeam,
		OpSearchDocuments:         g.searchDocuments,
		OpGetDocumentDetails:      g.getDocumentDetails,
		OpGetConceptRelations:     g.getConceptRelations,
		OpGetLeadershipMetrics:    g.getLeadershipMetrics,
	}
	return g, nil
}

// Invoke runs one operation. It never returns an error: unknown
// operations and exhausted ladders both resolve to a structured
// not-found result.
func (g *Gateway) Invoke(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	op := strings.TrimSpace(req.Op)
	fn, ok := g.ops[op]
	if !ok {
		return contractx.ToolResult{
			Op:       op,
			NotFound: true,
			Warnings: []string{fmt.Sprintf("unknown operation %q", op)},
		}
	}

	res := fn(ctx, req.Params)
	res.Op = op

	g.log.Debug().
		Str("op", op).
		Str("source", string(res.Source)).
		Bool("not_found", res.NotFound).
		Int("records", len(res.Records)).
		Msg("tool invoked")
	return res
}

// stringParam pulls a required string parameter.
func stringParam(params map[string]any, name string) (string, bool) {
	v, ok := params[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func missingParam(op, name string) contractx.ToolResult {
	return contractx.ToolResult{
		Op:       op,
		NotFound: true,
		Warnings: []string{fmt.Sprintf("parameter %q is required", name)},
	}
}
