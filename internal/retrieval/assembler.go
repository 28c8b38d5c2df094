// Package retrieval implements the ContextAssembler: hybrid semantic+graph ranking fused into a
// single relevance score, then greedily packed into a token-budgeted prompt context.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codegraph/graphrag/internal/config"
	"github.com/codegraph/graphrag/internal/logging"
	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/query"
)

const (
	semanticWeight    = 0.7
	graphWeight       = 0.3
	charsPerToken     = 4
	contextHeader     = "# Retrieved Context\n"
)

// Assembler builds prompt context by ranking candidate entities and packing their citation
// blocks into a token budget.
type Assembler struct {
	engine *query.Engine
	cfg    *config.Config
	logger *logging.Logger
}

func NewAssembler(engine *query.Engine, cfg *config.Config, logger *logging.Logger) *Assembler {
	return &Assembler{engine: engine, cfg: cfg, logger: logger}
}

// RetrieveContext assembles a prompt context for query within projectID, bounded to
// tokenBudget. When manualEntityIDs is non-empty, ranking is bypassed and every named entity is
// included with relevance 1.0 in the order given. When validateOnly is true, no context string
// is built; the caller only learns whether the candidate set would fit the budget.
func (a *Assembler) RetrieveContext(ctx context.Context, queryText string, projectID string, tokenBudget int, manualEntityIDs []string, validateOnly bool) (*models.ContextResult, *models.ContextValidation, error) {
	if tokenBudget <= 0 {
		tokenBudget = a.cfg.Query.DefaultTokenBudget
	}

	var ranked []models.ScoredEntity
	if len(manualEntityIDs) > 0 {
		entities, err := a.engine.GetEntities(ctx, manualEntityIDs)
		if err != nil {
			return nil, nil, err
		}
		byID := make(map[string]*models.Entity, len(entities))
		for _, e := range entities {
			byID[e.ID] = e
		}
		for _, id := range manualEntityIDs {
			if e, ok := byID[id]; ok {
				ranked = append(ranked, models.ScoredEntity{Entity: e, Relevance: 1.0, Source: "manual"})
			}
		}
	} else {
		var err error
		ranked, err = a.rank(ctx, queryText, projectID)
		if err != nil {
			return nil, nil, err
		}
	}

	if validateOnly {
		total := 0
		for _, se := range ranked {
			total += estimateTokens(citationBlock(se.Entity))
		}
		valid := total <= tokenBudget
		msg := "fits within budget"
		if !valid {
			msg = fmt.Sprintf("candidate set needs ~%d tokens, exceeds budget of %d", total, tokenBudget)
		}
		return nil, &models.ContextValidation{
			Valid: valid, TotalTokens: total, TokenBudget: tokenBudget,
			EntitiesCount: len(ranked), Message: msg,
		}, nil
	}

	result := assemble(ranked, tokenBudget)
	return result, nil, nil
}

// rank implements the hybrid semantic+graph fusion: a semantic search seeds candidates, each
// seed's one-hop callers/dependencies add unseen graph candidates, and every candidate's
// relevance is fused from whichever of (semantic_score, graph_distance) it carries.
func (a *Assembler) rank(ctx context.Context, queryText, projectID string) ([]models.ScoredEntity, error) {
	topK := a.cfg.Query.DefaultSearchTopK
	semanticHits, err := a.engine.SemanticSearch(ctx, queryText, []string{projectID}, topK)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		entity        *models.Entity
		semanticScore float64
		graphDistance int
		hasSemantic   bool
		hasGraph      bool
	}
	seen := make(map[string]*candidate)
	order := []string{}

	for _, e := range semanticHits.Entities {
		score, _ := e.Metadata["similarity"].(float64)
		seen[e.ID] = &candidate{entity: e, semanticScore: score, hasSemantic: true}
		order = append(order, e.ID)
	}

	for _, e := range semanticHits.Entities {
		callers, err := a.engine.FindCallers(ctx, projectID, e.ID)
		if err != nil {
			a.logger.WithError(err).Warn("graph expansion: find_callers failed")
			callers = &models.QueryResult{}
		}
		deps, err := a.engine.FindDependencies(ctx, projectID, e.ID)
		if err != nil {
			a.logger.WithError(err).Warn("graph expansion: find_dependencies failed")
			deps = &models.QueryResult{}
		}

		for _, neighbor := range append(callers.Entities, deps.Entities...) {
			if c, ok := seen[neighbor.ID]; ok {
				if !c.hasGraph || c.graphDistance > 1 {
					c.hasGraph = true
					c.graphDistance = 1
				}
				continue
			}
			seen[neighbor.ID] = &candidate{entity: neighbor, graphDistance: 1, hasGraph: true}
			order = append(order, neighbor.ID)
		}
	}

	ranked := make([]models.ScoredEntity, 0, len(order))
	for _, id := range order {
		c := seen[id]
		se := models.ScoredEntity{Entity: c.entity, SemanticScore: c.semanticScore, GraphDistance: c.graphDistance}
		switch {
		case c.hasSemantic && c.hasGraph:
			se.Relevance = semanticWeight*c.semanticScore + graphWeight*(1.0/float64(c.graphDistance))
			se.Source = "semantic"
		case c.hasSemantic:
			se.Relevance = semanticWeight * c.semanticScore
			se.Source = "semantic"
		default:
			se.Relevance = graphWeight * (1.0 / float64(c.graphDistance))
			se.Source = "graph"
		}
		ranked = append(ranked, se)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Relevance > ranked[j].Relevance })
	return ranked, nil
}

// assemble greedily admits citation blocks, in ranked order, until the next block would exceed
// tokenBudget.
func assemble(ranked []models.ScoredEntity, tokenBudget int) *models.ContextResult {
	var blocks []string
	var included, excluded []string
	total := 0

	for _, se := range ranked {
		block := citationBlock(se.Entity)
		cost := estimateTokens(block)
		if total+cost > tokenBudget {
			excluded = append(excluded, se.Entity.ID)
			continue
		}
		blocks = append(blocks, block)
		included = append(included, se.Entity.ID)
		total += cost
	}

	return &models.ContextResult{
		Context:     contextHeader + strings.Join(blocks, "\n\n"),
		IncludedIDs: included,
		ExcludedIDs: excluded,
		TotalTokens: total,
		TokenBudget: tokenBudget,
	}
}

// citationBlock formats one entity using a fixed citation template: a file/line header followed
// by the entity's signature or body, with its docstring appended when present.
func citationBlock(e *models.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[File: %s, Lines: %d-%d]\n", e.FilePath, e.StartLine, e.EndLine)

	body := e.Signature
	if body == "" {
		body = e.Body
	}
	if body == "" {
		body = fmt.Sprintf("%s: %s", e.Kind, e.Name)
	}
	b.WriteString(body)

	if e.Docstring != "" {
		fmt.Fprintf(&b, "\n\"\"\"%s\"\"\"", e.Docstring)
	}
	return b.String()
}

// estimateTokens approximates token count as one token per four characters, per the documented
// (non-exact) token accounting contract.
func estimateTokens(s string) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}
