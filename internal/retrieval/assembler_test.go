package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/models"
)

func entity(id string) *models.Entity {
	return &models.Entity{
		ID:        id,
		Kind:      models.EntityKind("function"),
		Name:      id,
		FilePath:  "pkg/" + id + ".go",
		StartLine: 10,
		EndLine:   20,
		Signature: "func " + id + "()",
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 2, estimateTokens("abcde"))
	assert.Equal(t, 3, estimateTokens("twelve chars"))
}

func TestCitationBlock_PrefersSignatureOverBody(t *testing.T) {
	e := entity("foo")
	e.Body = "should not appear"
	block := citationBlock(e)
	assert.Contains(t, block, "[File: pkg/foo.go, Lines: 10-20]")
	assert.Contains(t, block, "func foo()")
	assert.NotContains(t, block, "should not appear")
}

func TestCitationBlock_FallsBackToBodyThenKindName(t *testing.T) {
	e := &models.Entity{ID: "bar", Kind: "class", Name: "Bar", FilePath: "x.go", StartLine: 1, EndLine: 2, Body: "class body"}
	block := citationBlock(e)
	assert.Contains(t, block, "class body")

	e.Body = ""
	block = citationBlock(e)
	assert.Contains(t, block, "class: Bar")
}

func TestCitationBlock_IncludesDocstring(t *testing.T) {
	e := entity("documented")
	e.Docstring = "does a thing"
	block := citationBlock(e)
	assert.Contains(t, block, `"""does a thing"""`)
}

func TestAssemble_IncludesWithinBudgetExcludesOverflow(t *testing.T) {
	ranked := []models.ScoredEntity{
		{Entity: entity("a"), Relevance: 0.9},
		{Entity: entity("b"), Relevance: 0.5},
	}
	firstCost := estimateTokens(citationBlock(ranked[0].Entity))

	result := assemble(ranked, firstCost)
	require.NotNil(t, result)
	assert.Equal(t, []string{"a"}, result.IncludedIDs)
	assert.Equal(t, []string{"b"}, result.ExcludedIDs)
	assert.Equal(t, firstCost, result.TotalTokens)
	assert.True(t, strings.HasPrefix(result.Context, contextHeader))
}

func TestAssemble_AllFitWithinGenerousBudget(t *testing.T) {
	ranked := []models.ScoredEntity{
		{Entity: entity("a"), Relevance: 0.9},
		{Entity: entity("b"), Relevance: 0.5},
	}
	result := assemble(ranked, 100000)
	assert.ElementsMatch(t, []string{"a", "b"}, result.IncludedIDs)
	assert.Empty(t, result.ExcludedIDs)
}

func TestAssemble_EmptyCandidates(t *testing.T) {
	result := assemble(nil, 1000)
	assert.Empty(t, result.IncludedIDs)
	assert.Empty(t, result.ExcludedIDs)
	assert.Equal(t, 0, result.TotalTokens)
	assert.Equal(t, contextHeader, result.Context)
}
