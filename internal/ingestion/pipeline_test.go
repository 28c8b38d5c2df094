package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph/graphrag/internal/models"
)

func TestCountUnparsed(t *testing.T) {
	parsed := []*models.ParseResult{
		{FilePath: "a.py"},
		{FilePath: "b.py", Errors: []string{"syntax error"}},
		{FilePath: "c.py"},
	}
	assert.Equal(t, 1, countUnparsed(parsed))
}

func TestCountUnparsed_Empty(t *testing.T) {
	assert.Equal(t, 0, countUnparsed(nil))
}

func TestFilterEmbeddable_DropsImports(t *testing.T) {
	entities := []*models.Entity{
		{ID: "1", Kind: models.EntityFunction},
		{ID: "2", Kind: models.EntityImport},
		{ID: "3", Kind: models.EntityClass},
	}
	filtered := filterEmbeddable(entities)
	assert.Len(t, filtered, 2)
	for _, e := range filtered {
		assert.NotEqual(t, models.EntityImport, e.Kind)
	}
}

func TestFilterEmbeddable_AllImportsYieldsEmpty(t *testing.T) {
	entities := []*models.Entity{{ID: "1", Kind: models.EntityImport}}
	assert.Empty(t, filterEmbeddable(entities))
}
