package embedding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph/graphrag/internal/models"
)

func TestTextForEntity_Function(t *testing.T) {
	e := &models.Entity{
		Kind:      models.EntityFunction,
		Name:      "parse",
		Signature: "func parse(s string) error",
		Docstring: "parses input",
		Body:      "return nil",
	}
	text := TextForEntity(e)
	assert.Contains(t, text, "Function: parse")
	assert.Contains(t, text, "Signature: func parse(s string) error")
	assert.Contains(t, text, "Docstring: parses input")
	assert.Contains(t, text, "Body: return nil")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestTextForEntity_FunctionOmitsEmptyFields(t *testing.T) {
	e := &models.Entity{Kind: models.EntityFunction, Name: "bare"}
	text := TextForEntity(e)
	assert.Equal(t, "Function: bare", text)
}

func TestTextForEntity_Class(t *testing.T) {
	e := &models.Entity{
		Kind:      models.EntityClass,
		Name:      "Widget",
		Docstring: "a widget",
		Metadata:  map[string]any{"methods": []string{"render", "compute"}},
	}
	text := TextForEntity(e)
	assert.Contains(t, text, "Class: Widget")
	assert.Contains(t, text, "Docstring: a widget")
	assert.Contains(t, text, "Methods: render, compute")
}

func TestTextForEntity_DefaultKindFallback(t *testing.T) {
	e := &models.Entity{Kind: models.EntityVariable, Name: "count", Body: "42"}
	text := TextForEntity(e)
	assert.Contains(t, text, "Variable: count")
	assert.Contains(t, text, "Content: 42")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Function", capitalize("function"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Already", capitalize("Already"))
}
