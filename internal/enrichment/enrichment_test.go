package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/models"
)

func importEntity(id, filePath, module string, symbols []string) *models.Entity {
	return &models.Entity{
		ID:       id,
		Kind:     models.EntityImport,
		FilePath: filePath,
		Language: models.LanguageJavaScript,
		Metadata: map[string]any{"module": module, "symbols": symbols},
	}
}

func fileEnt(id, path string) *models.Entity {
	return &models.Entity{ID: id, Kind: models.EntityFile, Name: path, FilePath: path}
}

func TestEnrich_SynthesizesMissingFileEntity(t *testing.T) {
	sourceFiles := []models.SourceFile{{Path: "a.py", Content: "x = 1\ny = 2\n"}}
	parsed := []*models.ParseResult{{FilePath: "a.py"}}

	result := Enrich("proj", sourceFiles, parsed, nil)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, models.EntityFile, result.Entities[0].Kind)
	assert.Equal(t, "a.py", result.Entities[0].FilePath)
	assert.Equal(t, 2, result.Entities[0].EndLine)
}

func TestEnrich_SkipsFileThatAlreadyHasEntity(t *testing.T) {
	sourceFiles := []models.SourceFile{{Path: "a.py", Content: "x = 1\n"}}
	parsed := []*models.ParseResult{{FilePath: "a.py", Entities: []*models.Entity{fileEnt("existing", "a.py")}}}

	result := Enrich("proj", sourceFiles, parsed, nil)
	assert.Empty(t, result.Entities)
}

func TestEnrich_ResolvesRelativeImportToFileMatch(t *testing.T) {
	sourceFiles := []models.SourceFile{
		{Path: "src/a.ts", Content: "import './b'"},
		{Path: "src/b.ts", Content: "export const x = 1"},
	}
	parsed := []*models.ParseResult{
		{FilePath: "src/a.ts", Entities: []*models.Entity{
			fileEnt("file_a", "src/a.ts"),
			importEntity("imp1", "src/a.ts", "./b", nil),
		}},
		{FilePath: "src/b.ts", Entities: []*models.Entity{fileEnt("file_b", "src/b.ts")}},
	}

	result := Enrich("proj", sourceFiles, parsed, nil)
	require.Len(t, result.Relationships, 1)
	rel := result.Relationships[0]
	assert.Equal(t, "file_a", rel.SourceID)
	assert.Equal(t, "file_b", rel.TargetID)
	assert.Equal(t, models.RelImports, rel.Kind)
}

func TestEnrich_ResolvesNamedSymbolToUsesEdge(t *testing.T) {
	sourceFiles := []models.SourceFile{
		{Path: "src/a.ts", Content: "import {helper} from './b'"},
		{Path: "src/b.ts", Content: "export function helper() {}"},
	}
	parsed := []*models.ParseResult{
		{FilePath: "src/a.ts", Entities: []*models.Entity{
			fileEnt("file_a", "src/a.ts"),
			importEntity("imp1", "src/a.ts", "./b", []string{"helper"}),
		}},
		{FilePath: "src/b.ts", Entities: []*models.Entity{
			fileEnt("file_b", "src/b.ts"),
			{ID: "fn_helper", Kind: models.EntityFunction, Name: "helper", FilePath: "src/b.ts"},
		}},
	}

	result := Enrich("proj", sourceFiles, parsed, nil)
	var usesFound bool
	for _, rel := range result.Relationships {
		if rel.Kind == models.RelUses && rel.SourceID == "imp1" && rel.TargetID == "fn_helper" {
			usesFound = true
		}
	}
	assert.True(t, usesFound, "expected a USES edge from the import to the helper function")
}

func TestEnrich_UnresolvableModuleProducesNoRelationship(t *testing.T) {
	sourceFiles := []models.SourceFile{{Path: "src/a.ts", Content: "import 'left-pad'"}}
	parsed := []*models.ParseResult{
		{FilePath: "src/a.ts", Entities: []*models.Entity{
			fileEnt("file_a", "src/a.ts"),
			importEntity("imp1", "src/a.ts", "left-pad", nil),
		}},
	}

	result := Enrich("proj", sourceFiles, parsed, nil)
	assert.Empty(t, result.Relationships)
}

func TestEnrich_PythonImportsAreNotResolved(t *testing.T) {
	sourceFiles := []models.SourceFile{{Path: "a.py", Content: "import b"}}
	parsed := []*models.ParseResult{
		{FilePath: "a.py", Entities: []*models.Entity{
			fileEnt("file_a", "a.py"),
			{ID: "imp1", Kind: models.EntityImport, FilePath: "a.py", Language: models.LanguagePython,
				Metadata: map[string]any{"module": "b"}},
		}},
	}

	result := Enrich("proj", sourceFiles, parsed, nil)
	assert.Empty(t, result.Relationships)
}

func TestEnrich_DuplicateImportsDeduped(t *testing.T) {
	sourceFiles := []models.SourceFile{
		{Path: "src/a.ts", Content: "import './b'; import './b'"},
		{Path: "src/b.ts", Content: "export const x = 1"},
	}
	parsed := []*models.ParseResult{
		{FilePath: "src/a.ts", Entities: []*models.Entity{
			fileEnt("file_a", "src/a.ts"),
			importEntity("imp1", "src/a.ts", "./b", nil),
			importEntity("imp2", "src/a.ts", "./b", nil),
		}},
		{FilePath: "src/b.ts", Entities: []*models.Entity{fileEnt("file_b", "src/b.ts")}},
	}

	result := Enrich("proj", sourceFiles, parsed, nil)
	assert.Len(t, result.Relationships, 1)
}

func TestTSConfig_ResolveWildcardAlias(t *testing.T) {
	tsconfig := &TSConfig{
		BaseURL: "src",
		Paths:   map[string][]string{"@utils/*": {"utils/*"}},
	}
	resolved, ok := tsconfig.Resolve("@utils/format")
	require.True(t, ok)
	assert.Equal(t, "src/utils/format", resolved)
}

func TestTSConfig_ResolveExactAlias(t *testing.T) {
	tsconfig := &TSConfig{BaseURL: "src", Paths: map[string][]string{"app": {"main"}}}
	resolved, ok := tsconfig.Resolve("app")
	require.True(t, ok)
	assert.Equal(t, "src/main", resolved)
}

func TestTSConfig_ResolveNoMatchReturnsFalse(t *testing.T) {
	tsconfig := &TSConfig{Paths: map[string][]string{"@utils/*": {"utils/*"}}}
	_, ok := tsconfig.Resolve("react")
	assert.False(t, ok)
}

func TestTSConfig_ResolveNilReceiverReturnsFalse(t *testing.T) {
	var tsconfig *TSConfig
	_, ok := tsconfig.Resolve("anything")
	assert.False(t, ok)
}

func TestParseTSConfig_ParsesBaseURLAndPaths(t *testing.T) {
	content := []byte(`{"compilerOptions": {"baseUrl": "src", "paths": {"@app/*": ["app/*"]}}}`)
	tsconfig, err := ParseTSConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "src", tsconfig.BaseURL)
	assert.Equal(t, []string{"app/*"}, tsconfig.Paths["@app/*"])
}

func TestParseTSConfig_InvalidJSONErrors(t *testing.T) {
	_, err := ParseTSConfig([]byte("not json"))
	assert.Error(t, err)
}
