package treesitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/models"
)

func findAssembled(result *models.ParseResult, kind models.EntityKind, name string) *models.Entity {
	for _, e := range result.Entities {
		if e.Kind == kind && e.Name == name {
			return e
		}
	}
	return nil
}

func TestAssemble_FunctionDefinesEdgeFromFile(t *testing.T) {
	ex := extraction{Functions: []rawFunction{{Name: "add", FilePath: "a.py", StartLine: 1, EndLine: 2, Language: models.LanguagePython}}}
	result := assemble("proj", "a.py", models.LanguagePython, []byte("def add():\n    pass\n"), ex)

	file := findAssembled(result, models.EntityFile, "a.py")
	fn := findAssembled(result, models.EntityFunction, "add")
	require.NotNil(t, file)
	require.NotNil(t, fn)

	var found bool
	for _, r := range result.Relationships {
		if r.Kind == models.RelDefines && r.SourceID == file.ID && r.TargetID == fn.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_SameFileCallResolves(t *testing.T) {
	ex := extraction{Functions: []rawFunction{
		{Name: "helper", FilePath: "a.py", StartLine: 1, EndLine: 2, Language: models.LanguagePython},
		{Name: "caller", FilePath: "a.py", StartLine: 4, EndLine: 5, Language: models.LanguagePython, CalledNames: []string{"helper"}},
	}}
	result := assemble("proj", "a.py", models.LanguagePython, []byte("x\n"), ex)

	helper := findAssembled(result, models.EntityFunction, "helper")
	caller := findAssembled(result, models.EntityFunction, "caller")
	require.NotNil(t, helper)
	require.NotNil(t, caller)

	var found bool
	for _, r := range result.Relationships {
		if r.Kind == models.RelCalls && r.SourceID == caller.ID && r.TargetID == helper.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_CallToUndefinedNameLeftUnresolved(t *testing.T) {
	ex := extraction{Functions: []rawFunction{
		{Name: "caller", FilePath: "a.py", StartLine: 1, EndLine: 2, Language: models.LanguagePython, CalledNames: []string{"external_fn"}},
	}}
	result := assemble("proj", "a.py", models.LanguagePython, []byte("x\n"), ex)

	for _, r := range result.Relationships {
		assert.NotEqual(t, models.RelCalls, r.Kind)
	}
}

func TestAssemble_ClassExtendsSameFileBase(t *testing.T) {
	ex := extraction{Classes: []rawClass{
		{Name: "Base", FilePath: "a.py", StartLine: 1, EndLine: 2, Language: models.LanguagePython},
		{Name: "Derived", FilePath: "a.py", StartLine: 4, EndLine: 6, Language: models.LanguagePython, Bases: []string{"Base"}},
	}}
	result := assemble("proj", "a.py", models.LanguagePython, []byte("x\n"), ex)

	base := findAssembled(result, models.EntityClass, "Base")
	derived := findAssembled(result, models.EntityClass, "Derived")
	require.NotNil(t, base)
	require.NotNil(t, derived)

	var found bool
	for _, r := range result.Relationships {
		if r.Kind == models.RelExtends && r.SourceID == derived.ID && r.TargetID == base.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssemble_ImportProducesDefinesAndExternalImportsEdges(t *testing.T) {
	ex := extraction{Imports: []rawImport{{Module: "os", FilePath: "a.py", StartLine: 1, EndLine: 1, Language: models.LanguagePython}}}
	result := assemble("proj", "a.py", models.LanguagePython, []byte("x\n"), ex)

	file := findAssembled(result, models.EntityFile, "a.py")
	imp := findAssembled(result, models.EntityImport, "os")
	require.NotNil(t, file)
	require.NotNil(t, imp)

	var definesFound, importsFound bool
	for _, r := range result.Relationships {
		if r.Kind == models.RelDefines && r.TargetID == imp.ID {
			definesFound = true
		}
		if r.Kind == models.RelImports && r.TargetID == ExternalModuleID("os") {
			importsFound = true
		}
	}
	assert.True(t, definesFound)
	assert.True(t, importsFound)
}

func TestDisambiguateOverloads_RenamesCollisionsByParamTypes(t *testing.T) {
	funcs := []rawFunction{
		{Name: "add", FilePath: "a.py", StartLine: 1, ParamTypes: []string{"int", "int"}},
		{Name: "add", FilePath: "a.py", StartLine: 5, ParamTypes: []string{"string", "string"}},
	}
	disambiguateOverloads(funcs)

	assert.Equal(t, "add", funcs[0].originalName)
	assert.Equal(t, "add(int,int)", funcs[0].Name)
	assert.Equal(t, "add(string,string)", funcs[1].Name)
}

func TestDisambiguateOverloads_AppendsLineSuffixWhenParamTypeRenameStillCollides(t *testing.T) {
	funcs := []rawFunction{
		{Name: "add", FilePath: "a.py", StartLine: 1, ParamTypes: []string{"int", "int"}},
		{Name: "add", FilePath: "a.py", StartLine: 5, ParamTypes: []string{"int", "int"}},
		{Name: "add", FilePath: "a.py", StartLine: 9, ParamTypes: []string{"int", "int"}},
	}
	disambiguateOverloads(funcs)

	assert.Equal(t, "add(int,int)", funcs[0].Name)
	assert.Equal(t, "add(int,int)_L5", funcs[1].Name)
	assert.Equal(t, "add(int,int)_L9", funcs[2].Name)
	assert.Equal(t, "add", funcs[0].originalName)
	assert.Equal(t, "add", funcs[1].originalName)
	assert.Equal(t, "add", funcs[2].originalName)

	names := map[string]bool{funcs[0].Name: true, funcs[1].Name: true, funcs[2].Name: true}
	assert.Len(t, names, 3, "disambiguated names must be pairwise distinct")
}

func TestDisambiguateOverloads_FallsBackToLineSuffixWithoutParamTypes(t *testing.T) {
	funcs := []rawFunction{
		{Name: "helper", FilePath: "a.py", StartLine: 2},
		{Name: "helper", FilePath: "a.py", StartLine: 9},
	}
	disambiguateOverloads(funcs)

	assert.Equal(t, "helper_L2", funcs[0].Name)
	assert.Equal(t, "helper_L9", funcs[1].Name)
}

func TestDisambiguateOverloads_NoCollisionLeavesNamesUntouched(t *testing.T) {
	funcs := []rawFunction{
		{Name: "add", FilePath: "a.py", StartLine: 1},
		{Name: "sub", FilePath: "a.py", StartLine: 5},
	}
	disambiguateOverloads(funcs)

	assert.Equal(t, "add", funcs[0].Name)
	assert.Equal(t, "sub", funcs[1].Name)
	assert.Empty(t, funcs[0].originalName)
}

func TestDisambiguateOverloads_SameNameDifferentFilesNotCollision(t *testing.T) {
	funcs := []rawFunction{
		{Name: "run", FilePath: "a.py", StartLine: 1},
		{Name: "run", FilePath: "b.py", StartLine: 1},
	}
	disambiguateOverloads(funcs)

	assert.Equal(t, "run", funcs[0].Name)
	assert.Equal(t, "run", funcs[1].Name)
}

func TestHasNonEmpty(t *testing.T) {
	assert.True(t, hasNonEmpty([]string{"", "int"}))
	assert.False(t, hasNonEmpty([]string{"", ""}))
	assert.False(t, hasNonEmpty(nil))
}
