package treesitter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codegraph/graphrag/internal/models"
)

// assemble turns one language walker's raw extraction into a *models.ParseResult: it assigns
// deterministic entity ids, disambiguates overloaded functions, synthesizes the file entity and
// its DEFINES edges, and resolves whatever CALLS/EXTENDS/IMPORTS edges can be
// determined from this file alone. Call targets that name a symbol this file doesn't define are
// left for the cross-file linking pass in internal/enrichment, which has the full project index.
func assemble(projectID, filePath string, lang models.Language, code []byte, ex extraction) *models.ParseResult {
	result := &models.ParseResult{FilePath: filePath}

	fileID := BuildEntityID(projectID, models.EntityFile, filepath.Base(filePath), 1, filePath)
	fileEntity := &models.Entity{
		ID: fileID, ProjectID: projectID, Kind: models.EntityFile, Name: filepath.Base(filePath),
		FilePath: filePath, StartLine: 1, EndLine: lineCount(string(code)), Language: lang,
	}
	result.Entities = append(result.Entities, fileEntity)

	disambiguateOverloads(ex.Functions)

	byName := make(map[string]string) // local symbol name -> entity id, for same-file CALLS/EXTENDS resolution
	funcEntities := make([]*models.Entity, 0, len(ex.Functions))

	for _, fn := range ex.Functions {
		id := BuildEntityID(projectID, models.EntityFunction, fn.Name, fn.StartLine, fn.FilePath)
		meta := map[string]any{"called_names": fn.CalledNames}
		if fn.IsAsync {
			meta["is_async"] = true
		}
		if fn.IsGenerator {
			meta["is_generator"] = true
		}
		if len(fn.Decorators) > 0 {
			meta["decorators"] = fn.Decorators
		}
		if fn.originalName != "" {
			meta["original_name"] = fn.originalName
			meta["is_overloaded"] = true
		}
		entity := &models.Entity{
			ID: id, ProjectID: projectID, Kind: models.EntityFunction, Name: fn.Name, FilePath: fn.FilePath,
			StartLine: fn.StartLine, EndLine: fn.EndLine, Language: fn.Language,
			Signature: fn.Signature, Docstring: fn.Docstring, Body: truncateBody(fn.Body), Metadata: meta,
		}
		result.Entities = append(result.Entities, entity)
		funcEntities = append(funcEntities, entity)
		byName[rightmostComponent(fn.originalNameOr(fn.Name))] = id
		result.Relationships = append(result.Relationships, &models.Relationship{SourceID: fileID, TargetID: id, Kind: models.RelDefines})
	}

	classEntities := make(map[string]*models.Entity, len(ex.Classes))
	for _, cls := range ex.Classes {
		id := BuildEntityID(projectID, models.EntityClass, cls.Name, cls.StartLine, cls.FilePath)
		meta := map[string]any{}
		if len(cls.Bases) > 0 {
			meta["bases"] = cls.Bases
		}
		if len(cls.Methods) > 0 {
			meta["methods"] = cls.Methods
		}
		if len(cls.Decorators) > 0 {
			meta["decorators"] = cls.Decorators
		}
		entity := &models.Entity{
			ID: id, ProjectID: projectID, Kind: models.EntityClass, Name: cls.Name, FilePath: cls.FilePath,
			StartLine: cls.StartLine, EndLine: cls.EndLine, Language: cls.Language,
			Docstring: cls.Docstring, Metadata: meta,
		}
		result.Entities = append(result.Entities, entity)
		classEntities[cls.Name] = entity
		byName[cls.Name] = id
		result.Relationships = append(result.Relationships, &models.Relationship{SourceID: fileID, TargetID: id, Kind: models.RelDefines})
	}

	for _, v := range ex.Variables {
		id := BuildEntityID(projectID, models.EntityVariable, v.Name, v.StartLine, v.FilePath)
		entity := &models.Entity{
			ID: id, ProjectID: projectID, Kind: models.EntityVariable, Name: v.Name, FilePath: v.FilePath,
			StartLine: v.StartLine, EndLine: v.EndLine, Language: v.Language,
		}
		result.Entities = append(result.Entities, entity)
		result.Relationships = append(result.Relationships, &models.Relationship{SourceID: fileID, TargetID: id, Kind: models.RelDefines})
	}

	for _, imp := range ex.Imports {
		id := BuildEntityID(projectID, models.EntityImport, imp.Module, imp.StartLine, imp.FilePath)
		meta := map[string]any{"module": imp.Module}
		if len(imp.Symbols) > 0 {
			meta["symbols"] = imp.Symbols
		}
		if imp.Alias != "" {
			meta["alias"] = imp.Alias
		}
		if imp.IsStar {
			meta["is_star"] = true
		}
		entity := &models.Entity{
			ID: id, ProjectID: projectID, Kind: models.EntityImport, Name: imp.Module, FilePath: imp.FilePath,
			StartLine: imp.StartLine, EndLine: imp.EndLine, Language: imp.Language, Metadata: meta,
		}
		result.Entities = append(result.Entities, entity)
		result.Relationships = append(result.Relationships, &models.Relationship{SourceID: fileID, TargetID: id, Kind: models.RelDefines})
		result.Relationships = append(result.Relationships, &models.Relationship{
			SourceID: fileID, TargetID: ExternalModuleID(imp.Module), Kind: models.RelImports,
		})
	}

	// EXTENDS: every base (superclass or implemented interface) naming a class defined in this
	// same file gets an EXTENDS edge; no IMPLEMENTS edge is emitted. Other bases stay only as
	// names in the class metadata.
	for _, cls := range ex.Classes {
		source := classEntities[cls.Name]
		for _, base := range cls.Bases {
			baseName := rightmostComponent(base)
			if target, ok := classEntities[baseName]; ok && target != source {
				result.Relationships = append(result.Relationships, &models.Relationship{
					SourceID: source.ID, TargetID: target.ID, Kind: models.RelExtends,
				})
			}
		}
	}

	// CALLS: resolve against functions/methods defined in this same file.
	for i, fn := range ex.Functions {
		source := funcEntities[i]
		seen := map[string]bool{}
		for _, called := range fn.CalledNames {
			target := rightmostComponent(called)
			if target == fn.Name || seen[target] {
				continue
			}
			if targetID, ok := byName[target]; ok && targetID != source.ID {
				seen[target] = true
				result.Relationships = append(result.Relationships, &models.Relationship{
					SourceID: source.ID, TargetID: targetID, Kind: models.RelCalls,
				})
			}
		}
	}

	return result
}

// disambiguateOverloads groups functions by name and, for collisions (overloads, or distinct
// nested functions sharing a name), renames every member of the group to a name(t1,t2,...)-
// qualified form, falling back to a _L<line> suffix when parameter types can't distinguish them.
// If that rename still collides with a sibling's (e.g. two overloads recovered with identical
// param types), a second pass appends _L<start_line> to break the tie. The original name is
// preserved on rawFunction.originalName for lookups.
func disambiguateOverloads(funcs []rawFunction) {
	groups := make(map[string][]int)
	for i, fn := range funcs {
		key := fn.FilePath + "\x00" + fn.Name
		groups[key] = append(groups[key], i)
	}
	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		sort.Slice(idxs, func(a, b int) bool { return funcs[idxs[a]].StartLine < funcs[idxs[b]].StartLine })
		seen := make(map[string]bool, len(idxs))
		for _, idx := range idxs {
			fn := &funcs[idx]
			original := fn.Name
			if len(fn.ParamTypes) > 0 && hasNonEmpty(fn.ParamTypes) {
				fn.Name = fmt.Sprintf("%s(%s)", original, strings.Join(fn.ParamTypes, ","))
			} else {
				fn.Name = fmt.Sprintf("%s_L%d", original, fn.StartLine)
			}
			if seen[fn.Name] {
				fn.Name = fmt.Sprintf("%s_L%d", fn.Name, fn.StartLine)
			}
			seen[fn.Name] = true
			fn.originalName = original
		}
	}
}

func hasNonEmpty(ss []string) bool {
	for _, s := range ss {
		if s != "" {
			return true
		}
	}
	return false
}
