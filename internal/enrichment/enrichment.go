// Package enrichment runs the project-wide pass between per-file parsing and the graph write:
// it guarantees every input file produced a file entity, and resolves JS/TS imports that the
// Parser could only leave as a dangling external-module reference into real file→file and
// import→symbol edges when the target lives inside the same project.
package enrichment

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/treesitter"
)

// candidateExtensions mirrors the resolution order a Node/TS module resolver tries when an
// import specifier omits its extension: try the bare path, then each extension, then each
// extension under an index file.
var candidateExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py"}

// Result is the enrichment pass's output: new entities synthesized to guarantee file coverage,
// plus the cross-file relationships resolved from import metadata.
type Result struct {
	Entities      []*models.Entity
	Relationships []*models.Relationship
}

// Enrich guarantees a file entity exists for every source file and resolves JS/TS imports
// against the project's own files. parsed is mutated in place: a missing file entity is appended
// directly onto the file's ParseResult (or onto a new ParseResult local to this call when parsed
// has none for that path) and is also returned in Result.Entities.
func Enrich(projectID string, sourceFiles []models.SourceFile, parsed []*models.ParseResult, tsconfig *TSConfig) Result {
	byPath := make(map[string]*models.ParseResult, len(parsed))
	for _, r := range parsed {
		byPath[r.FilePath] = r
	}

	var synthesized []*models.Entity
	for _, sf := range sourceFiles {
		r, ok := byPath[sf.Path]
		if !ok {
			r = &models.ParseResult{FilePath: sf.Path}
			parsed = append(parsed, r)
			byPath[sf.Path] = r
		}
		if hasFileEntity(r.Entities) {
			continue
		}
		entity := synthesizeFileEntity(projectID, sf)
		r.Entities = append(r.Entities, entity)
		synthesized = append(synthesized, entity)
	}

	fileIndex, symbolIndex := buildIndexes(parsed)
	rels := resolveImports(parsed, fileIndex, symbolIndex, tsconfig)

	return Result{Entities: synthesized, Relationships: rels}
}

func hasFileEntity(entities []*models.Entity) bool {
	for _, e := range entities {
		if e.Kind == models.EntityFile {
			return true
		}
	}
	return false
}

func synthesizeFileEntity(projectID string, sf models.SourceFile) *models.Entity {
	lines := strings.Count(sf.Content, "\n") + 1
	if strings.HasSuffix(sf.Content, "\n") {
		lines--
	}
	if sf.Content == "" {
		lines = 1
	}
	id := treesitter.BuildEntityID(projectID, models.EntityFile, filepath.Base(sf.Path), 1, sf.Path)
	return &models.Entity{
		ID: id, ProjectID: projectID, Kind: models.EntityFile, Name: filepath.Base(sf.Path),
		FilePath: sf.Path, StartLine: 1, EndLine: lines,
	}
}

// buildIndexes produces a file-path -> file-entity lookup and a file-path -> symbol-name ->
// entity lookup (functions and classes only), used to resolve import targets and named imports.
func buildIndexes(parsed []*models.ParseResult) (map[string]*models.Entity, map[string]map[string]*models.Entity) {
	fileIndex := make(map[string]*models.Entity)
	symbolIndex := make(map[string]map[string]*models.Entity)
	for _, r := range parsed {
		for _, e := range r.Entities {
			switch e.Kind {
			case models.EntityFile:
				fileIndex[e.FilePath] = e
			case models.EntityFunction, models.EntityClass:
				if symbolIndex[e.FilePath] == nil {
					symbolIndex[e.FilePath] = make(map[string]*models.Entity)
				}
				symbolIndex[e.FilePath][e.Name] = e
			}
		}
	}
	return fileIndex, symbolIndex
}

func resolveImports(parsed []*models.ParseResult, fileIndex map[string]*models.Entity, symbolIndex map[string]map[string]*models.Entity, tsconfig *TSConfig) []*models.Relationship {
	seen := make(map[string]bool)
	var rels []*models.Relationship

	add := func(source, target string, kind models.RelationshipKind, meta map[string]any) {
		key := source + "|" + target + "|" + string(kind)
		if seen[key] {
			return
		}
		seen[key] = true
		rels = append(rels, &models.Relationship{SourceID: source, TargetID: target, Kind: kind, Metadata: meta})
	}

	for _, r := range parsed {
		for _, e := range r.Entities {
			if e.Kind != models.EntityImport {
				continue
			}
			if e.Language != models.LanguageJavaScript && e.Language != models.LanguageTypeScript {
				continue
			}
			module, _ := e.Metadata["module"].(string)
			if module == "" {
				continue
			}
			target, ok := resolveModule(e.FilePath, module, fileIndex, tsconfig)
			if !ok {
				continue
			}
			sourceFile, ok := fileIndex[e.FilePath]
			if !ok {
				continue
			}
			add(sourceFile.ID, target.ID, models.RelImports, map[string]any{
				"resolution": "file_match", "resolved_from_module": module,
			})

			symbols, _ := e.Metadata["symbols"].([]string)
			for _, name := range symbols {
				if sym, ok := symbolIndex[target.FilePath][name]; ok {
					add(e.ID, sym.ID, models.RelUses, nil)
				}
			}
		}
	}
	return rels
}

// resolveModule maps an import specifier to an internal file entity by trying, in order:
// relative-path resolution, tsconfig path aliases, and a unique-basename-stem fallback.
func resolveModule(fromFile, module string, fileIndex map[string]*models.Entity, tsconfig *TSConfig) (*models.Entity, bool) {
	if strings.HasPrefix(module, ".") {
		base := path.Join(path.Dir(filepath.ToSlash(fromFile)), module)
		if e, ok := tryExtensions(base, fileIndex); ok {
			return e, true
		}
	}

	if resolved, ok := tsconfig.Resolve(module); ok {
		if e, ok := tryExtensions(resolved, fileIndex); ok {
			return e, true
		}
	}

	stem := strings.TrimSuffix(path.Base(module), path.Ext(module))
	var match *models.Entity
	count := 0
	for p, e := range fileIndex {
		base := filepath.Base(p)
		if strings.TrimSuffix(base, filepath.Ext(base)) == stem {
			match = e
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return nil, false
}

func tryExtensions(base string, fileIndex map[string]*models.Entity) (*models.Entity, bool) {
	if e, ok := fileIndex[base]; ok {
		return e, true
	}
	for _, ext := range candidateExtensions {
		if e, ok := fileIndex[base+ext]; ok {
			return e, true
		}
	}
	for _, ext := range candidateExtensions {
		if e, ok := fileIndex[path.Join(base, "index"+ext)]; ok {
			return e, true
		}
	}
	return nil, false
}
