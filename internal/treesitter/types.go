package treesitter

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/codegraph/graphrag/internal/models"
)

// BuildEntityID returns a deterministic id: a pure function of (projectID, kind, sanitized
// name, startLine, stable_hash(filePath)). Two parses over identical input always produce the
// same id, which is how re-ingestion reattaches entities instead of duplicating them.
func BuildEntityID(projectID string, kind models.EntityKind, name string, startLine int, filePath string) string {
	normalized := strings.ReplaceAll(filePath, "\\", "/")
	sum := sha1.Sum([]byte(normalized))
	pathHash := hex.EncodeToString(sum[:])[:10]
	return fmt.Sprintf("%s_%s_%s_%d_%s", projectID, kind, sanitizeName(name), startLine, pathHash)
}

// sanitizeName keeps only alphanumerics, underscore and hyphen, bounded to 80 characters, so
// IDs stay filesystem- and Cypher-identifier-safe regardless of the source symbol's spelling.
func sanitizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
		if sb.Len() >= 80 {
			break
		}
	}
	return sb.String()
}

// ExternalModuleID returns the synthetic id for an IMPORTS target that isn't an internal file.
func ExternalModuleID(module string) string {
	return models.ExternalModulePrefix + module
}

// rawFunction is the extractor's working representation of a function/method before ids and
// overload disambiguation are applied.
type rawFunction struct {
	Name        string
	FilePath    string
	StartLine   int
	EndLine     int
	Language    models.Language
	Signature   string
	Docstring   string
	Body        string
	ParamTypes  []string // recoverable positional parameter types, if any
	IsAsync     bool
	IsGenerator bool
	Decorators  []string
	CalledNames []string // raw callee names found in the function body, resolved in a later pass
	originalName string // set by disambiguateOverloads when Name was rewritten for a collision
}

// originalNameOr returns originalName when this function was renamed for an overload collision,
// otherwise name (the function's own, unrenamed Name).
func (f rawFunction) originalNameOr(name string) string {
	if f.originalName != "" {
		return f.originalName
	}
	return name
}

// rawClass is the extractor's working representation of a class before ids are assigned.
type rawClass struct {
	Name       string
	FilePath   string
	StartLine  int
	EndLine    int
	Language   models.Language
	Bases      []string
	Methods    []string
	Decorators []string
	Docstring  string
}

// rawVariable is a module- or class-scope variable.
type rawVariable struct {
	Name      string
	FilePath  string
	StartLine int
	EndLine   int
	Language  models.Language
}

// rawImport is one import statement/declaration.
type rawImport struct {
	Module      string
	Symbols     []string // named symbols imported, if any
	Alias       string
	IsStar      bool
	FilePath    string
	StartLine   int
	EndLine     int
	Language    models.Language
}

// extraction is what a per-language walker produces before the shared passes (entity ID
// assignment, overload disambiguation, call-edge resolution) run over it.
type extraction struct {
	Functions []rawFunction
	Classes   []rawClass
	Variables []rawVariable
	Imports   []rawImport
}
