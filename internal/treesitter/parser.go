// Package treesitter parses source files into the entity/relationship graph this system
// indexes, using tree-sitter grammars for Python, JavaScript/TypeScript, and Java.
package treesitter

import (
	"fmt"
	"path/filepath"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/codegraph/graphrag/internal/models"
)

// LanguageParser wraps a tree-sitter parser bound to one grammar.
// IMPORTANT: Always call Close() to prevent memory leaks (CGO requirement).
type LanguageParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	lang     models.Language
}

// NewLanguageParser creates a parser for the given language. Supported: python, javascript,
// typescript, java.
func NewLanguageParser(lang models.Language) (*LanguageParser, error) {
	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create tree-sitter parser")
	}

	var language *sitter.Language
	switch lang {
	case models.LanguageJavaScript:
		language = sitter.NewLanguage(tree_sitter_javascript.Language())
	case models.LanguageTypeScript:
		language = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case models.LanguagePython:
		language = sitter.NewLanguage(tree_sitter_python.Language())
	case models.LanguageJava:
		language = sitter.NewLanguage(tree_sitter_java.Language())
	default:
		parser.Close()
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	if err := parser.SetLanguage(language); err != nil {
		parser.Close()
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	return &LanguageParser{parser: parser, language: language, lang: lang}, nil
}

// Close releases parser resources (REQUIRED - CGO memory management).
func (lp *LanguageParser) Close() {
	if lp.parser != nil {
		lp.parser.Close()
	}
}

// Parse parses source code and returns the syntax tree. Caller must call tree.Close().
func (lp *LanguageParser) Parse(code []byte) (*sitter.Tree, error) {
	tree := lp.parser.Parse(code, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse code")
	}
	return tree, nil
}

// ParseFile parses one file's content into entities and relationships for projectID. langOverride,
// when non-empty, bypasses DetectLanguage (used when a caller already knows the language, e.g.
// from the upload request rather than the file extension).
func ParseFile(projectID, filePath string, content []byte, langOverride models.Language) (*models.ParseResult, error) {
	start := time.Now()

	lang := langOverride
	if lang == "" {
		lang = DetectLanguage(filePath)
	}
	if lang == "" {
		return &models.ParseResult{FilePath: filePath, Errors: []string{fmt.Sprintf("unsupported file type: %s", filePath)}}, nil
	}

	lp, err := NewLanguageParser(lang)
	if err != nil {
		return &models.ParseResult{FilePath: filePath, Errors: []string{err.Error()}}, nil
	}
	defer lp.Close()

	tree, err := lp.Parse(content)
	if err != nil {
		return &models.ParseResult{FilePath: filePath, Errors: []string{err.Error()}}, nil
	}
	defer tree.Close()

	root := tree.RootNode()

	var ex extraction
	switch lang {
	case models.LanguageJavaScript:
		ex = extractJavaScript(filePath, root, content)
	case models.LanguageTypeScript:
		ex = extractTypeScript(filePath, root, content)
	case models.LanguagePython:
		ex = extractPython(filePath, root, content)
	case models.LanguageJava:
		ex = extractJava(filePath, root, content)
	default:
		return &models.ParseResult{FilePath: filePath, Errors: []string{fmt.Sprintf("no extractor for language: %s", lang)}}, nil
	}

	result := assemble(projectID, filePath, lang, content, ex)
	result.ParseDuration = time.Since(start)
	return result, nil
}

// DetectLanguage returns the language inferred from a file extension, or "" if unsupported.
func DetectLanguage(filePath string) models.Language {
	langMap := map[string]models.Language{
		".js": models.LanguageJavaScript, ".jsx": models.LanguageJavaScript,
		".mjs": models.LanguageJavaScript, ".cjs": models.LanguageJavaScript,
		".ts": models.LanguageTypeScript, ".tsx": models.LanguageTypeScript,
		".mts": models.LanguageTypeScript, ".cts": models.LanguageTypeScript,
		".py": models.LanguagePython, ".pyi": models.LanguagePython, ".pyw": models.LanguagePython,
		".java": models.LanguageJava,
	}
	return langMap[filepath.Ext(filePath)]
}
