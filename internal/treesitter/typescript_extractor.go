package treesitter

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
)

// extractTypeScript extracts entities from TypeScript/TSX, layering interface and type-alias
// declarations on top of the shared JS-family walker since TypeScript's function/class/import
// grammar nodes are a superset of JavaScript's.
func extractTypeScript(filePath string, root *sitter.Node, code []byte) extraction {
	ex := extractJSFamily(filePath, root, code, models.LanguageTypeScript)

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case "interface_declaration":
			ex.Classes = append(ex.Classes, tsInterfaceDeclaration(node, code, filePath))
		case "type_alias_declaration":
			ex.Classes = append(ex.Classes, tsTypeAlias(node, code, filePath))
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return ex
}

// tsInterfaceDeclaration represents an interface as a class so it participates in the graph's
// class hierarchy and EXTENDS/IMPLEMENTS resolution the same way a Python/Java class would.
func tsInterfaceDeclaration(node *sitter.Node, code []byte, filePath string) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)

	var bases []string
	if heritage := node.ChildByFieldName("extends_clause"); heritage != nil {
		for i := uint(0); i < heritage.ChildCount(); i++ {
			child := heritage.Child(i)
			if child.Kind() == "type_identifier" || child.Kind() == "generic_type" {
				bases = append(bases, getNodeText(child, code))
			}
		}
	}

	return rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageTypeScript, Bases: bases,
	}
}

func tsTypeAlias(node *sitter.Node, code []byte, filePath string) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)
	return rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageTypeScript,
	}
}
