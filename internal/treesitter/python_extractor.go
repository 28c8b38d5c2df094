package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
)

// extractPython walks a Python AST and produces the raw extraction, deferring id
// assignment and overload disambiguation to the shared assembly pass.
func extractPython(filePath string, root *sitter.Node, code []byte) extraction {
	var ex extraction

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_definition":
			ex.Functions = append(ex.Functions, pythonFunction(node, code, filePath))
		case "class_definition":
			ex.Classes = append(ex.Classes, pythonClass(node, code, filePath))
		case "import_statement", "import_from_statement":
			ex.Imports = append(ex.Imports, pythonImport(node, code, filePath)...)
		case "assignment":
			if v, ok := pythonModuleVariable(node, code, filePath); ok {
				ex.Variables = append(ex.Variables, v)
			}
		}

		for i := uint(0); i < node.ChildCount(); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return ex
}

func pythonFunction(node *sitter.Node, code []byte, filePath string) rawFunction {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)
	if className := findParentOfKind(node, "class_definition"); className != nil {
		if cn := className.ChildByFieldName("name"); cn != nil {
			name = getNodeText(cn, code) + "." + name
		}
	}

	paramsNode := node.ChildByFieldName("parameters")
	params := getNodeText(paramsNode, code)
	returnTypeNode := node.ChildByFieldName("return_type")

	signature := "def " + name + params
	if returnTypeNode != nil {
		signature += " -> " + getNodeText(returnTypeNode, code)
	}

	isAsync := false
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "async" {
			isAsync = true
		}
	}

	decorators := pythonDecorators(node, code)
	bodyNode := node.ChildByFieldName("body")
	body := getNodeText(bodyNode, code)
	docstring := pythonDocstring(bodyNode, code)
	isGenerator := strings.Contains(body, "yield")

	return rawFunction{
		Name:        name,
		FilePath:    filePath,
		StartLine:   int(node.StartPosition().Row) + 1,
		EndLine:     int(node.EndPosition().Row) + 1,
		Language:    models.LanguagePython,
		Signature:   signature,
		Docstring:   docstring,
		Body:        truncateBody(body),
		ParamTypes:  pythonParamTypes(paramsNode, code),
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
		Decorators:  decorators,
		CalledNames: pythonCalledNames(bodyNode, code),
	}
}

func pythonParamTypes(paramsNode *sitter.Node, code []byte) []string {
	if paramsNode == nil {
		return nil
	}
	var types []string
	for i := uint(0); i < paramsNode.NamedChildCount(); i++ {
		child := paramsNode.NamedChild(i)
		if child.Kind() == "typed_parameter" || child.Kind() == "typed_default_parameter" {
			if tn := child.ChildByFieldName("type"); tn != nil {
				types = append(types, getNodeText(tn, code))
				continue
			}
		}
		types = append(types, "")
	}
	return types
}

func pythonDecorators(node *sitter.Node, code []byte) []string {
	var decorators []string
	parent := node.Parent()
	if parent == nil || parent.Kind() != "decorated_definition" {
		return decorators
	}
	for i := uint(0); i < parent.ChildCount(); i++ {
		child := parent.Child(i)
		if child.Kind() == "decorator" {
			decorators = append(decorators, strings.TrimPrefix(getNodeText(child, code), "@"))
		}
	}
	return decorators
}

func pythonDocstring(bodyNode *sitter.Node, code []byte) string {
	if bodyNode == nil || bodyNode.ChildCount() == 0 {
		return ""
	}
	first := bodyNode.Child(0)
	if first.Kind() != "expression_statement" || first.ChildCount() == 0 {
		return ""
	}
	str := first.Child(0)
	if str.Kind() != "string" {
		return ""
	}
	return strings.Trim(getNodeText(str, code), "\"' \t\n")
}

func pythonCalledNames(scope *sitter.Node, code []byte) []string {
	if scope == nil {
		return nil
	}
	var names []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "call" {
			if fn := n.ChildByFieldName("function"); fn != nil {
				names = append(names, getNodeText(fn, code))
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(scope)
	return names
}

func pythonClass(node *sitter.Node, code []byte, filePath string) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)

	var bases []string
	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		for i := uint(0); i < superclasses.ChildCount(); i++ {
			child := superclasses.Child(i)
			if child.Kind() == "identifier" || child.Kind() == "attribute" {
				bases = append(bases, getNodeText(child, code))
			}
		}
	}

	var methods []string
	bodyNode := node.ChildByFieldName("body")
	if bodyNode != nil {
		for i := uint(0); i < bodyNode.ChildCount(); i++ {
			child := bodyNode.Child(i)
			target := child
			if child.Kind() == "decorated_definition" {
				if def := child.ChildByFieldName("definition"); def != nil {
					target = def
				}
			}
			if target.Kind() == "function_definition" {
				if mn := target.ChildByFieldName("name"); mn != nil {
					methods = append(methods, getNodeText(mn, code))
				}
			}
		}
	}

	return rawClass{
		Name:       name,
		FilePath:   filePath,
		StartLine:  int(node.StartPosition().Row) + 1,
		EndLine:    int(node.EndPosition().Row) + 1,
		Language:   models.LanguagePython,
		Bases:      bases,
		Methods:    methods,
		Decorators: pythonDecorators(node, code),
		Docstring:  pythonDocstring(bodyNode, code),
	}
}

func pythonImport(node *sitter.Node, code []byte, filePath string) []rawImport {
	line := int(node.StartPosition().Row) + 1
	endLine := int(node.EndPosition().Row) + 1

	if node.Kind() == "import_statement" {
		var imports []rawImport
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child.Kind() == "dotted_name" || child.Kind() == "identifier" {
				imports = append(imports, rawImport{
					Module: getNodeText(child, code), FilePath: filePath,
					StartLine: line, EndLine: endLine, Language: models.LanguagePython,
				})
			} else if child.Kind() == "aliased_import" {
				moduleNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				imports = append(imports, rawImport{
					Module: getNodeText(moduleNode, code), Alias: getNodeText(aliasNode, code),
					FilePath: filePath, StartLine: line, EndLine: endLine, Language: models.LanguagePython,
				})
			}
		}
		return imports
	}

	// import_from_statement
	moduleNode := node.ChildByFieldName("module_name")
	module := getNodeText(moduleNode, code)
	var symbols []string
	isStar := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "wildcard_import":
			isStar = true
		case "dotted_name", "identifier":
			if child != moduleNode {
				symbols = append(symbols, getNodeText(child, code))
			}
		case "aliased_import":
			if nn := child.ChildByFieldName("name"); nn != nil {
				symbols = append(symbols, getNodeText(nn, code))
			}
		}
	}

	return []rawImport{{
		Module: module, Symbols: symbols, IsStar: isStar,
		FilePath: filePath, StartLine: line, EndLine: endLine, Language: models.LanguagePython,
	}}
}

func pythonModuleVariable(node *sitter.Node, code []byte, filePath string) (rawVariable, bool) {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "expression_statement" {
		return rawVariable{}, false
	}
	grandparent := parent.Parent()
	if grandparent == nil || grandparent.Kind() != "module" {
		return rawVariable{}, false
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return rawVariable{}, false
	}
	return rawVariable{
		Name: getNodeText(left, code), FilePath: filePath,
		StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
		Language: models.LanguagePython,
	}, true
}
