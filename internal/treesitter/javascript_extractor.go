package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
)

// extractJavaScript walks a JavaScript/JSX AST into a raw extraction.
func extractJavaScript(filePath string, root *sitter.Node, code []byte) extraction {
	return extractJSFamily(filePath, root, code, models.LanguageJavaScript)
}

// extractJSFamily is shared by JavaScript and TypeScript since TS is a syntactic superset for
// the node kinds this walker cares about; TypeScript-only constructs (interfaces, type aliases)
// are handled by the caller after this walk returns.
func extractJSFamily(filePath string, root *sitter.Node, code []byte, lang models.Language) extraction {
	var ex extraction

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}

		switch node.Kind() {
		case "function_declaration":
			if fn, ok := jsFunctionDeclaration(node, code, filePath, lang); ok {
				ex.Functions = append(ex.Functions, fn)
			}
		case "arrow_function", "function_expression":
			if fn, ok := jsArrowFunction(node, code, filePath, lang); ok {
				ex.Functions = append(ex.Functions, fn)
			}
		case "class_declaration":
			ex.Classes = append(ex.Classes, jsClassDeclaration(node, code, filePath, lang))
		case "method_definition":
			if fn, ok := jsMethodDefinition(node, code, filePath, lang); ok {
				ex.Functions = append(ex.Functions, fn)
			}
		case "import_statement":
			if imp, ok := jsImportStatement(node, code, filePath, lang); ok {
				ex.Imports = append(ex.Imports, imp)
			}
		case "lexical_declaration", "variable_declaration":
			if v, ok := jsModuleVariable(node, code, filePath, lang); ok {
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

func jsFunctionDeclaration(node *sitter.Node, code []byte, filePath string, lang models.Language) (rawFunction, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return rawFunction{}, false
	}
	name := getNodeText(nameNode, code)
	paramsNode := node.ChildByFieldName("parameters")
	params := getNodeText(paramsNode, code)

	isAsync := false
	isGenerator := false
	for i := uint(0); i < node.ChildCount(); i++ {
		switch node.Child(i).Kind() {
		case "async":
			isAsync = true
		case "*":
			isGenerator = true
		}
	}

	signature := "function " + name + params
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		signature += ": " + getNodeText(rt, code)
	}

	bodyNode := node.ChildByFieldName("body")
	body := getNodeText(bodyNode, code)

	return rawFunction{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: lang, Signature: signature,
		Body: truncateBody(body), ParamTypes: jsParamTypes(paramsNode, code),
		IsAsync: isAsync, IsGenerator: isGenerator, CalledNames: jsCalledNames(bodyNode, code),
	}, true
}

func jsParamTypes(paramsNode *sitter.Node, code []byte) []string {
	if paramsNode == nil {
		return nil
	}
	var types []string
	for i := uint(0); i < paramsNode.ChildCount(); i++ {
		child := paramsNode.Child(i)
		if tn := child.ChildByFieldName("type"); tn != nil {
			types = append(types, getNodeText(tn, code))
		} else if child.Kind() == "identifier" || child.Kind() == "required_parameter" {
			types = append(types, "")
		}
	}
	return types
}

func jsArrowFunction(node *sitter.Node, code []byte, filePath string, lang models.Language) (rawFunction, bool) {
	parent := node.Parent()
	if parent == nil {
		return rawFunction{}, false
	}

	var name string
	switch parent.Kind() {
	case "variable_declarator":
		if nn := parent.ChildByFieldName("name"); nn != nil {
			name = getNodeText(nn, code)
		}
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil {
			name = getNodeText(left, code)
		}
	case "pair":
		if key := parent.ChildByFieldName("key"); key != nil {
			name = getNodeText(key, code)
		}
	default:
		return rawFunction{}, false
	}

	if name == "" {
		return rawFunction{}, false
	}

	paramsNode := node.ChildByFieldName("parameters")
	params := getNodeText(paramsNode, code)
	isAsync := false
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "async" {
			isAsync = true
		}
	}

	signature := "const " + name + " = " + params + " =>"
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		signature += ": " + getNodeText(rt, code)
	}

	bodyNode := node.ChildByFieldName("body")
	body := getNodeText(bodyNode, code)

	return rawFunction{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: lang, Signature: signature,
		Body: truncateBody(body), ParamTypes: jsParamTypes(paramsNode, code),
		IsAsync: isAsync, CalledNames: jsCalledNames(bodyNode, code),
	}, true
}

func jsMethodDefinition(node *sitter.Node, code []byte, filePath string, lang models.Language) (rawFunction, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return rawFunction{}, false
	}
	methodName := getNodeText(nameNode, code)
	paramsNode := node.ChildByFieldName("parameters")
	params := getNodeText(paramsNode, code)

	className := ""
	if classNode := findParentOfKind(node, "class_declaration", "class"); classNode != nil {
		if cn := classNode.ChildByFieldName("name"); cn != nil {
			className = getNodeText(cn, code)
		}
	}
	name := methodName
	if className != "" {
		name = className + "." + methodName
	}

	signature := methodName + params
	if rt := node.ChildByFieldName("return_type"); rt != nil {
		signature += ": " + getNodeText(rt, code)
	}

	isAsync := false
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "async" {
			isAsync = true
		}
	}

	bodyNode := node.ChildByFieldName("body")
	body := getNodeText(bodyNode, code)

	return rawFunction{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: lang, Signature: signature,
		Body: truncateBody(body), ParamTypes: jsParamTypes(paramsNode, code),
		IsAsync: isAsync, CalledNames: jsCalledNames(bodyNode, code),
	}, true
}

func jsCalledNames(scope *sitter.Node, code []byte) []string {
	if scope == nil {
		return nil
	}
	var names []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "call_expression" {
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

func jsClassDeclaration(node *sitter.Node, code []byte, filePath string, lang models.Language) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)

	var bases []string
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "class_heritage" {
			bases = append(bases, strings.TrimSpace(strings.TrimPrefix(getNodeText(node.Child(i), code), "extends")))
		}
	}

	var methods []string
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		for i := uint(0); i < bodyNode.ChildCount(); i++ {
			child := bodyNode.Child(i)
			if child.Kind() == "method_definition" {
				if mn := child.ChildByFieldName("name"); mn != nil {
					methods = append(methods, getNodeText(mn, code))
				}
			}
		}
	}

	return rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: lang, Bases: bases, Methods: methods,
	}
}

func jsImportStatement(node *sitter.Node, code []byte, filePath string, lang models.Language) (rawImport, bool) {
	sourceNode := node.ChildByFieldName("source")
	if sourceNode == nil {
		return rawImport{}, false
	}
	module := strings.Trim(getNodeText(sourceNode, code), "\"'`")

	var symbols []string
	isStar := false
	alias := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "namespace_import":
			isStar = true
		case "identifier":
			alias = getNodeText(child, code)
		case "named_imports":
			for j := uint(0); j < child.ChildCount(); j++ {
				spec := child.Child(j)
				if spec.Kind() == "import_specifier" {
					if nn := spec.ChildByFieldName("name"); nn != nil {
						symbols = append(symbols, getNodeText(nn, code))
					}
				}
			}
		}
	}

	return rawImport{
		Module: module, Symbols: symbols, Alias: alias, IsStar: isStar, FilePath: filePath,
		StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1, Language: lang,
	}, true
}

func jsModuleVariable(node *sitter.Node, code []byte, filePath string, lang models.Language) (rawVariable, bool) {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "program" {
		return rawVariable{}, false
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "variable_declarator" {
			if nn := child.ChildByFieldName("name"); nn != nil && nn.Kind() == "identifier" {
				if val := child.ChildByFieldName("value"); val != nil {
					k := val.Kind()
					if k == "arrow_function" || k == "function_expression" || k == "function" {
						continue // already captured as a function
					}
				}
				return rawVariable{
					Name: getNodeText(nn, code), FilePath: filePath,
					StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
					Language: lang,
				}, true
			}
		}
	}
	return rawVariable{}, false
}
