package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
)

// extractJava walks a Java AST into a raw extraction. Grounded on the semspec pack's Java
// parser shape (package/import/class/interface/enum/method walker), adapted to the
// tree-sitter/tree-sitter-java grammar already used for the rest of this module's bindings.
func extractJava(filePath string, root *sitter.Node, code []byte) extraction {
	var ex extraction

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "import_declaration":
			if imp, ok := javaImport(child, code, filePath); ok {
				ex.Imports = append(ex.Imports, imp)
			}
		case "class_declaration":
			javaClass(child, code, filePath, &ex)
		case "interface_declaration":
			javaInterface(child, code, filePath, &ex)
		case "enum_declaration":
			ex.Classes = append(ex.Classes, javaEnum(child, code, filePath))
		case "record_declaration":
			ex.Classes = append(ex.Classes, javaRecord(child, code, filePath))
		}
	}
	return ex
}

func javaImport(node *sitter.Node, code []byte, filePath string) (rawImport, bool) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "scoped_identifier" || child.Kind() == "identifier" {
			module := strings.TrimSuffix(getNodeText(child, code), ".*")
			return rawImport{
				Module: module, FilePath: filePath, Language: models.LanguageJava,
				StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
			}, true
		}
	}
	return rawImport{}, false
}

func javaVisibilityDecorators(node *sitter.Node, code []byte) []string {
	var mods []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			m := child.Child(j)
			switch m.Kind() {
			case "marker_annotation", "annotation":
				mods = append(mods, strings.TrimPrefix(getNodeText(m, code), "@"))
			default:
				text := strings.TrimSpace(getNodeText(m, code))
				if text != "" {
					mods = append(mods, text)
				}
			}
		}
	}
	return mods
}

func javaTypeReference(typeNode *sitter.Node, code []byte) string {
	if typeNode == nil {
		return ""
	}
	switch typeNode.Kind() {
	case "generic_type":
		if base := typeNode.ChildByFieldName("type"); base != nil {
			return javaTypeReference(base, code)
		}
	case "array_type":
		if elem := typeNode.ChildByFieldName("element"); elem != nil {
			return javaTypeReference(elem, code)
		}
	}
	return getNodeText(typeNode, code)
}

func javaClass(node *sitter.Node, code []byte, filePath string, ex *extraction) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := getNodeText(nameNode, code)

	var bases []string
	if super := node.ChildByFieldName("superclass"); super != nil {
		if t := javaTypeReference(super.NamedChild(0), code); t != "" {
			bases = append(bases, t)
		}
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		for i := uint(0); i < ifaces.ChildCount(); i++ {
			if t := javaTypeReference(ifaces.Child(i), code); t != "" {
				bases = append(bases, t)
			}
		}
	}

	var methods []string
	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			switch child.Kind() {
			case "method_declaration", "constructor_declaration":
				if fn, ok := javaMethod(child, code, filePath, name); ok {
					methods = append(methods, fn.Name)
					ex.Functions = append(ex.Functions, fn)
				}
			case "field_declaration":
				ex.Variables = append(ex.Variables, javaFields(child, code, filePath)...)
			case "class_declaration":
				javaClass(child, code, filePath, ex)
			case "interface_declaration":
				javaInterface(child, code, filePath, ex)
			}
		}
	}

	ex.Classes = append(ex.Classes, rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageJava,
		Bases: bases, Methods: methods, Decorators: javaVisibilityDecorators(node, code),
	})
}

func javaInterface(node *sitter.Node, code []byte, filePath string, ex *extraction) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := getNodeText(nameNode, code)

	var bases []string
	if extends := node.ChildByFieldName("extends"); extends != nil {
		for i := uint(0); i < extends.ChildCount(); i++ {
			if t := javaTypeReference(extends.Child(i), code); t != "" {
				bases = append(bases, t)
			}
		}
	}

	var methods []string
	if body := node.ChildByFieldName("body"); body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			child := body.Child(i)
			if child.Kind() == "method_declaration" {
				if fn, ok := javaMethod(child, code, filePath, name); ok {
					methods = append(methods, fn.Name)
					ex.Functions = append(ex.Functions, fn)
				}
			}
		}
	}

	ex.Classes = append(ex.Classes, rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageJava, Bases: bases, Methods: methods,
	})
}

func javaEnum(node *sitter.Node, code []byte, filePath string) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)

	var bases []string
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		for i := uint(0); i < ifaces.ChildCount(); i++ {
			if t := javaTypeReference(ifaces.Child(i), code); t != "" {
				bases = append(bases, t)
			}
		}
	}

	return rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageJava, Bases: bases,
	}
}

func javaRecord(node *sitter.Node, code []byte, filePath string) rawClass {
	nameNode := node.ChildByFieldName("name")
	name := getNodeText(nameNode, code)

	var bases []string
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		for i := uint(0); i < ifaces.ChildCount(); i++ {
			if t := javaTypeReference(ifaces.Child(i), code); t != "" {
				bases = append(bases, t)
			}
		}
	}

	return rawClass{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageJava, Bases: bases,
	}
}

func javaMethod(node *sitter.Node, code []byte, filePath, className string) (rawFunction, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return rawFunction{}, false
	}
	methodName := getNodeText(nameNode, code)
	name := methodName
	if className != "" {
		name = className + "." + methodName
	}

	paramsNode := node.ChildByFieldName("parameters")
	signature := methodName + getNodeText(paramsNode, code)
	if rt := node.ChildByFieldName("type"); rt != nil {
		signature += " " + javaTypeReference(rt, code)
	}

	var paramTypes []string
	if paramsNode != nil {
		for i := uint(0); i < paramsNode.ChildCount(); i++ {
			child := paramsNode.Child(i)
			if child.Kind() == "formal_parameter" || child.Kind() == "spread_parameter" {
				paramTypes = append(paramTypes, javaTypeReference(child.ChildByFieldName("type"), code))
			}
		}
	}

	bodyNode := node.ChildByFieldName("body")
	body := getNodeText(bodyNode, code)

	return rawFunction{
		Name: name, FilePath: filePath, StartLine: int(node.StartPosition().Row) + 1,
		EndLine: int(node.EndPosition().Row) + 1, Language: models.LanguageJava, Signature: signature,
		Body: truncateBody(body), ParamTypes: paramTypes,
		Decorators:  javaVisibilityDecorators(node, code),
		CalledNames: javaCalledNames(bodyNode, code),
	}, true
}

func javaCalledNames(scope *sitter.Node, code []byte) []string {
	if scope == nil {
		return nil
	}
	var names []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "method_invocation" {
			if nameNode := n.ChildByFieldName("name"); nameNode != nil {
				if obj := n.ChildByFieldName("object"); obj != nil {
					names = append(names, getNodeText(obj, code)+"."+getNodeText(nameNode, code))
				} else {
					names = append(names, getNodeText(nameNode, code))
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(scope)
	return names
}

func javaFields(node *sitter.Node, code []byte, filePath string) []rawVariable {
	var vars []rawVariable
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		vars = append(vars, rawVariable{
			Name: getNodeText(nameNode, code), FilePath: filePath,
			StartLine: int(node.StartPosition().Row) + 1, EndLine: int(node.EndPosition().Row) + 1,
			Language: models.LanguageJava,
		})
	}
	return vars
}
