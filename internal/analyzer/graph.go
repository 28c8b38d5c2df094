package analyzer

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/treesitter"
)

// scopeFrame tracks one lexical scope (module, class, or function) while AnalyzeGraph walks the
// snippet's AST.
type scopeFrame struct {
	kind           string // "module", "class", "func", "method"
	ownID          string
	qualified      string // dotted path, "" for module
	classQualified string // nearest enclosing class's qualified name, "" if none
	locals         map[string]string
}

// AnalyzeGraph runs the DefinitionCollector and EdgeCollector passes over a Python snippet and
// returns its sorted, de-duplicated definition graph.
func AnalyzeGraph(code string) (*GraphResult, error) {
	lp, err := treesitter.NewLanguageParser(models.LanguagePython)
	if err != nil {
		return nil, err
	}
	defer lp.Close()

	tree, err := lp.Parse([]byte(code))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	src := []byte(code)
	c := newCollector(src)
	// Definition pass: fills the class/method/top-level tables so forward references resolve.
	c.walk(tree.RootNode(), scopeFrame{kind: "module", ownID: "module", locals: map[string]string{}})
	// Edge pass: re-walks against the complete tables, rebuilding nodes and edges from scratch.
	c.nodes = c.nodes[:1]
	c.edges = nil
	c.seenEdges = map[string]bool{}
	c.walk(tree.RootNode(), scopeFrame{kind: "module", ownID: "module", locals: map[string]string{}})
	return c.result(), nil
}

type collector struct {
	src            []byte
	nodes          []DefNode
	edges          []DefEdge
	topLevelDefs   map[string]string // short name -> id, module-scope functions and classes
	topLevelClass  map[string]string // short name -> qualified name, module-scope classes only
	methodsByClass map[string]map[string]bool
	importAliases  map[string]string // alias/bound name -> dotted module (or module.symbol) target
	seenEdges      map[string]bool
}

func newCollector(src []byte) *collector {
	return &collector{
		src:            src,
		nodes:          []DefNode{{ID: "module", Kind: "module", Name: "<module>", Line: 1}},
		topLevelDefs:   map[string]string{},
		topLevelClass:  map[string]string{},
		methodsByClass: map[string]map[string]bool{},
		importAliases:  map[string]string{},
		seenEdges:      map[string]bool{},
	}
}

func (c *collector) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(c.src) {
		end = uint(len(c.src))
	}
	return string(c.src[start:end])
}

func (c *collector) line(n *sitter.Node) int { return int(n.StartPosition().Row) + 1 }

func qualify(parentQualified, name string) string {
	if parentQualified == "" {
		return name
	}
	return parentQualified + "." + name
}

// walk processes node within frame, descending into nested scopes with a fresh frame.
func (c *collector) walk(node *sitter.Node, frame scopeFrame) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "function_definition":
		c.defineFunction(node, frame)
		return // child walk happens inside defineFunction with the new frame
	case "class_definition":
		c.defineClass(node, frame)
		return
	case "call":
		c.recordCall(node, frame)
	case "import_statement", "import_from_statement":
		c.recordImport(node, frame)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		c.walk(node.Child(i), frame)
	}
}

func (c *collector) defineFunction(node *sitter.Node, parent scopeFrame) {
	nameNode := node.ChildByFieldName("name")
	name := c.text(nameNode)

	var id, kind, qualified string
	if parent.kind == "class" {
		kind = "method"
		qualified = qualify(parent.qualified, name)
		id = "method:" + qualified
		if c.methodsByClass[parent.qualified] == nil {
			c.methodsByClass[parent.qualified] = map[string]bool{}
		}
		c.methodsByClass[parent.qualified][name] = true
	} else {
		kind = "func"
		qualified = qualify(parent.qualified, name)
		id = "func:" + qualified
	}

	c.nodes = append(c.nodes, DefNode{ID: id, Kind: kind, Name: name, Line: c.line(node)})
	parent.locals[name] = id
	if parent.kind == "module" {
		c.topLevelDefs[name] = id
	}

	child := scopeFrame{
		kind: kind, ownID: id, qualified: qualified,
		classQualified: parent.classQualified, locals: map[string]string{},
	}
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		for i := uint(0); i < bodyNode.ChildCount(); i++ {
			c.walk(bodyNode.Child(i), child)
		}
	}
}

func (c *collector) defineClass(node *sitter.Node, parent scopeFrame) {
	nameNode := node.ChildByFieldName("name")
	name := c.text(nameNode)
	qualified := qualify(parent.qualified, name)
	id := "class:" + qualified

	c.nodes = append(c.nodes, DefNode{ID: id, Kind: "class", Name: name, Line: c.line(node)})
	parent.locals[name] = id
	if parent.kind == "module" {
		c.topLevelDefs[name] = id
		c.topLevelClass[name] = qualified
	}

	if superclasses := node.ChildByFieldName("superclasses"); superclasses != nil {
		for i := uint(0); i < superclasses.ChildCount(); i++ {
			base := superclasses.Child(i)
			if base.Kind() != "identifier" && base.Kind() != "attribute" {
				continue
			}
			target := c.resolveRootReference(base)
			if strings.HasPrefix(target, "external_func:") {
				target = "external_class:" + strings.TrimPrefix(target, "external_func:")
			}
			c.addEdge(id, target, "EXTENDS")
		}
	}

	child := scopeFrame{
		kind: "class", ownID: id, qualified: qualified,
		classQualified: qualified, locals: map[string]string{},
	}
	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		for i := uint(0); i < bodyNode.ChildCount(); i++ {
			c.walk(bodyNode.Child(i), child)
		}
	}
}

func (c *collector) recordCall(node *sitter.Node, frame scopeFrame) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return
	}

	var target string
	switch fn.Kind() {
	case "identifier":
		target = c.resolveName(c.text(fn), frame)
	case "attribute":
		target = c.resolveAttributeCall(fn, frame)
	default:
		return
	}
	c.addEdge(frame.ownID, target, "CALLS")
}

// resolveName implements lexical-scope lookup for a bare Name(...) call, biased toward the
// current class's methods when the call occurs inside a class scope.
func (c *collector) resolveName(name string, frame scopeFrame) string {
	if frame.classQualified != "" && c.methodsByClass[frame.classQualified][name] {
		return "method:" + frame.classQualified + "." + name
	}
	if id, ok := frame.locals[name]; ok {
		return id
	}
	if id, ok := c.topLevelDefs[name]; ok {
		return id
	}
	return "external_func:" + name
}

// resolveAttributeCall handles self.x()/cls.x() binding and Root.Tail(...) dispatch.
func (c *collector) resolveAttributeCall(fn *sitter.Node, frame scopeFrame) string {
	obj := fn.ChildByFieldName("object")
	attrNode := fn.ChildByFieldName("attribute")
	attr := c.text(attrNode)

	if obj != nil && obj.Kind() == "identifier" {
		objName := c.text(obj)
		if objName == "self" || objName == "cls" {
			if frame.classQualified != "" && c.methodsByClass[frame.classQualified][attr] {
				return "method:" + frame.classQualified + "." + attr
			}
			return "external_func:" + attr
		}
		if qualified, ok := c.topLevelClass[objName]; ok {
			return "method:" + qualified + "." + attr
		}
		if module, ok := c.importAliases[objName]; ok {
			return "external_func:" + module + "." + attr
		}
		return "external_func:" + objName + "." + attr
	}

	return "external_func:" + c.text(obj) + "." + attr
}

// resolveRootReference resolves a class-base or similar bare/attribute reference the same way
// Root.Tail dispatch resolves a call's receiver.
func (c *collector) resolveRootReference(node *sitter.Node) string {
	if node.Kind() == "identifier" {
		name := c.text(node)
		if qualified, ok := c.topLevelClass[name]; ok {
			return "class:" + qualified
		}
		if module, ok := c.importAliases[name]; ok {
			return "external_func:" + module
		}
		return "external_func:" + name
	}
	// attribute: treat as Root.Tail
	obj := node.ChildByFieldName("object")
	attr := c.text(node.ChildByFieldName("attribute"))
	if obj != nil && obj.Kind() == "identifier" {
		if module, ok := c.importAliases[c.text(obj)]; ok {
			return "external_func:" + module + "." + attr
		}
		return "external_func:" + c.text(obj) + "." + attr
	}
	return "external_func:" + c.text(node)
}

func (c *collector) recordImport(node *sitter.Node, frame scopeFrame) {
	if node.Kind() == "import_statement" {
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			switch child.Kind() {
			case "dotted_name", "identifier":
				module := c.text(child)
				c.importAliases[firstSegment(module)] = module
				c.addEdge(frame.ownID, "module:"+module, "IMPORTS")
			case "aliased_import":
				moduleNode := child.ChildByFieldName("name")
				aliasNode := child.ChildByFieldName("alias")
				module := c.text(moduleNode)
				c.importAliases[c.text(aliasNode)] = module
				c.addEdge(frame.ownID, "module:"+module, "IMPORTS")
			}
		}
		return
	}

	// import_from_statement
	moduleNode := node.ChildByFieldName("module_name")
	module := c.text(moduleNode)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "dotted_name", "identifier":
			if child == moduleNode {
				continue
			}
			symbol := c.text(child)
			c.importAliases[symbol] = module + "." + symbol
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			symbol := c.text(nameNode)
			c.importAliases[c.text(aliasNode)] = module + "." + symbol
		}
	}
	c.addEdge(frame.ownID, "module:"+module, "IMPORTS")
}

func firstSegment(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

func (c *collector) addEdge(source, target, kind string) {
	key := source + "|" + target + "|" + kind
	if c.seenEdges[key] {
		return
	}
	c.seenEdges[key] = true
	c.edges = append(c.edges, DefEdge{Source: source, Target: target, Kind: kind})
}

func (c *collector) result() *GraphResult {
	sort.Slice(c.nodes, func(i, j int) bool { return c.nodes[i].ID < c.nodes[j].ID })
	sort.Slice(c.edges, func(i, j int) bool {
		a, b := c.edges[i], c.edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Kind < b.Kind
	})
	return &GraphResult{Nodes: c.nodes, Edges: c.edges}
}
