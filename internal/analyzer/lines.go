package analyzer

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/treesitter"
)

// classifyLines precomputes a LineAction for every line of code by AST classification, so the
// tracer only needs to override a line's action for call/return events rather than classify
// every step itself.
func classifyLines(code string) ([]string, error) {
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

	lineCount := strings.Count(code, "\n") + 1
	if strings.HasSuffix(code, "\n") {
		lineCount--
	}
	actions := make([]string, lineCount)
	for i := range actions {
		actions[i] = string(ActionExecute)
	}

	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		row := int(n.StartPosition().Row)
		if row < len(actions) {
			switch n.Kind() {
			case "if_statement", "elif_clause", "conditional_expression":
				actions[row] = string(ActionCondition)
			case "for_statement", "while_statement":
				actions[row] = string(ActionLoop)
			case "assignment", "augmented_assignment":
				actions[row] = string(ActionAssign)
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return actions, nil
}
