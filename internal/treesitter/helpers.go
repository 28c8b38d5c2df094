package treesitter

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codegraph/graphrag/internal/models"
)

// getNodeText extracts text from a node using byte offsets.
func getNodeText(node *sitter.Node, code []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if int(end) > len(code) {
		end = uint(len(code))
	}
	return string(code[start:end])
}

// findParentOfKind walks up from node looking for the nearest ancestor matching any of kinds.
func findParentOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	current := node.Parent()
	for current != nil {
		k := current.Kind()
		for _, want := range kinds {
			if k == want {
				return current
			}
		}
		current = current.Parent()
	}
	return nil
}

// truncateBody bounds s to models.MaxBodyChars so stored entity bodies stay a predictable size.
func truncateBody(s string) string {
	if len(s) <= models.MaxBodyChars {
		return s
	}
	return s[:models.MaxBodyChars]
}

// lineCount returns the 1-based number of lines in content, minimum 1.
func lineCount(content string) int {
	if content == "" {
		return 1
	}
	n := strings.Count(content, "\n") + 1
	if !strings.HasSuffix(content, "\n") {
		return n
	}
	return n - 1 // a trailing newline ends the last line rather than starting an empty one
}

// rightmostComponent returns the last dotted/attribute component of a dotted name, e.g.
// "self.repo.save" -> "save", used when resolving CALLS targets via attribute access.
func rightmostComponent(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
