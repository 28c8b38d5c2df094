package treesitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codegraph/graphrag/internal/models"
)

func TestTruncateBody_WithinLimitUnchanged(t *testing.T) {
	assert.Equal(t, "short body", truncateBody("short body"))
}

func TestTruncateBody_ExceedsLimitTruncated(t *testing.T) {
	long := strings.Repeat("x", models.MaxBodyChars+50)
	got := truncateBody(long)
	assert.Len(t, got, models.MaxBodyChars)
}

func TestLineCount_Empty(t *testing.T) {
	assert.Equal(t, 1, lineCount(""))
}

func TestLineCount_SingleLineNoTrailingNewline(t *testing.T) {
	assert.Equal(t, 1, lineCount("abc"))
}

func TestLineCount_MultipleLines(t *testing.T) {
	assert.Equal(t, 2, lineCount("a\nb"))
}

func TestRightmostComponent_DottedName(t *testing.T) {
	assert.Equal(t, "save", rightmostComponent("self.repo.save"))
}

func TestRightmostComponent_NoDotsReturnsUnchanged(t *testing.T) {
	assert.Equal(t, "save", rightmostComponent("save"))
}

func TestGetNodeText_NilNodeReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", getNodeText(nil, []byte("anything")))
}
