package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyLines(t *testing.T) {
	code := `x = 1
if x > 0:
    y = 2
for i in range(3):
    print(i)
z = x + 1
`
	actions, err := classifyLines(code)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(actions), 6)

	assert.Equal(t, string(ActionAssign), actions[0])  // x = 1
	assert.Equal(t, string(ActionCondition), actions[1]) // if x > 0:
	assert.Equal(t, string(ActionAssign), actions[2])  // y = 2
	assert.Equal(t, string(ActionLoop), actions[3])    // for i in range(3):
	assert.Equal(t, string(ActionExecute), actions[4]) // print(i)
	assert.Equal(t, string(ActionAssign), actions[5])  // z = x + 1
}

func TestClassifyLines_WhileLoop(t *testing.T) {
	code := `i = 0
while i < 3:
    i += 1
`
	actions, err := classifyLines(code)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, string(ActionLoop), actions[1])
	assert.Equal(t, string(ActionAssign), actions[2])
}

func TestClassifyLines_EmptySnippet(t *testing.T) {
	actions, err := classifyLines("")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, string(ActionExecute), actions[0])
}
