package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRepoHash_NormalizesTrailingGitAndSlash(t *testing.T) {
	a := generateRepoHash("https://github.com/org/repo")
	b := generateRepoHash("https://github.com/org/repo.git")
	c := generateRepoHash("https://github.com/org/repo/")
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
	assert.Len(t, a, 16)
}

func TestGenerateRepoHash_DifferentURLsDiffer(t *testing.T) {
	assert.NotEqual(t, generateRepoHash("https://github.com/org/repo"), generateRepoHash("https://github.com/org/other"))
}

func TestIsValidGitRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, isValidGitRepo(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	assert.True(t, isValidGitRepo(dir))
}

func TestParseRepoURL_HTTPSFormat(t *testing.T) {
	org, repo, err := ParseRepoURL("https://github.com/codegraph/graphrag")
	require.NoError(t, err)
	assert.Equal(t, "codegraph", org)
	assert.Equal(t, "graphrag", repo)
}

func TestParseRepoURL_SSHFormat(t *testing.T) {
	org, repo, err := ParseRepoURL("git@github.com:codegraph/graphrag.git")
	require.NoError(t, err)
	assert.Equal(t, "codegraph", org)
	assert.Equal(t, "graphrag", repo)
}

func TestParseRepoURL_Shorthand(t *testing.T) {
	org, repo, err := ParseRepoURL("codegraph/graphrag")
	require.NoError(t, err)
	assert.Equal(t, "codegraph", org)
	assert.Equal(t, "graphrag", repo)
}

func TestParseRepoURL_InvalidFormat(t *testing.T) {
	_, _, err := ParseRepoURL("not-a-valid-url-at-all/too/many/parts")
	assert.Error(t, err)
}

func TestBuildGitHubURL(t *testing.T) {
	assert.Equal(t, "https://github.com/codegraph/graphrag", BuildGitHubURL("codegraph", "graphrag"))
}
