package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldSkipDir(t *testing.T) {
	assert.True(t, shouldSkipDir(".git"))
	assert.True(t, shouldSkipDir("node_modules"))
	assert.True(t, shouldSkipDir("vendor"))
	assert.True(t, shouldSkipDir(".venv"))
	assert.False(t, shouldSkipDir("src"))
	assert.False(t, shouldSkipDir("internal"))
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, isSupportedFile("main.py"))
	assert.True(t, isSupportedFile("app.tsx"))
	assert.True(t, isSupportedFile("Main.java"))
	assert.False(t, isSupportedFile("README.md"))
	assert.False(t, isSupportedFile("data.json"))
}

func TestIsSupportedFile_ExcludesGeneratedAndFixtures(t *testing.T) {
	assert.False(t, isSupportedFile("dist/app.min.js"))
	assert.False(t, isSupportedFile("schema.pb.ts"))
	assert.False(t, isSupportedFile("__tests__/fixtures/sample.py"))
}

func TestIsGeneratedFile(t *testing.T) {
	assert.True(t, isGeneratedFile("app.min.js"))
	assert.True(t, isGeneratedFile("proto/service.pb.ts"))
	assert.True(t, isGeneratedFile("/repo/dist/bundle.js"))
	assert.False(t, isGeneratedFile("src/main.go"))
}

func TestIsTestFixture(t *testing.T) {
	assert.True(t, isTestFixture("/repo/test/fixtures/sample.py"))
	assert.True(t, isTestFixture("/repo/__mocks__/thing.js"))
	assert.False(t, isTestFixture("/repo/src/thing.js"))
}

func TestRelativeTo(t *testing.T) {
	rel, err := relativeTo("/repo", "/repo/src/main.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "main.py"), rel)
}

func TestReadFileCapped_WithinLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.py")
	require.NoError(t, os.WriteFile(path, []byte("print(1)"), 0o644))

	data, err := readFileCapped(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(data))
}

func TestReadFileCapped_ExceedsLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.py")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	_, err := readFileCapped(path, 5)
	assert.Error(t, err)
}

func TestWalkSourceFiles_SkipsExcludedDirsAndUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# readme"), 0o644))

	nested := filepath.Join(dir, "node_modules", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "index.js"), []byte("x"), 0o644))

	ch, err := WalkSourceFiles(dir)
	require.NoError(t, err)

	var found []string
	for f := range ch {
		found = append(found, f)
	}
	assert.Equal(t, []string{filepath.Join(dir, "main.py")}, found)
}

func TestCountFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ts"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.min.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	stats, err := CountFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Python)
	assert.Equal(t, 1, stats.TypeScript)
	assert.Equal(t, 0, stats.JavaScript) // c.min.js is generated, excluded from the count
	assert.Equal(t, 1, stats.SkippedGenerated)
}
