package ingestion

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/models"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	store, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)

	session, err := store.Create("proj-1", 10)
	require.NoError(t, err)
	assert.Equal(t, "proj-1", session.ProjectID)
	assert.Equal(t, 10, session.TotalFiles)
	assert.Equal(t, models.SessionPending, session.Status)

	loaded, err := store.Get(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, loaded.SessionID)
	assert.Equal(t, session.ProjectID, loaded.ProjectID)
}

func TestSessionStore_Update(t *testing.T) {
	store, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)

	session, err := store.Create("proj-1", 5)
	require.NoError(t, err)

	updated, err := store.Update(session.SessionID, func(s *models.Session) {
		s.Status = models.SessionCompleted
		s.FilesProcessed = 5
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, updated.Status)
	assert.Equal(t, 5, updated.FilesProcessed)

	reloaded, err := store.Get(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, reloaded.Status)
}

func TestSessionStore_GetUnknownSessionErrors(t *testing.T) {
	store, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Get("does-not-exist")
	assert.Error(t, err)
}

func TestSessionStore_SaveWritesNoStrayTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSessionStore(dir)
	require.NoError(t, err)

	session, err := store.Create("proj-1", 1)
	require.NoError(t, err)

	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, session.SessionID+".json")}, entries)
}
