package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/config"
	"github.com/codegraph/graphrag/internal/logging"
	"github.com/codegraph/graphrag/internal/models"
)

// fakeStore is a minimal in-memory graph.Store, recording created projects for assertions.
type fakeStore struct {
	mu       sync.Mutex
	projects []*models.Project
}

func (f *fakeStore) CreateProject(ctx context.Context, p *models.Project, entities []*models.Entity, relationships []*models.Relationship) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects = append(f.projects, p)
	return 0, nil
}
func (f *fakeStore) projectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.projects)
}
func (f *fakeStore) firstProject() *models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.projects) == 0 {
		return nil
	}
	return f.projects[0]
}
func (f *fakeStore) UpdateProject(ctx context.Context, p *models.Project) error { return nil }
func (f *fakeStore) DeleteProject(ctx context.Context, projectID string) error { return nil }
func (f *fakeStore) CreateEntities(ctx context.Context, projectID string, entities []*models.Entity) error {
	return nil
}
func (f *fakeStore) CreateRelationships(ctx context.Context, rels []*models.Relationship) (int, error) {
	return 0, nil
}
func (f *fakeStore) FindCallers(ctx context.Context, entityID string) ([]*models.Entity, error) {
	return nil, nil
}
func (f *fakeStore) FindDependencies(ctx context.Context, entityID string) ([]*models.Entity, error) {
	return nil, nil
}
func (f *fakeStore) GetClassHierarchy(ctx context.Context, classID string) (*models.ClassHierarchy, error) {
	return nil, nil
}
func (f *fakeStore) ImpactAnalysis(ctx context.Context, entityID string, maxDepth int) (*models.ImpactResult, error) {
	return nil, nil
}
func (f *fakeStore) GetProjectGraph(ctx context.Context, projectID string, filters models.GraphFilters) (*models.GraphView, error) {
	return nil, nil
}
func (f *fakeStore) GetEntitiesByID(ctx context.Context, ids []string) ([]*models.Entity, error) {
	return nil, nil
}
func (f *fakeStore) EnsureIndexes(ctx context.Context) error { return nil }
func (f *fakeStore) Close(ctx context.Context) error         { return nil }

func testCoordinator(t *testing.T, maxUploadFiles int) (*Coordinator, *fakeStore) {
	t.Helper()
	logger, err := logging.New(logging.Config{Level: logging.ErrorLevel})
	require.NoError(t, err)

	cfg := &config.Config{SessionsDir: t.TempDir()}
	cfg.Upload.MaxUploadFiles = maxUploadFiles
	cfg.Broker.URL = "" // no broker configured, falls back to the in-process worker pool

	store := &fakeStore{}
	coord, err := NewCoordinator(cfg, store, nil, nil, logger)
	require.NoError(t, err)
	t.Cleanup(coord.Close)
	return coord, store
}

func TestUploadProject_RejectsEmptyName(t *testing.T) {
	coord, _ := testCoordinator(t, 10)
	_, err := coord.UploadProject(context.Background(), "", []models.SourceFile{{Path: "a.py", Content: "x"}}, "owner")
	assert.Error(t, err)
}

func TestUploadProject_RejectsNoFiles(t *testing.T) {
	coord, _ := testCoordinator(t, 10)
	_, err := coord.UploadProject(context.Background(), "proj", nil, "owner")
	assert.Error(t, err)
}

func TestUploadProject_RejectsTooManyFiles(t *testing.T) {
	coord, _ := testCoordinator(t, 1)
	_, err := coord.UploadProject(context.Background(), "proj", []models.SourceFile{
		{Path: "a.py", Content: "x"}, {Path: "b.py", Content: "y"},
	}, "owner")
	assert.Error(t, err)
}

func TestUploadProject_CreatesProjectAndSession(t *testing.T) {
	coord, store := testCoordinator(t, 10)
	session, err := coord.UploadProject(context.Background(), "proj", []models.SourceFile{{Path: "a.py", Content: "x"}}, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, session.Status)
	assert.Equal(t, 1, session.TotalFiles)

	require.Eventually(t, func() bool { return store.projectCount() == 1 }, time.Second, 5*time.Millisecond,
		"project should be created once the ingestion job writes it atomically")
	project := store.firstProject()
	assert.Equal(t, "proj", project.Name)
	assert.Equal(t, "owner-1", project.OwnerID)
	assert.Equal(t, models.ProjectActive, project.Status)

	loaded, err := coord.GetSession(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.ProjectID, loaded.ProjectID)
}

func TestUploadLocalPath_WalksDirectoryAndUploads(t *testing.T) {
	coord, store := testCoordinator(t, 10)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("x = 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	session, err := coord.UploadLocalPath(context.Background(), "local-proj", dir, "owner-2")
	require.NoError(t, err)
	assert.Equal(t, 1, session.TotalFiles)
	require.Eventually(t, func() bool { return store.projectCount() == 1 }, time.Second, 5*time.Millisecond,
		"project should be created once the ingestion job writes it atomically")
}

func TestUploadLocalPath_NonexistentPathErrors(t *testing.T) {
	coord, _ := testCoordinator(t, 10)
	_, err := coord.UploadLocalPath(context.Background(), "proj", "/does/not/exist", "owner")
	assert.Error(t, err)
}
