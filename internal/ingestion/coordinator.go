package ingestion

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/codegraph/graphrag/internal/config"
	"github.com/codegraph/graphrag/internal/embedding"
	apperrors "github.com/codegraph/graphrag/internal/errors"
	"github.com/codegraph/graphrag/internal/graph"
	"github.com/codegraph/graphrag/internal/logging"
	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/vectorstore"
)

const maxReadableFileSizeBytes = 2 << 20 // 2MB; files larger than this are skipped during a source-control walk

// Coordinator owns project/session lifecycle and orchestrates the parse-enrich-write-embed-index
// pipeline. It is the entry point every upload path (direct upload or source control) funnels
// through.
type Coordinator struct {
	sessions *SessionStore
	store    graph.Store
	embedder *embedding.Client
	vectors  *vectorstore.Store
	cfg      *config.Config
	logger   *logging.Logger
	dispatch dispatcher
}

// NewCoordinator wires a Coordinator and starts its job dispatcher (broker-backed if reachable,
// otherwise an in-process worker pool).
func NewCoordinator(cfg *config.Config, store graph.Store, embedder *embedding.Client, vectors *vectorstore.Store, logger *logging.Logger) (*Coordinator, error) {
	sessions, err := NewSessionStore(cfg.SessionsDir)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{sessions: sessions, store: store, embedder: embedder, vectors: vectors, cfg: cfg, logger: logger}
	c.dispatch = newDispatcher(cfg.Broker.URL, 4, logger, c.runJob)
	return c, nil
}

// Close shuts down the job dispatcher.
func (c *Coordinator) Close() {
	c.dispatch.close()
}

// UploadProject validates name and file count, creates a Session, enqueues a ProcessProject
// job (which creates the Project atomically), and returns the Session immediately.
func (c *Coordinator) UploadProject(ctx context.Context, name string, files []models.SourceFile, ownerID string) (*models.Session, error) {
	if name == "" {
		return nil, apperrors.InvalidRequest("project name is required")
	}
	if len(files) == 0 {
		return nil, apperrors.InvalidRequest("at least one file is required")
	}
	if len(files) > c.cfg.Upload.MaxUploadFiles {
		return nil, apperrors.FileSizeExceeded(fmt.Sprintf("upload exceeds max file count: %d > %d", len(files), c.cfg.Upload.MaxUploadFiles))
	}

	projectID := uuid.NewString()
	createdAt := time.Now()

	session, err := c.sessions.Create(projectID, len(files))
	if err != nil {
		return nil, err
	}

	job := ProcessProjectJob{
		SessionID: session.SessionID, ProjectID: projectID, ProjectName: name,
		OwnerID: ownerID, CreatedAt: createdAt, Files: toWireFiles(files),
	}
	if err := c.dispatch.enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue ingestion job: %w", err)
	}
	return session, nil
}

// UploadLocalPath walks a directory already present on the machine the coordinator runs on (the
// typical MCP deployment, where the caller and the server share a filesystem) and forwards the
// collected files to the standard UploadProject path. Unlike UploadFromSourceControl it has no
// clone step, so the walk happens synchronously before the session is created.
func (c *Coordinator) UploadLocalPath(ctx context.Context, name, path, ownerID string) (*models.Session, error) {
	files, err := c.collectReadableFiles(path)
	if err != nil {
		return nil, apperrors.InvalidRequestf("could not read %s: %v", path, err)
	}
	return c.UploadProject(ctx, name, files, ownerID)
}

// UploadFromSourceControl validates url, creates a processing Session, and spawns a background
// job that clones, walks, and forwards the collected files to the standard ProcessProject path.
func (c *Coordinator) UploadFromSourceControl(ctx context.Context, name, url, ownerID, branch string) (*models.Session, error) {
	if name == "" {
		return nil, apperrors.InvalidRequest("project name is required")
	}
	org, repo, err := ParseRepoURL(url)
	if err != nil {
		return nil, apperrors.InvalidRequestf("invalid repository url: %v", err)
	}
	fullURL := BuildGitHubURL(org, repo)

	projectID := uuid.NewString()
	createdAt := time.Now()

	session, err := c.sessions.Create(projectID, 0)
	if err != nil {
		return nil, err
	}
	if _, err := c.sessions.Update(session.SessionID, func(s *models.Session) { s.Status = models.SessionProcessing }); err != nil {
		return nil, err
	}

	go c.runSourceControlJob(session.SessionID, projectID, name, ownerID, createdAt, fullURL, branch)
	return session, nil
}

func (c *Coordinator) runSourceControlJob(sessionID, projectID, name, ownerID string, createdAt time.Time, url, branch string) {
	ctx := context.Background()

	repoPath, err := c.cloneWithFallback(ctx, url, branch)
	if err != nil {
		c.failSession(sessionID, fmt.Errorf("clone: %w", err))
		return
	}

	files, err := c.collectReadableFiles(repoPath)
	if err != nil {
		c.failSession(sessionID, fmt.Errorf("walk: %w", err))
		return
	}
	if len(files) > c.cfg.Upload.MaxFilesPerProject {
		c.failSession(sessionID, apperrors.FileSizeExceeded(fmt.Sprintf("repository exceeds max file count: %d > %d", len(files), c.cfg.Upload.MaxFilesPerProject)))
		return
	}

	if _, err := c.sessions.Update(sessionID, func(s *models.Session) { s.TotalFiles = len(files) }); err != nil {
		c.logger.WithError(err).Error("update session total_files")
	}

	c.runJob(ctx, ProcessProjectJob{
		SessionID: sessionID, ProjectID: projectID, ProjectName: name,
		OwnerID: ownerID, CreatedAt: createdAt, Files: toWireFiles(files),
	})
}

// cloneWithFallback clones branch, falling back to the repository's default branch on failure,
// per the source-control upload path's documented fallback behavior.
func (c *Coordinator) cloneWithFallback(ctx context.Context, url, branch string) (string, error) {
	if branch != "" {
		path, err := CloneRepositoryWithBranch(ctx, url, branch)
		if err == nil {
			return path, nil
		}
		c.logger.WithError(err).Warnf("clone branch %q failed, falling back to default branch", branch)
	}
	return CloneRepository(ctx, url)
}

// collectReadableFiles walks repoPath (skipping vcs/build/dependency dirs via WalkSourceFiles'
// own filters) and reads each supported file below the size cap as utf-8; non-utf8 or
// oversized files are silently skipped.
func (c *Coordinator) collectReadableFiles(repoPath string) ([]models.SourceFile, error) {
	paths, err := WalkSourceFiles(repoPath)
	if err != nil {
		return nil, err
	}
	var files []models.SourceFile
	for path := range paths {
		content, err := readFileCapped(path, maxReadableFileSizeBytes)
		if err != nil {
			continue
		}
		if !utf8.Valid(content) {
			continue
		}
		relPath, err := relativeTo(repoPath, path)
		if err != nil {
			relPath = path
		}
		files = append(files, models.SourceFile{Path: relPath, Content: string(content)})
	}
	return files, nil
}

// GetSession loads a session by id.
func (c *Coordinator) GetSession(sessionID string) (*models.Session, error) {
	return c.sessions.Get(sessionID)
}

// UpdateSession applies field updates to a session and persists the result.
func (c *Coordinator) UpdateSession(sessionID string, mutate func(*models.Session)) (*models.Session, error) {
	return c.sessions.Update(sessionID, mutate)
}

func (c *Coordinator) failSession(sessionID string, err error) {
	c.logger.WithError(err).Error("ingestion job failed")
	if _, uerr := c.sessions.Update(sessionID, func(s *models.Session) {
		s.Status = models.SessionFailed
		s.Errors = append(s.Errors, err.Error())
	}); uerr != nil {
		c.logger.WithError(uerr).Error("failed to persist session failure")
	}
}

func toWireFiles(files []models.SourceFile) []ingestSourceFile {
	wire := make([]ingestSourceFile, len(files))
	for i, f := range files {
		wire[i] = ingestSourceFile{Path: f.Path, Content: f.Content}
	}
	return wire
}

func fromWireFiles(files []ingestSourceFile) []models.SourceFile {
	out := make([]models.SourceFile, len(files))
	for i, f := range files {
		out[i] = models.SourceFile{Path: f.Path, Content: f.Content}
	}
	return out
}
