package ingestion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codegraph/graphrag/internal/embedding"
	"github.com/codegraph/graphrag/internal/enrichment"
	"github.com/codegraph/graphrag/internal/models"
	"github.com/codegraph/graphrag/internal/treesitter"
	"github.com/codegraph/graphrag/internal/vectorstore"
)

const parseWorkers = 8
const parseTimeout = 30 * time.Second

// runJob executes job's ProcessProject pipeline: parse, enrich + write, embed, upsert, finalize.
// Any step's uncaught error sets the session failed with the error appended; the session is
// never left in "processing" once this function returns.
func (c *Coordinator) runJob(ctx context.Context, job ProcessProjectJob) {
	files := fromWireFiles(job.Files)

	if _, err := c.sessions.Update(job.SessionID, func(s *models.Session) { s.Status = models.SessionProcessing }); err != nil {
		c.logger.WithError(err).Error("mark session processing")
		return
	}

	if err := c.processProject(ctx, job, files); err != nil {
		c.failSession(job.SessionID, err)
	}
}

func (c *Coordinator) processProject(ctx context.Context, job ProcessProjectJob, files []models.SourceFile) error {
	sessionID, projectID := job.SessionID, job.ProjectID
	// Step 2: parse every file in parallel.
	parsed, parseErrors := c.parseFilesParallel(ctx, projectID, files)

	filesProcessed := len(files) - countUnparsed(parsed)
	if _, err := c.sessions.Update(sessionID, func(s *models.Session) {
		s.Progress = 0.2
		s.FilesProcessed = filesProcessed
		s.Errors = append(s.Errors, parseErrors...)
	}); err != nil {
		return fmt.Errorf("checkpoint after parse: %w", err)
	}

	// Step 3: enrich, then create the Project with its entities and relationships atomically —
	// counts are already final at this point, so the Project node is written once with the real
	// file_count/entity_count instead of a placeholder that needs a later correction.
	result := enrichment.Enrich(projectID, files, parsed, nil)

	allEntities := result.Entities
	allRelationships := result.Relationships
	for _, r := range parsed {
		allEntities = append(allEntities, r.Entities...)
		allRelationships = append(allRelationships, r.Relationships...)
	}

	project := &models.Project{
		ID: projectID, Name: job.ProjectName, OwnerID: job.OwnerID, CreatedAt: job.CreatedAt,
		FileCount: len(files), EntityCount: len(allEntities), Status: models.ProjectActive,
	}
	dropped, err := c.store.CreateProject(ctx, project, allEntities, allRelationships)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if dropped > 0 {
		c.logger.Warnf("dropped %d relationships with unresolved endpoints", dropped)
	}

	if _, err := c.sessions.Update(sessionID, func(s *models.Session) {
		s.Progress = 0.4
		s.EntitiesExtracted = len(allEntities)
	}); err != nil {
		return fmt.Errorf("checkpoint after write: %w", err)
	}

	// Step 4: embed every entity, batched, progress advancing linearly from 0.4 to 0.7.
	embeddable := filterEmbeddable(allEntities)
	vectors, embedErrors := c.embedEntities(ctx, sessionID, embeddable)

	// Step 5: batch-upsert embeddings.
	if err := c.vectors.EnsureCollection(ctx, projectID); err != nil {
		return fmt.Errorf("ensure vector collection: %w", err)
	}
	var entries []vectorstore.Entry
	for i, e := range embeddable {
		if vectors[i] == nil {
			continue
		}
		entries = append(entries, vectorstore.Entry{
			EntityID: e.ID, ProjectID: projectID, Vector: vectors[i],
			Kind: string(e.Kind), FilePath: e.FilePath, Name: e.Name,
		})
	}
	if len(entries) > 0 {
		if err := c.vectors.BatchStore(ctx, entries); err != nil {
			return fmt.Errorf("batch store embeddings: %w", err)
		}
	}

	if _, err := c.sessions.Update(sessionID, func(s *models.Session) { s.Progress = 0.9 }); err != nil {
		return fmt.Errorf("checkpoint after embedding upsert: %w", err)
	}

	// Step 6: statistics and completion.
	stats := map[string]any{
		"file_count":         len(files),
		"entity_count":       len(allEntities),
		"relationship_count": len(allRelationships) - dropped,
		"embedding_count":    len(entries),
		"error_count":        len(parseErrors) + len(embedErrors),
	}
	_, err = c.sessions.Update(sessionID, func(s *models.Session) {
		s.Status = models.SessionCompleted
		s.Progress = 1.0
		s.Statistics = stats
		s.Errors = append(s.Errors, embedErrors...)
	})
	return err
}

// parseFilesParallel parses files with a bounded worker pool: a buffered results channel, N
// goroutines ranging over a shared work channel, a sync.WaitGroup, and a per-file parse timeout.
func (c *Coordinator) parseFilesParallel(ctx context.Context, projectID string, files []models.SourceFile) ([]*models.ParseResult, []string) {
	work := make(chan models.SourceFile, len(files))
	for _, f := range files {
		work <- f
	}
	close(work)

	results := make(chan *models.ParseResult, parseWorkers)
	var wg sync.WaitGroup
	for w := 0; w < parseWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range work {
				parseCtx, cancel := context.WithTimeout(ctx, parseTimeout)
				done := make(chan *models.ParseResult, 1)
				go func(f models.SourceFile) {
					result, err := treesitter.ParseFile(projectID, f.Path, []byte(f.Content), "")
					if err != nil {
						result = &models.ParseResult{FilePath: f.Path, Errors: []string{err.Error()}}
					}
					done <- result
				}(f)
				var result *models.ParseResult
				select {
				case result = <-done:
				case <-parseCtx.Done():
					result = &models.ParseResult{FilePath: f.Path, Errors: []string{"parse timed out: " + parseCtx.Err().Error()}}
				}
				cancel()
				results <- result
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var parsed []*models.ParseResult
	var errs []string
	for r := range results {
		parsed = append(parsed, r)
		for _, e := range r.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", r.FilePath, e))
		}
	}
	return parsed, errs
}

func countUnparsed(parsed []*models.ParseResult) int {
	failed := 0
	for _, r := range parsed {
		if len(r.Errors) > 0 {
			failed++
		}
	}
	return failed
}

func filterEmbeddable(entities []*models.Entity) []*models.Entity {
	var out []*models.Entity
	for _, e := range entities {
		if e.Kind == models.EntityImport {
			continue
		}
		out = append(out, e)
	}
	return out
}

// embedEntities generates one embedding per entity, batched by the configured embedding batch
// size, reporting progress linearly from 0.4 to 0.7. A per-entity failure is logged and skipped
// rather than aborting the whole job.
func (c *Coordinator) embedEntities(ctx context.Context, sessionID string, entities []*models.Entity) ([][]float32, []string) {
	vectors := make([][]float32, len(entities))
	var errs []string
	batchSize := c.cfg.Embedding.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(entities); start += batchSize {
		end := start + batchSize
		if end > len(entities) {
			end = len(entities)
		}
		for i := start; i < end; i++ {
			text := embedding.TextForEntity(entities[i])
			vector, err := c.embedder.Generate(ctx, text, embedding.TaskDocument, true)
			if err != nil {
				errs = append(errs, fmt.Sprintf("embed %s: %v", entities[i].ID, err))
				continue
			}
			vectors[i] = vector
		}

		progress := 0.4
		if len(entities) > 0 {
			progress = 0.4 + 0.3*float64(end)/float64(len(entities))
		}
		if _, err := c.sessions.Update(sessionID, func(s *models.Session) { s.Progress = progress }); err != nil {
			c.logger.WithError(err).Warn("checkpoint during embedding")
		}
	}
	return vectors, errs
}
