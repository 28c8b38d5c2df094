package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codegraph/graphrag/internal/models"
)

// SessionStore persists one JSON file per session_id under a directory, written atomically
// (temp file + rename) so a reader never observes a half-written session.
type SessionStore struct {
	dir      string
	mu       sync.Mutex
	updateMu sync.Mutex // serializes Update's read-modify-write cycles
}

// NewSessionStore ensures dir exists and returns a store rooted there.
func NewSessionStore(dir string) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &SessionStore{dir: dir}, nil
}

func (s *SessionStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// Create starts a new pending session for projectID and persists it.
func (s *SessionStore) Create(projectID string, totalFiles int) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		SessionID:  uuid.NewString(),
		ProjectID:  projectID,
		Status:     models.SessionPending,
		TotalFiles: totalFiles,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get loads a session by id.
func (s *SessionStore) Get(sessionID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// Save writes session atomically: marshal to a temp file in the same directory, then rename.
func (s *SessionStore) Save(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.SessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, session.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(session.SessionID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp session file: %w", err)
	}
	return nil
}

// Update loads session, applies mutate, and saves it back in one critical section.
func (s *SessionStore) Update(sessionID string, mutate func(*models.Session)) (*models.Session, error) {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	mutate(session)
	if err := s.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}
