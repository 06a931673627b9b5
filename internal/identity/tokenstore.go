package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StoredSession is what survives between runs.
type StoredSession struct {
	Email string `json:"email"`
	Token string `json:"id_token"`
}

// TokenStore persists the signed-in session.
type TokenStore interface {
	Load() (StoredSession, error)
	Save(StoredSession) error
	Clear() error
}

// FileStore keeps the session as JSON in a file readable only by the owner.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns ErrNoSession when the file does not exist. A file that does
// not decode is removed and also reported as ErrNoSession.
func (s *FileStore) Load() (StoredSession, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return StoredSession{}, ErrNoSession
	}
	if err != nil {
		return StoredSession{}, err
	}
	var stored StoredSession
	if err := json.Unmarshal(data, &stored); err != nil {
		_ = s.Clear()
		return StoredSession{}, fmt.Errorf("%w: unreadable session file: %v", ErrNoSession, err)
	}
	if stored.Token == "" {
		return StoredSession{}, ErrNoSession
	}
	return stored, nil
}

func (s *FileStore) Save(stored StoredSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore keeps the session in process.
type MemoryStore struct {
	mu     sync.Mutex
	stored *StoredSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (StoredSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		return StoredSession{}, ErrNoSession
	}
	return *s.stored, nil
}

func (s *MemoryStore) Save(stored StoredSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = &stored
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = nil
	return nil
}
