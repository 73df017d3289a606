package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/atenger/gmfc101/internal/models"
)

// MemoryStore holds a catalog and transcripts in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	episodes    []models.Episode
	transcripts map[string]*models.Transcript
}

func NewMemoryStore(episodes []models.Episode) *MemoryStore {
	return &MemoryStore{
		episodes:    episodes,
		transcripts: make(map[string]*models.Transcript),
	}
}

func (s *MemoryStore) LoadEpisodes(ctx context.Context) ([]models.Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Episode, len(s.episodes))
	copy(out, s.episodes)
	return out, nil
}

func (s *MemoryStore) SetEpisodes(episodes []models.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.episodes = episodes
}

func (s *MemoryStore) LoadTranscript(ctx context.Context, ref string) (*models.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, exists := s.transcripts[ref]; exists {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, ref)
}

func (s *MemoryStore) PutTranscript(ref string, t *models.Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[ref] = t
}
