package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/atenger/gmfc101/internal/models"
)

// FileStore reads <dir>/metadata.json and <dir>/transcripts/<ref>.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) LoadEpisodes(_ context.Context) ([]models.Episode, error) {
	path := filepath.Join(s.dir, MetadataFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return decodeEpisodes(f)
}

func (s *FileStore) LoadTranscript(_ context.Context, ref string) (*models.Transcript, error) {
	path, err := s.transcriptPath(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, ref)
		}
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return decodeTranscript(f)
}

// transcriptPath keeps references inside the transcripts directory.
func (s *FileStore) transcriptPath(ref string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(ref))
	if ref == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.dir, TranscriptsSubdir, clean), nil
}
