package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/atenger/gmfc101/internal/models"
)

const (
	MetadataFile      = "metadata.json"
	TranscriptsSubdir = "transcripts"
)

var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrInvalidRef         = errors.New("invalid transcript reference")
)

// CatalogStore supplies the episode catalog.
type CatalogStore interface {
	LoadEpisodes(ctx context.Context) ([]models.Episode, error)
}

// TranscriptStore supplies transcript documents by their catalog reference.
type TranscriptStore interface {
	LoadTranscript(ctx context.Context, ref string) (*models.Transcript, error)
}

func decodeEpisodes(r io.Reader) ([]models.Episode, error) {
	var episodes []models.Episode
	if err := json.NewDecoder(r).Decode(&episodes); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return episodes, nil
}

func decodeTranscript(r io.Reader) (*models.Transcript, error) {
	var t models.Transcript
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &t, nil
}
