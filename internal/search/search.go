// Package search runs semantic similarity queries against the transcript snippet index.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	client "github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/models"
)

const (
	fieldTranscript    = "transcript"
	fieldEpisode       = "episode"
	fieldTitle         = "title"
	fieldSeries        = "series"
	fieldHosts         = "hosts"
	fieldCompanionBlog = "companion_blog"
	fieldAiredDate     = "aired_date"
	fieldVideoURL      = "youtube_url"
)

var outputFields = []string{
	fieldTranscript, fieldEpisode, fieldTitle, fieldSeries,
	fieldHosts, fieldCompanionBlog, fieldAiredDate, fieldVideoURL,
}

type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]models.Match, error)
}

type MilvusConfig struct {
	Address     string
	APIKey      string
	Collection  string
	VectorField string
	Timeout     time.Duration
}

// Milvus searches a collection whose rows carry one transcript snippet each, along with
// the episode metadata it came from.
type Milvus struct {
	client      *client.Client
	collection  string
	vectorField string
	timeout     time.Duration
	logger      *zap.Logger
}

func NewMilvus(ctx context.Context, cfg MilvusConfig, logger *zap.Logger) (*Milvus, error) {
	c, err := client.New(ctx, &client.ClientConfig{
		Address: cfg.Address,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus %s: %w", cfg.Address, err)
	}
	if cfg.VectorField == "" {
		cfg.VectorField = "embedding"
	}
	return &Milvus{
		client:      c,
		collection:  cfg.Collection,
		vectorField: cfg.VectorField,
		timeout:     cfg.Timeout,
		logger:      logger,
	}, nil
}

func (m *Milvus) Search(ctx context.Context, vector []float32, topK int) ([]models.Match, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	opt := client.NewSearchOption(m.collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(m.vectorField).
		WithOutputFields(outputFields...)

	sets, err := m.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("milvus search %s: %w", m.collection, err)
	}
	if len(sets) == 0 {
		return nil, nil
	}

	set := sets[0]
	matches, err := toMatches(set.Scores, set.GetColumn)
	if err != nil {
		return nil, fmt.Errorf("read search result: %w", err)
	}
	m.logger.Debug("Vector search finished",
		zap.String("collection", m.collection),
		zap.Int("matches", len(matches)))
	return matches, nil
}

func (m *Milvus) Close(ctx context.Context) error {
	return m.client.Close(ctx)
}

// toMatches converts one result set into matches. A missing output column leaves the
// corresponding field empty.
func toMatches(scores []float32, columnOf func(string) column.Column) ([]models.Match, error) {
	matches := make([]models.Match, len(scores))
	for i, s := range scores {
		matches[i].Score = float64(s)
	}

	for _, field := range outputFields {
		col := columnOf(field)
		if col == nil {
			continue
		}
		for i := 0; i < col.Len() && i < len(matches); i++ {
			val, err := col.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("field %s row %d: %w", field, i, err)
			}
			assign(&matches[i], field, val)
		}
	}
	return matches, nil
}

func assign(m *models.Match, field, val string) {
	switch field {
	case fieldTranscript:
		m.Text = val
	case fieldEpisode:
		m.EpisodeID = val
	case fieldTitle:
		m.Title = val
	case fieldSeries:
		m.Series = val
	case fieldHosts:
		m.Hosts = splitHosts(val)
	case fieldCompanionBlog:
		m.CompanionBlog = val
	case fieldAiredDate:
		m.AiredDate = val
	case fieldVideoURL:
		m.VideoURL = val
	}
}

func splitHosts(val string) []string {
	var hosts []string
	for _, h := range strings.Split(val, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
