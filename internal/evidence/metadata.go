package evidence

import (
	"context"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/catalog"
	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/models"
)

const metadataMappingPrefix = "When answering, use these name mappings: "

// Metadata answers from catalog entries alone.
type Metadata struct {
	catalog  Catalog
	composer *compose.Composer
	logger   *zap.Logger
}

func NewMetadata(cat Catalog, composer *compose.Composer, logger *zap.Logger) *Metadata {
	return &Metadata{catalog: cat, composer: composer, logger: logger}
}

func (m *Metadata) HandleQuery(ctx context.Context, q Query) string {
	sel := m.catalog.Filter(q.Text)

	entries := make([]models.PromptEpisode, len(sel.Episodes))
	for i, ep := range sel.Episodes {
		entries[i] = ep.ForPrompt()
	}
	serialized, err := marshalJSON(entries)
	if err != nil {
		m.logger.Error("Failed to serialize metadata context", zap.Error(err))
		return apology(q.UserName)
	}

	m.logger.Debug("Metadata context selected",
		zap.Int("episodes", len(entries)),
		zap.Bool("matched", sel.Matched),
		zap.Strings("hosts", sel.MentionedHosts))

	reply, err := m.composer.Compose(ctx, compose.Request{
		Params: compose.Params{
			Kind:         compose.KindMetadata,
			UserName:     q.UserName,
			Depth:        q.Depth,
			Evidence:     serialized,
			NameMappings: mappingLine(metadataMappingPrefix, catalog.NameMappings(q.Text, sel.MentionedHosts)),
			Summary:      q.Summary,
		},
		History:     q.History,
		Query:       q.Text,
		Temperature: metadataTemperature,
	})
	if err != nil {
		m.logger.Error("Metadata reply failed", zap.Error(err))
		return apology(q.UserName)
	}
	return reply
}
