package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/catalog"
	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/models"
	"github.com/atenger/gmfc101/internal/storage"
)

const (
	hybridMappingPrefix = "Please note the following name mappings: "

	// DefaultTokenThreshold is the serialized catalog size, in tokens, from which the
	// large-context model is used for episode identification.
	DefaultTokenThreshold = 7000
)

type TokenCounter interface {
	Count(text string) (int, error)
}

// HybridConfig names the models used to pick an episode.
type HybridConfig struct {
	AccurateModel  string
	LargeModel     string
	TokenThreshold int
}

// Hybrid picks the single episode a query is about from its metadata, then answers
// from that episode's full transcript.
type Hybrid struct {
	catalog     Catalog
	transcripts storage.TranscriptStore
	gen         llm.Generator
	tokens      TokenCounter
	composer    *compose.Composer
	cfg         HybridConfig
	logger      *zap.Logger
}

func NewHybrid(
	cat Catalog,
	transcripts storage.TranscriptStore,
	gen llm.Generator,
	tokens TokenCounter,
	composer *compose.Composer,
	cfg HybridConfig,
	logger *zap.Logger,
) *Hybrid {
	if cfg.AccurateModel == "" {
		cfg.AccurateModel = "gpt-4"
	}
	if cfg.LargeModel == "" {
		cfg.LargeModel = "gpt-4-turbo"
	}
	if cfg.TokenThreshold <= 0 {
		cfg.TokenThreshold = DefaultTokenThreshold
	}
	return &Hybrid{
		catalog:     cat,
		transcripts: transcripts,
		gen:         gen,
		tokens:      tokens,
		composer:    composer,
		cfg:         cfg,
		logger:      logger,
	}
}

// identityFields is what the model sees when choosing an episode.
type identityFields struct {
	ID        string   `json:"episode"`
	Title     string   `json:"title"`
	Series    string   `json:"series"`
	Hosts     []string `json:"hosts"`
	AiredDate string   `json:"aired_date"`
}

func (h *Hybrid) HandleQuery(ctx context.Context, q Query) string {
	ids := h.identify(ctx, q.Text)
	fullText := h.transcriptContext(ctx, ids)

	reply, err := h.composer.Compose(ctx, compose.Request{
		Params: compose.Params{
			Kind:     compose.KindTranscript,
			UserName: q.UserName,
			Depth:    q.Depth,
			Evidence: fullText,
			Summary:  q.Summary,
		},
		History:     q.History,
		Query:       q.Text,
		Temperature: replyTemperature,
	})
	if err != nil {
		h.logger.Error("Hybrid reply failed", zap.Error(err))
		return apology(q.UserName)
	}
	return reply
}

// identify returns the episode ids the model considers relevant, most recent first.
// Any failure yields no ids.
func (h *Hybrid) identify(ctx context.Context, query string) []string {
	sel := h.catalog.Filter(query)

	entries := make([]identityFields, len(sel.Episodes))
	for i, ep := range sel.Episodes {
		entries[i] = identityFields{
			ID:        ep.ID,
			Title:     ep.Title,
			Series:    ep.Series,
			Hosts:     ep.Hosts,
			AiredDate: ep.AiredDate,
		}
	}
	serialized, err := marshalJSON(entries)
	if err != nil {
		h.logger.Error("Failed to serialize candidate episodes", zap.Error(err))
		return nil
	}

	model := h.pickModel(serialized)
	prompt, err := compose.BuildIdentificationPrompt(query, serialized,
		mappingLine(hybridMappingPrefix, catalog.NameMappings(query, sel.MentionedHosts)))
	if err != nil {
		h.logger.Error("Failed to build identification prompt", zap.Error(err))
		return nil
	}

	resp, err := h.gen.Generate(ctx, llm.Request{
		Model:       model,
		Messages:    []llm.Message{{Role: "system", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		h.logger.Error("Episode identification failed", zap.Error(err))
		return nil
	}

	ids, err := parseEpisodeIDs(resp)
	if err != nil {
		h.logger.Error("Unusable episode identification response",
			zap.Error(err),
			zap.String("response", resp))
		return nil
	}
	h.logger.Debug("Episodes identified", zap.Strings("episode_ids", ids), zap.String("model", model))
	return ids
}

func (h *Hybrid) pickModel(serialized string) string {
	count, err := h.tokens.Count(serialized)
	if err != nil {
		h.logger.Warn("Token count failed, using large model", zap.Error(err))
		return h.cfg.LargeModel
	}
	if count < h.cfg.TokenThreshold {
		return h.cfg.AccurateModel
	}
	return h.cfg.LargeModel
}

// parseEpisodeIDs accepts only {"episode_ids": [...]}. Non-string entries are skipped.
func parseEpisodeIDs(resp string) ([]string, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp)), &payload); err != nil {
		return nil, fmt.Errorf("decode episode ids: %w", err)
	}
	raw, ok := payload["episode_ids"]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("episode_ids is %T, not a list", raw)
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

// transcriptContext renders the first identified episode's metadata and full
// transcript. It returns "" when nothing usable was identified.
func (h *Hybrid) transcriptContext(ctx context.Context, ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	id := ids[0]
	log := h.logger.With(zap.String("episode", id))

	ep, ok := h.catalog.Episode(id)
	if !ok {
		log.Error("Identified episode is not in the catalog")
		return ""
	}
	if ep.TranscriptPath == "" {
		log.Error("Identified episode has no transcript path")
		return ""
	}

	doc, err := h.transcripts.LoadTranscript(ctx, ep.TranscriptPath)
	if err != nil {
		log.Error("Failed to load transcript", zap.Error(err))
		return ""
	}
	alt, err := doc.Primary()
	if err != nil {
		log.Error("Transcript has unexpected structure", zap.Error(err))
		return ""
	}
	return episodeHeader(ep) + strings.TrimSpace(alt.Transcript)
}

func episodeHeader(ep models.Episode) string {
	hosts := "N/A"
	if len(ep.Hosts) > 0 {
		hosts = strings.Join(ep.Hosts, ", ")
	}
	return "EPISODE METADATA:\n" +
		"Series: " + ep.Series + "\n" +
		"Episode: " + ep.ID + "\n" +
		"Title: " + ep.Title + "\n" +
		"Hosts: " + hosts + "\n" +
		"Aired Date: " + ep.AiredDate + "\n" +
		"YouTube URL: " + ep.VideoURL + "\n" +
		"\nTRANSCRIPT:\n"
}
