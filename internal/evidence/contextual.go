package evidence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/models"
	"github.com/atenger/gmfc101/internal/search"
	"github.com/atenger/gmfc101/internal/storage"
	"github.com/atenger/gmfc101/internal/transcript"
)

const DefaultTopK = 3

// Contextual answers from transcript passages found by semantic search.
type Contextual struct {
	catalog     Catalog
	transcripts storage.TranscriptStore
	embedder    llm.Embedder
	searcher    search.Searcher
	composer    *compose.Composer
	topK        int
	window      int
	logger      *zap.Logger
}

func NewContextual(
	cat Catalog,
	transcripts storage.TranscriptStore,
	embedder llm.Embedder,
	searcher search.Searcher,
	composer *compose.Composer,
	logger *zap.Logger,
) *Contextual {
	return &Contextual{
		catalog:     cat,
		transcripts: transcripts,
		embedder:    embedder,
		searcher:    searcher,
		composer:    composer,
		topK:        DefaultTopK,
		window:      transcript.DefaultWindow,
		logger:      logger,
	}
}

func (c *Contextual) HandleQuery(ctx context.Context, q Query) string {
	passages, err := c.gather(ctx, q.Text)
	if err != nil {
		c.logger.Error("Failed to gather transcript context", zap.Error(err))
		return apology(q.UserName)
	}

	reply, err := c.composer.Compose(ctx, compose.Request{
		Params: compose.Params{
			Kind:     compose.KindSnippets,
			UserName: q.UserName,
			Depth:    q.Depth,
			Evidence: passages,
			Summary:  q.Summary,
		},
		History:     q.History,
		Query:       q.Text,
		Temperature: replyTemperature,
	})
	if err != nil {
		c.logger.Error("Contextual reply failed", zap.Error(err))
		return apology(q.UserName)
	}
	return reply
}

// gather embeds the query, searches the index and widens every hit into a passage
// block. Hits that cannot be placed in their transcript are dropped.
func (c *Contextual) gather(ctx context.Context, query string) (string, error) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}
	matches, err := c.searcher.Search(ctx, vector, c.topK)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Search returned matches", zap.Int("count", len(matches)))

	blocks := make([]string, len(matches))
	g, gctx := errgroup.WithContext(ctx)
	for i, match := range matches {
		g.Go(func() error {
			blocks[i] = c.expand(gctx, match)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n"), nil
}

func (c *Contextual) expand(ctx context.Context, match models.Match) string {
	log := c.logger.With(zap.String("episode", match.EpisodeID))

	ep, ok := c.catalog.Episode(match.EpisodeID)
	if !ok || ep.TranscriptPath == "" {
		log.Warn("Skipping match without transcript path")
		return ""
	}

	doc, err := c.transcripts.LoadTranscript(ctx, ep.TranscriptPath)
	if err != nil {
		log.Warn("Skipping match, transcript unavailable", zap.Error(err))
		return ""
	}

	excerpt, ok := transcript.Locate(doc, match.Text, c.window)
	if !ok {
		log.Warn("Skipping match, snippet not found in transcript")
		return ""
	}
	if match.Title == "" {
		match.Title = ep.Title
	}
	return passageBlock(match, excerpt)
}

func passageBlock(match models.Match, ex *transcript.Excerpt) string {
	var b strings.Builder
	b.WriteString("<episode>\n")
	title := match.Title
	if title == "" {
		title = "GM Farcaster, " + match.EpisodeID
	}
	fmt.Fprintf(&b, "  <title>%s</title>\n", title)
	b.WriteString("  <metadata>\n")
	fmt.Fprintf(&b, "    Aired Date: %s\n", match.AiredDate)
	fmt.Fprintf(&b, "    Hosts: %s\n", strings.Join(match.Hosts, ", "))
	fmt.Fprintf(&b, "    Timestamp: %s\n", transcript.FormatTimestamp(ex.Start))
	fmt.Fprintf(&b, "    YouTube: %s\n", transcript.AnchoredURL(match.VideoURL, ex.Start))
	b.WriteString("  </metadata>\n")
	b.WriteString("  <transcript>\n")
	fmt.Fprintf(&b, "    %s\n", ex.Text)
	b.WriteString("  </transcript>\n")
	b.WriteString("</episode>\n")
	return b.String()
}
