// Package catalog holds the episode library and narrows it down to the episodes a
// query is about.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/models"
	"github.com/atenger/gmfc101/internal/storage"
)

const (
	queryTrim = ".,?!/@"
	titleTrim = ".,?!/"
)

// Selection is the outcome of Filter.
type Selection struct {
	// Episodes is sorted by aired date.
	Episodes []models.Episode
	// MentionedHosts lists canonical host names found in the query, in discovery order.
	MentionedHosts []string
	// Matched is false when nothing in the query matched and Episodes is the whole catalog.
	Matched bool
}

type snapshot struct {
	episodes   []models.Episode
	byID       map[string]int
	hosts      []string // lower-cased, first-seen order
	titleWords map[string]struct{}
}

// Catalog is loaded once and replaced atomically on Reload.
type Catalog struct {
	store  storage.CatalogStore
	logger *zap.Logger

	mu   sync.RWMutex
	snap *snapshot
}

func New(ctx context.Context, store storage.CatalogStore, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{store: store, logger: logger}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog from its store. The previous snapshot stays in use if
// loading fails.
func (c *Catalog) Reload(ctx context.Context) error {
	episodes, err := c.store.LoadEpisodes(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	snap := buildSnapshot(episodes)

	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()

	c.logger.Info("Catalog loaded", zap.Int("episodes", len(snap.episodes)))
	return nil
}

func (c *Catalog) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Catalog) Len() int {
	return len(c.current().episodes)
}

// Episodes returns the full catalog sorted by aired date.
func (c *Catalog) Episodes() []models.Episode {
	return clone(c.current().episodes)
}

func (c *Catalog) Episode(id string) (models.Episode, bool) {
	snap := c.current()
	i, ok := snap.byID[id]
	if !ok {
		return models.Episode{}, false
	}
	return snap.episodes[i], true
}

func buildSnapshot(episodes []models.Episode) *snapshot {
	sorted := clone(episodes)
	models.SortByAiredDate(sorted)

	snap := &snapshot{
		episodes:   sorted,
		byID:       make(map[string]int, len(sorted)),
		titleWords: make(map[string]struct{}),
	}
	seenHost := make(map[string]struct{})
	for i, ep := range sorted {
		if _, dup := snap.byID[ep.ID]; !dup {
			snap.byID[ep.ID] = i
		}
		for _, h := range ep.Hosts {
			h = strings.ToLower(h)
			if _, ok := seenHost[h]; !ok {
				seenHost[h] = struct{}{}
				snap.hosts = append(snap.hosts, h)
			}
		}
		for w := range titleTokens(ep.Title) {
			if _, stop := stopWords[w]; !stop {
				snap.titleWords[w] = struct{}{}
			}
		}
	}
	return snap
}

func clone(episodes []models.Episode) []models.Episode {
	out := make([]models.Episode, len(episodes))
	copy(out, episodes)
	return out
}

// queryTokens lower-cases the query and strips surrounding punctuation from each word,
// so "@heavygweit" and "heavygweit?" both match. Order is preserved and duplicates dropped.
func queryTokens(query string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(query)) {
		w := strings.Trim(f, queryTrim)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}
	return tokens
}

func titleTokens(title string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, f := range strings.Fields(title) {
		if w := strings.ToLower(strings.Trim(f, titleTrim)); w != "" {
			words[w] = struct{}{}
		}
	}
	return words
}
