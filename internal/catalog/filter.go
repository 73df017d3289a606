package catalog

import (
	"strings"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/models"
)

// Filter selects the episodes a query refers to. Three matchers run in turn and each
// adds the episodes it finds that are not already selected: hosts named in the query,
// series named in the query, then words shared with episode titles. When none of them
// match, the whole catalog is returned.
func (c *Catalog) Filter(query string) Selection {
	snap := c.current()
	lowered := strings.ToLower(query)
	tokens := queryTokens(query)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	var (
		selected []models.Episode
		picked   = make(map[string]struct{})
	)
	add := func(ep models.Episode) int {
		if _, ok := picked[ep.ID]; ok {
			return 0
		}
		picked[ep.ID] = struct{}{}
		selected = append(selected, ep)
		return 1
	}

	hosts := mentionedHosts(snap, tokenSet)
	hostAdded := 0
	if len(hosts) > 0 {
		wanted := toSet(hosts...)
		for _, ep := range snap.episodes {
			for _, h := range ep.Hosts {
				if _, ok := wanted[strings.ToLower(h)]; ok {
					hostAdded += add(ep)
					break
				}
			}
		}
	}

	foundSeries := false
	seriesAdded := 0
	for _, s := range seriesAliases {
		if !mentionsSeries(s.variants, tokenSet, lowered) {
			continue
		}
		foundSeries = true
		for _, ep := range snap.episodes {
			if ep.Series == s.series {
				seriesAdded += add(ep)
			}
		}
	}

	foundTitle := false
	titleAdded := 0
	for _, w := range tokens {
		if _, ok := snap.titleWords[w]; !ok {
			continue
		}
		foundTitle = true
		for _, ep := range snap.episodes {
			if _, ok := titleTokens(ep.Title)[w]; ok {
				titleAdded += add(ep)
			}
		}
	}

	c.logger.Debug("Catalog filter",
		zap.Strings("hosts", hosts),
		zap.Int("host_episodes", hostAdded),
		zap.Bool("series_match", foundSeries),
		zap.Int("series_episodes", seriesAdded),
		zap.Bool("title_match", foundTitle),
		zap.Int("title_episodes", titleAdded))

	if len(hosts) == 0 && !foundSeries && !foundTitle {
		return Selection{Episodes: clone(snap.episodes)}
	}

	models.SortByAiredDate(selected)
	return Selection{Episodes: selected, MentionedHosts: hosts, Matched: true}
}

// mentionedHosts resolves aliases first, then literal host names from the catalog.
func mentionedHosts(snap *snapshot, tokens map[string]struct{}) []string {
	lookup := make(map[string]string)
	var variants []string
	for _, a := range hostAliases {
		for _, v := range a.variants {
			v = strings.ToLower(v)
			if _, ok := lookup[v]; !ok {
				variants = append(variants, v)
			}
			lookup[v] = a.canonical
		}
	}

	var hosts []string
	seen := make(map[string]struct{})
	mention := func(h string) {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			hosts = append(hosts, h)
		}
	}
	for _, v := range variants {
		if _, ok := tokens[v]; ok {
			mention(lookup[v])
		}
	}
	for _, h := range snap.hosts {
		if _, ok := tokens[h]; ok {
			mention(h)
		}
	}
	return hosts
}

// mentionsSeries checks each variant and its space-free form both as a single token and
// as a substring of the query.
func mentionsSeries(variants []string, tokens map[string]struct{}, query string) bool {
	for _, v := range variants {
		for _, form := range []string{v, strings.ReplaceAll(v, " ", "")} {
			if _, ok := tokens[form]; ok {
				return true
			}
			if strings.Contains(query, form) {
				return true
			}
		}
	}
	return false
}

// NameMappings returns "canonical=variant" pairs for the mentioned hosts whose alias
// the query actually used.
func NameMappings(query string, mentioned []string) []string {
	if len(mentioned) == 0 {
		return nil
	}
	tokens := toSet(queryTokens(query)...)

	var mappings []string
	for _, canonical := range mentioned {
		for _, a := range hostAliases {
			if a.canonical != canonical {
				continue
			}
			for _, v := range a.variants {
				if _, ok := tokens[strings.ToLower(v)]; ok {
					mappings = append(mappings, canonical+"="+v)
					break
				}
			}
			break
		}
	}
	return mappings
}
