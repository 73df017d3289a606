// Package evidence gathers the material a reply is grounded on and asks the model to
// answer from it. Each provider handles every failure itself and falls back to an
// apology, so the caller always has something to post.
package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atenger/gmfc101/internal/catalog"
	"github.com/atenger/gmfc101/internal/models"
)

const (
	metadataTemperature = 0.3
	replyTemperature    = 0.7
)

// Query is the input shared by all providers.
type Query struct {
	Text     string
	UserName string
	History  []models.DialogueTurn
	Summary  string
	Depth    int
}

type Provider interface {
	HandleQuery(ctx context.Context, q Query) string
}

// Catalog is the part of the episode catalog the providers read.
type Catalog interface {
	Filter(query string) catalog.Selection
	Episode(id string) (models.Episode, bool)
}

func apology(userName string) string {
	return fmt.Sprintf("Sorry @%s, I encountered an error processing your query.", userName)
}

// mappingLine prefixes the "canonical=variant" pairs, or returns "" when there are none.
func mappingLine(prefix string, mappings []string) string {
	if len(mappings) == 0 {
		return ""
	}
	return prefix + strings.Join(mappings, ", ")
}

// marshalJSON encodes v without escaping HTML characters found in titles.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
