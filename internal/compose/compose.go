// Package compose turns evidence and conversation state into model input and shapes
// the model's answer into a publishable reply.
package compose

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/models"
)

// Kind selects the instruction template matching the evidence a provider gathered.
type Kind string

const (
	KindSnippets   Kind = "snippets"
	KindMetadata   Kind = "metadata"
	KindTranscript Kind = "transcript"
)

// Closing is the end-of-conversation instruction for a given thread depth.
type Closing string

const (
	ClosingNone     Closing = ""
	ClosingWrapUp   Closing = "wrap_up"
	ClosingFarewell Closing = "farewell"
)

// ClosingFor maps depth 5-6 to a wrap-up hint and 7+ to a farewell.
func ClosingFor(depth int) Closing {
	switch {
	case depth >= 7:
		return ClosingFarewell
	case depth >= 5:
		return ClosingWrapUp
	default:
		return ClosingNone
	}
}

// Params is everything an instruction prompt depends on.
type Params struct {
	Kind         Kind
	UserName     string
	Depth        int
	Evidence     string
	NameMappings string
	// Summary is the social API's summary of the surrounding thread.
	Summary string
}

type promptData struct {
	Params
	Closing Closing
}

func BuildPrompt(p Params) (string, error) {
	var buf bytes.Buffer
	data := promptData{Params: p, Closing: ClosingFor(p.Depth)}
	if err := prompts.ExecuteTemplate(&buf, string(p.Kind), data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", p.Kind, err)
	}
	return buf.String(), nil
}

// BuildIdentificationPrompt asks the model to pick the episodes whose transcript can
// answer query from a serialized catalog.
func BuildIdentificationPrompt(query, catalog, nameMappings string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Query, Catalog, NameMappings string }{query, catalog, nameMappings}
	if err := prompts.ExecuteTemplate(&buf, "identify", data); err != nil {
		return "", fmt.Errorf("render identification prompt: %w", err)
	}
	return buf.String(), nil
}

// Messages orders the prior turns first, then the instruction, then the raw query.
func Messages(history []models.DialogueTurn, prompt, query string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	for _, turn := range history {
		msgs = append(msgs, llm.Message{Role: string(turn.Role), Content: turn.Text})
	}
	msgs = append(msgs,
		llm.Message{Role: llm.RoleDeveloper, Content: prompt},
		llm.Message{Role: string(models.RoleUser), Content: query},
	)
	return msgs
}

// Request is one reply generation.
type Request struct {
	Params
	History     []models.DialogueTurn
	Query       string
	Temperature float64
}

type Composer struct {
	gen       llm.Generator
	model     string
	maxTokens int
	logger    *zap.Logger
}

func NewComposer(gen llm.Generator, model string, maxTokens int, logger *zap.Logger) *Composer {
	return &Composer{gen: gen, model: model, maxTokens: maxTokens, logger: logger}
}

func (c *Composer) Compose(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req.Params)
	if err != nil {
		return "", err
	}
	msgs := Messages(req.History, prompt, req.Query)

	c.logger.Debug("Generating reply",
		zap.String("kind", string(req.Kind)),
		zap.String("model", c.model),
		zap.Int("history_turns", len(req.History)),
		zap.Int("depth", req.Depth),
		zap.Int("evidence_bytes", len(req.Evidence)))

	return c.gen.Generate(ctx, llm.Request{
		Model:       c.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   c.maxTokens,
	})
}
