// Package router classifies a query into the evidence strategy used to answer it.
package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/models"
)

const DefaultModel = "gpt-4"

var labels = map[string]models.RouteDecision{
	"metadata":   models.RouteMetadata,
	"contextual": models.RouteContextual,
	"hybrid":     models.RouteHybrid,
	"ignore":     models.RouteIgnore,
}

type Router struct {
	gen    llm.Generator
	model  string
	logger *zap.Logger
}

func New(gen llm.Generator, model string, logger *zap.Logger) *Router {
	if model == "" {
		model = DefaultModel
	}
	return &Router{gen: gen, model: model, logger: logger}
}

// Route never fails. Blank queries, unknown labels and transport errors all
// resolve to RouteOther.
func (r *Router) Route(ctx context.Context, query string) models.RouteDecision {
	if strings.TrimSpace(query) == "" {
		r.logger.Debug("Query is empty, skipping classification")
		return models.RouteOther
	}

	resp, err := r.gen.Generate(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: "system", Content: routingPrompt},
			{Role: string(models.RoleUser), Content: query},
		},
		Temperature: 0,
	})
	if err != nil {
		r.logger.Error("Failed to classify query", zap.Error(err))
		return models.RouteOther
	}

	decision, ok := labels[strings.ToLower(strings.TrimSpace(resp))]
	if !ok {
		decision = models.RouteOther
	}
	r.logger.Info("Query routed",
		zap.String("label", resp),
		zap.String("route", string(decision)))
	return decision
}
