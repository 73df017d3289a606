// Package llm wraps the chat completion and embedding endpoints used to answer queries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// RoleDeveloper carries instructions that outrank the user turn on newer chat models.
const RoleDeveloper = "developer"

var (
	ErrNoChoices   = errors.New("model returned no choices")
	ErrNoEmbedding = errors.New("model returned no embedding")
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAI implements Generator and Embedder on top of the OpenAI API.
type OpenAI struct {
	client         *openai.Client
	embeddingModel string
	timeout        time.Duration
	logger         *zap.Logger
}

func NewOpenAI(apiKey, embeddingModel string, timeout time.Duration, logger *zap.Logger) *OpenAI {
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), embeddingModel, timeout, logger)
}

// NewOpenAIWithConfig allows pointing the client at a different base URL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, embeddingModel string, timeout time.Duration, logger *zap.Logger) *OpenAI {
	if embeddingModel == "" {
		embeddingModel = string(openai.AdaEmbeddingV2)
	}
	return &OpenAI{
		client:         openai.NewClientWithConfig(cfg),
		embeddingModel: embeddingModel,
		timeout:        timeout,
		logger:         logger,
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	o.logger.Debug("Chat completion finished",
		zap.String("model", req.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := o.withTimeout(ctx)
	defer cancel()

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Data[0].Embedding, nil
}

func (o *OpenAI) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}
