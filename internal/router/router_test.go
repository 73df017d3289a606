package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/models"
)

type stubGenerator struct {
	reply string
	err   error
	calls []llm.Request
}

func (s *stubGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	return s.reply, s.err
}

func TestRoute_BlankQueryMakesNoCall(t *testing.T) {
	gen := &stubGenerator{reply: "METADATA"}
	r := New(gen, "", zap.NewNop())

	for _, q := range []string{"", "   ", "\n\t"} {
		assert.Equal(t, models.RouteOther, r.Route(context.Background(), q))
	}
	assert.Empty(t, gen.calls)
}

func TestRoute_LabelMapping(t *testing.T) {
	tests := []struct {
		reply string
		want  models.RouteDecision
	}{
		{"METADATA", models.RouteMetadata},
		{"contextual", models.RouteContextual},
		{"HYBRID", models.RouteHybrid},
		{"Hybrid", models.RouteHybrid},
		{" IGNORE\n", models.RouteIgnore},
		{"GENERAL", models.RouteOther},
		{"I think this is metadata", models.RouteOther},
		{"", models.RouteOther},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			r := New(&stubGenerator{reply: tt.reply}, "", zap.NewNop())
			assert.Equal(t, tt.want, r.Route(context.Background(), "who hosts the hub?"))
		})
	}
}

func TestRoute_ErrorIsOther(t *testing.T) {
	r := New(&stubGenerator{err: errors.New("timeout")}, "", zap.NewNop())
	assert.Equal(t, models.RouteOther, r.Route(context.Background(), "what is farcaster?"))
}

func TestRoute_RequestShape(t *testing.T) {
	gen := &stubGenerator{reply: "CONTEXTUAL"}
	New(gen, "", zap.NewNop()).Route(context.Background(), "what are frames?")

	require.Len(t, gen.calls, 1)
	req := gen.calls[0]
	assert.Equal(t, DefaultModel, req.Model)
	assert.Zero(t, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "workflow router")
	assert.Equal(t, llm.Message{Role: "user", Content: "what are frames?"}, req.Messages[1])
}
