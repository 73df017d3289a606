package bot

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/dedup"
	"github.com/atenger/gmfc101/internal/evidence"
	"github.com/atenger/gmfc101/internal/models"
	"github.com/atenger/gmfc101/internal/neynar"
)

const (
	botFID  int64 = 885236
	userFID int64 = 4242
)

type fakeCasts struct {
	summary    string
	summaryErr error
	publishErr error
	published  []neynar.PublishRequest
}

func (f *fakeCasts) ConversationSummary(context.Context, string) (string, error) {
	return f.summary, f.summaryErr
}

func (f *fakeCasts) PublishCast(_ context.Context, req neynar.PublishRequest) (*neynar.PublishResponse, error) {
	f.published = append(f.published, req)
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	resp := &neynar.PublishResponse{Success: true}
	resp.Cast.Hash = "0xreply"
	return resp, nil
}

type fakeThreads struct {
	turns  []models.DialogueTurn
	depth  int
	dryRun bool
	calls  int
}

func (f *fakeThreads) Build(_ context.Context, _ string, _ int64, dryRun bool) ([]models.DialogueTurn, int) {
	f.calls++
	f.dryRun = dryRun
	return f.turns, f.depth
}

type fakeRouter struct {
	route models.RouteDecision
	calls int
}

func (f *fakeRouter) Route(context.Context, string) models.RouteDecision {
	f.calls++
	return f.route
}

type fakeProvider struct {
	name  string
	got   *evidence.Query
	reply string
}

func (f *fakeProvider) HandleQuery(_ context.Context, q evidence.Query) string {
	f.got = &q
	if f.reply != "" {
		return f.reply
	}
	return f.name + " answer for @" + q.UserName
}

type recordingNotifier struct{ sent []string }

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.sent = append(n.sent, text)
	return nil
}

type panickingRouter struct{}

func (panickingRouter) Route(context.Context, string) models.RouteDecision { panic("boom") }

type harness struct {
	bot        *Bot
	casts      *fakeCasts
	threads    *fakeThreads
	router     *fakeRouter
	metadata   *fakeProvider
	contextual *fakeProvider
	hybrid     *fakeProvider
	notifier   *recordingNotifier
}

func newHarness() *harness {
	h := &harness{
		casts:      &fakeCasts{summary: "a chat about frames"},
		threads:    &fakeThreads{depth: 1},
		router:     &fakeRouter{route: models.RouteContextual},
		metadata:   &fakeProvider{name: "metadata"},
		contextual: &fakeProvider{name: "contextual"},
		hybrid:     &fakeProvider{name: "hybrid"},
		notifier:   &recordingNotifier{},
	}
	h.bot = New(Config{BotFID: botFID, SignerUUID: "signer-1"}, Deps{
		Dedup:   dedup.NewGate(time.Minute, 100),
		Casts:   h.casts,
		Threads: h.threads,
		Router:  h.router,
		Providers: Providers{
			Metadata:   h.metadata,
			Contextual: h.contextual,
			Hybrid:     h.hybrid,
		},
		Notifier: h.notifier,
	}, zap.NewNop())
	return h
}

func mention(hash string) *models.WebhookEvent {
	return &models.WebhookEvent{
		Type: models.EventCastCreated,
		Data: models.Cast{
			Hash:   hash,
			Text:   "@gmfc101 what are frames?",
			Author: models.Author{FID: userFID, Username: "alice"},
		},
	}
}

var live = RunOptions{UseLLM: true}

func TestHandleWebhook_PostsReply(t *testing.T) {
	h := newHarness()
	h.threads.turns = []models.DialogueTurn{{Role: models.RoleAssistant, Text: "gm"}}

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, map[string]any{"message": MessageProcessed}, res.Body())

	require.Len(t, h.casts.published, 1)
	assert.Equal(t, neynar.PublishRequest{
		Text:       "contextual answer for @alice",
		SignerUUID: "signer-1",
		Parent:     "0xabc",
	}, h.casts.published[0])

	require.NotNil(t, h.contextual.got)
	assert.Equal(t, evidence.Query{
		Text:     "@gmfc101 what are frames?",
		UserName: "alice",
		History:  []models.DialogueTurn{{Role: models.RoleAssistant, Text: "gm"}},
		Summary:  "a chat about frames",
		Depth:    1,
	}, *h.contextual.got)
	assert.False(t, h.threads.dryRun)
	assert.Empty(t, h.notifier.sent)
}

func TestHandleWebhook_NotCastCreated(t *testing.T) {
	h := newHarness()
	ev := mention("0xabc")
	ev.Type = "cast.deleted"

	res := h.bot.HandleWebhook(context.Background(), ev, live)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, StatusNotCastCreated, res.Status)
	assert.Zero(t, h.router.calls)
}

func TestHandleWebhook_DuplicateIgnored(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.bot.HandleWebhook(ctx, mention("0xabc"), live)
	assert.Equal(t, MessageProcessed, first.Message)

	second := h.bot.HandleWebhook(ctx, mention("0xabc"), live)
	assert.Equal(t, http.StatusOK, second.HTTPStatus)
	assert.Equal(t, StatusDuplicate, second.Status)
	assert.Len(t, h.casts.published, 1)
}

func TestHandleWebhook_DryRunBypassesDedupAndDoesNotPost(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	opts := RunOptions{DryRun: true, UseLLM: true}

	for i := 0; i < 2; i++ {
		res := h.bot.HandleWebhook(ctx, mention("0xabc"), opts)
		assert.Equal(t, http.StatusOK, res.HTTPStatus)
		assert.Equal(t, MessageProcessed, res.Message)
		assert.Equal(t, "contextual answer for @alice", res.Reply)
	}
	assert.Empty(t, h.casts.published)
	assert.True(t, h.threads.dryRun)
	require.Len(t, h.notifier.sent, 2)
	assert.Contains(t, h.notifier.sent[0], "[dry run]")
	assert.Contains(t, h.notifier.sent[0], "contextual answer for @alice")
}

func TestHandleWebhook_SelfMention(t *testing.T) {
	h := newHarness()
	ev := mention("0xabc")
	ev.Data.Author.FID = botFID

	res := h.bot.HandleWebhook(context.Background(), ev, live)
	assert.Equal(t, StatusSelfMention, res.Status)
	assert.Zero(t, h.threads.calls)
	assert.Empty(t, h.casts.published)
}

func TestHandleWebhook_RestingReplyWhenLLMDisabled(t *testing.T) {
	h := newHarness()

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), RunOptions{})
	assert.Equal(t, MessageProcessed, res.Message)
	assert.Zero(t, h.threads.calls)
	assert.Zero(t, h.router.calls)

	require.Len(t, h.casts.published, 1)
	assert.Equal(t, "Hey @alice! 👋 I'm a bot that will help with Farcaster questions but I'm still "+
		"being developed and take frequent rests! I'm offline now but you can check back later.",
		h.casts.published[0].Text)
}

func TestHandleWebhook_DepthLimit(t *testing.T) {
	h := newHarness()
	h.threads.depth = 9

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, StatusDepthLimit, res.Status)
	assert.Zero(t, h.router.calls)
	assert.Empty(t, h.casts.published)

	h2 := newHarness()
	h2.threads.depth = 8
	res = h2.bot.HandleWebhook(context.Background(), mention("0xdef"), live)
	assert.Equal(t, MessageProcessed, res.Message)
}

func TestHandleWebhook_Routing(t *testing.T) {
	tests := []struct {
		route models.RouteDecision
		want  string
	}{
		{models.RouteMetadata, "metadata answer for @alice"},
		{models.RouteContextual, "contextual answer for @alice"},
		{models.RouteHybrid, "hybrid answer for @alice"},
		{models.RouteOther, "contextual answer for @alice"},
	}
	for _, tt := range tests {
		t.Run(string(tt.route), func(t *testing.T) {
			h := newHarness()
			h.router.route = tt.route

			h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
			require.Len(t, h.casts.published, 1)
			assert.Equal(t, tt.want, h.casts.published[0].Text)
		})
	}
}

func TestHandleWebhook_IgnoreRoute(t *testing.T) {
	h := newHarness()
	h.router.route = models.RouteIgnore

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	assert.Equal(t, StatusIgnoreQuery, res.Status)
	assert.Empty(t, h.casts.published)
	assert.Nil(t, h.contextual.got)
}

func TestHandleWebhook_SummaryFallback(t *testing.T) {
	h := newHarness()
	h.casts.summaryErr = errors.New("timeout")

	h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	require.NotNil(t, h.contextual.got)
	assert.Equal(t, SummaryFallback, h.contextual.got.Summary)
}

func TestHandleWebhook_TruncatesLongReply(t *testing.T) {
	h := newHarness()
	h.contextual.reply = strings.Repeat("GM Farcaster is great. ", 100)

	h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	require.Len(t, h.casts.published, 1)
	text := h.casts.published[0].Text
	assert.LessOrEqual(t, len(text), compose.DefaultReplyLimit)
	assert.True(t, strings.HasSuffix(text, compose.TruncationNotice))
}

func TestHandleWebhook_PostFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newHarness()
	h.bot.logger = zap.New(core)
	h.casts.publishErr = &neynar.APIError{StatusCode: http.StatusForbidden, Body: `{"message":"invalid signer"}`}

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus)
	assert.Equal(t, map[string]any{"error": ErrorUnknown}, res.Body())

	entries := logs.FilterMessage("Error posting reply").All()
	require.Len(t, entries, 1)
	assert.Equal(t, `{"message":"invalid signer"}`, entries[0].ContextMap()["upstream_body"])
	require.Len(t, h.notifier.sent, 1)
	assert.Contains(t, h.notifier.sent[0], "Failed to post reply")
}

func TestHandleWebhook_PanicBecomesInternalError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := newHarness()
	h.bot.deps.Router = panickingRouter{}
	h.bot.logger = zap.New(core)

	res := h.bot.HandleWebhook(context.Background(), mention("0xabc"), live)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus)
	assert.Equal(t, ErrorInternal, res.Error)

	entries := logs.FilterMessage("Error processing webhook").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "string", entries[0].ContextMap()["error_type"])
	assert.Contains(t, entries[0].ContextMap(), "stack")
}

func TestPostAnnouncement(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.bot.PostAnnouncement(context.Background(), ""))
	require.NoError(t, h.bot.PostAnnouncement(context.Background(), "gm ☕"))
	require.Len(t, h.casts.published, 2)
	assert.Equal(t, neynar.PublishRequest{Text: GMText, SignerUUID: "signer-1"}, h.casts.published[0])
	assert.Equal(t, "gm ☕", h.casts.published[1].Text)

	h.casts.publishErr = errors.New("down")
	assert.Error(t, h.bot.PostAnnouncement(context.Background(), ""))
}
