// Package bot turns a mention webhook into a posted reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/dedup"
	"github.com/atenger/gmfc101/internal/evidence"
	"github.com/atenger/gmfc101/internal/models"
	"github.com/atenger/gmfc101/internal/neynar"
	"github.com/atenger/gmfc101/internal/notify"
)

const (
	StatusNotCastCreated = "Event type was not cast.created; ignoring request"
	StatusDuplicate      = "ignored duplicate"
	StatusSelfMention    = "Bot tagged itself; ignoring and not replying..."
	StatusDepthLimit     = "conversation depth limit reached"
	StatusIgnoreQuery    = "ignore query detected"
	MessageProcessed     = "Webhook processed"

	ErrorUnknown  = "Unknown error"
	ErrorInternal = "Internal server error"

	SummaryFallback = "No summary available right now."
	GMText          = "I have access to hundreds of hours of GM Farcaster Network content. Ask me a question and I'll do my best to answer it."

	DefaultMaxDepth = 8
)

// CastAPI is the part of the social API the bot writes to and summarizes threads with.
type CastAPI interface {
	ConversationSummary(ctx context.Context, hash string) (string, error)
	PublishCast(ctx context.Context, req neynar.PublishRequest) (*neynar.PublishResponse, error)
}

type ThreadBuilder interface {
	Build(ctx context.Context, hash string, authorFID int64, dryRun bool) ([]models.DialogueTurn, int)
}

type Router interface {
	Route(ctx context.Context, query string) models.RouteDecision
}

// Providers maps routes to evidence strategies. Anything that is not metadata or
// hybrid is answered contextually.
type Providers struct {
	Metadata   evidence.Provider
	Contextual evidence.Provider
	Hybrid     evidence.Provider
}

func (p Providers) For(route models.RouteDecision) evidence.Provider {
	switch route {
	case models.RouteMetadata:
		return p.Metadata
	case models.RouteHybrid:
		return p.Hybrid
	default:
		return p.Contextual
	}
}

type Config struct {
	BotFID     int64
	SignerUUID string
	MaxDepth   int
	ReplyLimit int
}

type Deps struct {
	Dedup     dedup.Deduper
	Casts     CastAPI
	Threads   ThreadBuilder
	Router    Router
	Providers Providers
	Notifier  notify.Notifier
}

// RunOptions are decided per request. DryRun skips both the duplicate check and the
// final post; UseLLM false answers every mention with the resting reply.
type RunOptions struct {
	DryRun bool
	UseLLM bool
}

// Result is the HTTP outcome of one webhook delivery.
type Result struct {
	HTTPStatus int
	Status     string
	Message    string
	Error      string
	// Reply is the text that was, or in a dry run would have been, posted.
	Reply string
}

func (r Result) Body() map[string]any {
	body := map[string]any{}
	if r.Status != "" {
		body["status"] = r.Status
	}
	if r.Message != "" {
		body["message"] = r.Message
	}
	if r.Error != "" {
		body["error"] = r.Error
	}
	if r.Reply != "" {
		body["reply"] = r.Reply
	}
	return body
}

func ok(status string) Result { return Result{HTTPStatus: http.StatusOK, Status: status} }

type Bot struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

func New(cfg Config, deps Deps, logger *zap.Logger) *Bot {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.ReplyLimit <= 0 {
		cfg.ReplyLimit = compose.DefaultReplyLimit
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	return &Bot{cfg: cfg, deps: deps, logger: logger}
}

// HandleWebhook runs one delivery through the whole pipeline. It never panics; any
// unexpected failure becomes a 500 with a generic body.
func (b *Bot) HandleWebhook(ctx context.Context, ev *models.WebhookEvent, opts RunOptions) (res Result) {
	log := b.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("cast_hash", ev.Data.Hash))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Error processing webhook",
				zap.String("error_type", fmt.Sprintf("%T", r)),
				zap.Any("error", r),
				zap.Stack("stack"))
			res = Result{HTTPStatus: http.StatusInternalServerError, Error: ErrorInternal}
		}
	}()

	if ev.Type != models.EventCastCreated {
		log.Debug("Ignoring event", zap.String("type", ev.Type))
		return ok(StatusNotCastCreated)
	}

	cast := ev.Data
	if b.deps.Dedup.SeenAndMark(ctx, cast.Hash, opts.DryRun) {
		log.Warn("Duplicate event detected, ignoring")
		return ok(StatusDuplicate)
	}

	if cast.Author.FID == b.cfg.BotFID {
		log.Warn("Bot mentioned itself, ignoring")
		return ok(StatusSelfMention)
	}

	author := cast.Author.Username
	if author == "" {
		author = "Unknown"
	}
	log = log.With(zap.String("author", author), zap.Int64("author_fid", cast.Author.FID))

	var text string
	if opts.UseLLM {
		var (
			early Result
			done  bool
		)
		text, early, done = b.answer(ctx, log, cast, author, opts)
		if done {
			return early
		}
	} else {
		text = restingReply(author)
	}

	return b.deliver(ctx, log, cast.Hash, author, text, opts)
}

// answer gathers conversation state, routes the query and runs the chosen provider.
// done is true when the pipeline stops without replying.
func (b *Bot) answer(ctx context.Context, log *zap.Logger, cast models.Cast, author string, opts RunOptions) (string, Result, bool) {
	summary := b.summary(ctx, log, cast.Hash)
	history, depth := b.deps.Threads.Build(ctx, cast.Hash, cast.Author.FID, opts.DryRun)

	log.Debug("Conversation state",
		zap.Int("depth", depth),
		zap.Int("history_turns", len(history)),
		zap.String("summary", summary))

	if depth > b.cfg.MaxDepth {
		log.Warn("Conversation depth exceeds limit, not responding",
			zap.Int("depth", depth),
			zap.Int("max_depth", b.cfg.MaxDepth))
		return "", ok(StatusDepthLimit), true
	}

	route := b.deps.Router.Route(ctx, cast.Text)
	log.Info("Route determined", zap.String("route", string(route)))
	if route == models.RouteIgnore {
		return "", ok(StatusIgnoreQuery), true
	}

	reply := b.deps.Providers.For(route).HandleQuery(ctx, evidence.Query{
		Text:     cast.Text,
		UserName: author,
		History:  history,
		Summary:  summary,
		Depth:    depth,
	})
	return reply, Result{}, false
}

func (b *Bot) summary(ctx context.Context, log *zap.Logger, hash string) string {
	s, err := b.deps.Casts.ConversationSummary(ctx, hash)
	if err != nil {
		log.Error("Failed to get conversation summary", zap.Error(err))
		return SummaryFallback
	}
	if s == "" {
		return SummaryFallback
	}
	return s
}

func (b *Bot) deliver(ctx context.Context, log *zap.Logger, hash, author, text string, opts RunOptions) Result {
	log.Info("Raw reply", zap.String("text", text), zap.Int("bytes", len(text)))
	text = compose.Truncate(text, b.cfg.ReplyLimit)

	if opts.DryRun {
		log.Warn("Dry run, reply will not be posted")
		b.notify(ctx, log, fmt.Sprintf("[dry run] reply to @%s (%s):\n\n%s", author, hash, text))
		return Result{HTTPStatus: http.StatusOK, Message: MessageProcessed, Reply: text}
	}

	resp, err := b.deps.Casts.PublishCast(ctx, neynar.PublishRequest{
		Text:       text,
		SignerUUID: b.cfg.SignerUUID,
		Parent:     hash,
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var apiErr *neynar.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields,
				zap.Int("upstream_status", apiErr.StatusCode),
				zap.String("upstream_body", apiErr.Body))
		}
		log.Error("Error posting reply", fields...)
		b.notify(ctx, log, fmt.Sprintf("Failed to post reply to @%s (%s): %v", author, hash, err))
		return Result{HTTPStatus: http.StatusInternalServerError, Error: ErrorUnknown}
	}

	log.Info("Reply posted", zap.String("reply_hash", resp.Cast.Hash))
	return Result{HTTPStatus: http.StatusOK, Message: MessageProcessed}
}

func (b *Bot) notify(ctx context.Context, log *zap.Logger, text string) {
	if err := b.deps.Notifier.Notify(ctx, text); err != nil {
		log.Warn("Failed to send operator notification", zap.Error(err))
	}
}

// PostAnnouncement publishes a top-level cast. An empty text posts GMText.
func (b *Bot) PostAnnouncement(ctx context.Context, text string) error {
	if text == "" {
		text = GMText
	}
	resp, err := b.deps.Casts.PublishCast(ctx, neynar.PublishRequest{
		Text:       compose.Truncate(text, b.cfg.ReplyLimit),
		SignerUUID: b.cfg.SignerUUID,
	})
	if err != nil {
		b.logger.Error("Error creating cast", zap.Error(err))
		return err
	}
	b.logger.Info("Announcement posted", zap.String("hash", resp.Cast.Hash))
	return nil
}

func restingReply(author string) string {
	return fmt.Sprintf("Hey @%s! 👋 I'm a bot that will help with Farcaster questions but "+
		"I'm still being developed and take frequent rests! I'm offline now but you can check back later.", author)
}
