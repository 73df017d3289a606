// Package server exposes the bot over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/bot"
	"github.com/atenger/gmfc101/internal/models"
)

const requestIDHeader = "X-Request-ID"

type Pipeline interface {
	HandleWebhook(ctx context.Context, ev *models.WebhookEvent, opts bot.RunOptions) bot.Result
	PostAnnouncement(ctx context.Context, text string) error
}

type CastLookup interface {
	CastByURL(ctx context.Context, castURL string) (*models.Cast, error)
}

type CatalogReloader interface {
	Reload(ctx context.Context) error
	Len() int
}

// Options are the process-wide run flags applied to live webhook deliveries.
type Options struct {
	DryRun bool
	UseLLM bool
}

type Server struct {
	pipeline Pipeline
	casts    CastLookup
	catalog  CatalogReloader
	opts     Options
	logger   *zap.Logger
}

func New(pipeline Pipeline, casts CastLookup, catalog CatalogReloader, opts Options, logger *zap.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		casts:    casts,
		catalog:  catalog,
		opts:     opts,
		logger:   logger,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestLogger(), s.recovery())

	r.GET("/", s.home)
	r.POST("/webhook_v2", s.webhook)
	r.POST("/test_webhook", s.testWebhook)
	r.POST("/gm", s.gm)
	r.POST("/catalog/reload", s.reloadCatalog)
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		s.logger.Info("HTTP request",
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		s.logger.Error("Unhandled panic in HTTP handler",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": bot.ErrorInternal})
	})
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API is running!"})
}

func (s *Server) webhook(c *gin.Context) {
	if c.ContentType() != gin.MIMEJSON {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content-Type must be application/json"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.logger.Error("Error reading webhook body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": bot.ErrorInternal})
		return
	}

	ev, err := bot.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		res := bot.ParseErrorResult(err)
		c.JSON(res.HTTPStatus, res.Body())
		return
	}

	res := s.pipeline.HandleWebhook(c.Request.Context(), ev, bot.RunOptions{
		DryRun: s.opts.DryRun,
		UseLLM: s.opts.UseLLM,
	})
	c.JSON(res.HTTPStatus, res.Body())
}

type testWebhookRequest struct {
	CastURL string `json:"cast_url"`
}

// testWebhook hydrates a live cast and runs it through the pipeline as a simulated
// cast.created delivery. Nothing is posted.
func (s *Server) testWebhook(c *gin.Context) {
	var req testWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CastURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cast_url is required"})
		return
	}

	ctx := c.Request.Context()
	cast, err := s.casts.CastByURL(ctx, req.CastURL)
	if err != nil {
		s.logger.Error("Error hydrating cast",
			zap.Error(err),
			zap.String("cast_url", req.CastURL))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred processing your request"})
		return
	}

	ev, err := SimulatedEvent(cast)
	if err != nil {
		s.logger.Error("Error building simulated event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred processing your request"})
		return
	}

	res := s.pipeline.HandleWebhook(ctx, ev, bot.RunOptions{DryRun: true, UseLLM: true})
	c.JSON(http.StatusOK, gin.H{
		"webhook_response": res.Body(),
		"status_code":      res.HTTPStatus,
		"cast_data":        cast,
	})
}

// SimulatedEvent wraps a hydrated cast in the payload the webhook would have delivered.
func SimulatedEvent(cast *models.Cast) (*models.WebhookEvent, error) {
	ev := &models.WebhookEvent{Type: models.EventCastCreated, Data: *cast}
	if cast.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, cast.Timestamp)
		if err != nil {
			return nil, err
		}
		ev.CreatedAt = ts.Unix()
	}
	return ev, nil
}

func (s *Server) gm(c *gin.Context) {
	if err := s.pipeline.PostAnnouncement(c.Request.Context(), ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cast"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cast created successfully"})
}

func (s *Server) reloadCatalog(c *gin.Context) {
	if err := s.catalog.Reload(c.Request.Context()); err != nil {
		s.logger.Error("Catalog reload failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload catalog"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Catalog reloaded", "episodes": s.catalog.Len()})
}
