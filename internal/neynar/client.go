// Package neynar is a small client for the Neynar Farcaster REST API.
package neynar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/models"
)

const (
	DefaultBaseURL = "https://api.neynar.com/v2"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4096
)

var ErrCastNotFound = errors.New("cast not found")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("neynar: status %d: %s", e.StatusCode, e.Body)
}

// PublishRequest is the body of a cast creation call. Parent is empty for top-level casts.
type PublishRequest struct {
	Text       string `json:"text"`
	SignerUUID string `json:"signer_uuid"`
	Parent     string `json:"parent,omitempty"`
}

type PublishResponse struct {
	Success bool `json:"success"`
	Cast    struct {
		Hash string `json:"hash"`
	} `json:"cast"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type castEnvelope struct {
	Cast *models.Cast `json:"cast"`
}

// Cast fetches a single cast by its hash.
func (c *Client) Cast(ctx context.Context, hash string) (*models.Cast, error) {
	return c.lookupCast(ctx, hash, "hash")
}

// CastByURL hydrates a cast from its warpcast.com URL.
func (c *Client) CastByURL(ctx context.Context, castURL string) (*models.Cast, error) {
	return c.lookupCast(ctx, castURL, "url")
}

func (c *Client) lookupCast(ctx context.Context, identifier, kind string) (*models.Cast, error) {
	q := url.Values{}
	q.Set("identifier", identifier)
	q.Set("type", kind)

	var env castEnvelope
	if err := c.do(ctx, http.MethodGet, "/farcaster/cast", q, nil, &env); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrCastNotFound, identifier)
		}
		return nil, fmt.Errorf("fetch cast %s: %w", identifier, err)
	}
	if env.Cast == nil {
		return nil, fmt.Errorf("%w: %s", ErrCastNotFound, identifier)
	}
	return env.Cast, nil
}

// ConversationSummary returns Neynar's generated summary of the thread around hash.
func (c *Client) ConversationSummary(ctx context.Context, hash string) (string, error) {
	q := url.Values{}
	q.Set("identifier", hash)
	q.Set("type", "hash")

	var resp struct {
		Summary struct {
			Text string `json:"text"`
		} `json:"summary"`
	}
	if err := c.do(ctx, http.MethodGet, "/farcaster/cast/conversation/summary", q, nil, &resp); err != nil {
		return "", fmt.Errorf("fetch conversation summary: %w", err)
	}
	return resp.Summary.Text, nil
}

// PublishCast creates a cast signed by the bot's managed signer.
func (c *Client) PublishCast(ctx context.Context, req PublishRequest) (*PublishResponse, error) {
	var resp PublishResponse
	if err := c.do(ctx, http.MethodPost, "/farcaster/cast", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("publish cast: %w", err)
	}
	c.logger.Info("Cast published",
		zap.String("hash", resp.Cast.Hash),
		zap.String("parent", req.Parent))
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("Neynar request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
