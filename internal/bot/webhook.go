package bot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/atenger/gmfc101/internal/models"
)

var (
	ErrNoData           = errors.New("no data provided")
	ErrMissingEventType = errors.New("missing event type")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// ParseWebhook decodes a delivery body. Events other than cast.created are returned
// as-is so the caller can acknowledge them.
func ParseWebhook(body []byte) (*models.WebhookEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, ErrNoData
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if len(fields) == 0 {
		return nil, ErrNoData
	}
	if _, ok := fields["type"]; !ok {
		return nil, ErrMissingEventType
	}

	var ev models.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Type == models.EventCastCreated {
		if err := requireCastFields(fields["data"]); err != nil {
			return nil, err
		}
		if ev.Data.Hash == "" {
			return nil, fmt.Errorf("%w: cast hash is missing", ErrMalformedEvent)
		}
	}
	return &ev, nil
}

// castFields records which of the required cast keys were present in the payload.
type castFields struct {
	Hash   *string `json:"hash"`
	Text   *string `json:"text"`
	Author *struct {
		FID      *int64  `json:"fid"`
		Username *string `json:"username"`
	} `json:"author"`
}

func requireCastFields(raw json.RawMessage) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: data is missing", ErrMalformedEvent)
	}
	var f castFields
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	var missing string
	switch {
	case f.Hash == nil:
		missing = "data.hash"
	case f.Text == nil:
		missing = "data.text"
	case f.Author == nil:
		missing = "data.author"
	case f.Author.FID == nil:
		missing = "data.author.fid"
	case f.Author.Username == nil:
		missing = "data.author.username"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s is missing", ErrMalformedEvent, missing)
	}
	return nil
}

// ParseErrorResult maps a ParseWebhook error to its 400 response.
func ParseErrorResult(err error) Result {
	msg := "Malformed webhook payload"
	switch {
	case errors.Is(err, ErrNoData):
		msg = "No data provided"
	case errors.Is(err, ErrMissingEventType):
		msg = "Missing event type"
	}
	return Result{HTTPStatus: http.StatusBadRequest, Error: msg}
}
