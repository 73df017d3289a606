// Package thread rebuilds the back-and-forth between a user and the bot from a reply chain.
package thread

import (
	"context"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/models"
)

const (
	DefaultMaxHops = 50

	// ErrorDepth is returned when the chain cannot be fetched. It is above any depth
	// limit so no reply is generated.
	ErrorDepth = 999
	// DryRunErrorDepth replaces ErrorDepth in simulation so a test run still answers.
	DryRunErrorDepth = 1
)

type CastFetcher interface {
	Cast(ctx context.Context, hash string) (*models.Cast, error)
}

type Reconstructor struct {
	fetcher CastFetcher
	botFID  int64
	maxHops int
	logger  *zap.Logger
}

func NewReconstructor(fetcher CastFetcher, botFID int64, maxHops int, logger *zap.Logger) *Reconstructor {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	return &Reconstructor{
		fetcher: fetcher,
		botFID:  botFID,
		maxHops: maxHops,
		logger:  logger,
	}
}

// Build walks parent links upward from hash and returns the prior turns, oldest first,
// together with the number of speaker changes among them. The triggering cast is not
// part of the result.
func (r *Reconstructor) Build(ctx context.Context, hash string, authorFID int64, dryRun bool) ([]models.DialogueTurn, int) {
	chain, err := r.walk(ctx, hash, authorFID)
	if err != nil {
		r.logger.Error("Failed to reconstruct conversation",
			zap.Error(err),
			zap.String("cast_hash", hash))
		if dryRun {
			return nil, DryRunErrorDepth
		}
		return nil, ErrorDepth
	}

	turns := collapse(chain, authorFID)
	if len(turns) > 0 {
		turns = turns[:len(turns)-1]
	}
	return turns, alternations(turns)
}

// walk returns the participant casts newest first. A cast from anyone other than the
// author or the bot ends the walk.
func (r *Reconstructor) walk(ctx context.Context, hash string, authorFID int64) ([]*models.Cast, error) {
	var chain []*models.Cast
	visited := make(map[string]struct{})

	for current := hash; current != ""; {
		if _, seen := visited[current]; seen {
			r.logger.Warn("Reply chain loops back on itself", zap.String("cast_hash", current))
			break
		}
		if len(visited) >= r.maxHops {
			r.logger.Warn("Reply chain hop limit reached",
				zap.Int("max_hops", r.maxHops),
				zap.String("cast_hash", current))
			break
		}
		visited[current] = struct{}{}

		cast, err := r.fetcher.Cast(ctx, current)
		if err != nil {
			return nil, err
		}

		fid := cast.Author.FID
		if fid != authorFID && fid != r.botFID {
			r.logger.Debug("Conversation chain broken by another user",
				zap.String("cast_hash", current),
				zap.Int64("fid", fid))
			break
		}

		chain = append(chain, cast)
		current = cast.ParentHash
	}
	return chain, nil
}

// collapse reverses the chain and keeps only the first cast of every same-speaker run.
func collapse(chain []*models.Cast, authorFID int64) []models.DialogueTurn {
	var (
		turns []models.DialogueTurn
		last  int64
	)
	for i := len(chain) - 1; i >= 0; i-- {
		c := chain[i]
		if len(turns) > 0 && c.Author.FID == last {
			continue
		}
		role := models.RoleAssistant
		if c.Author.FID == authorFID {
			role = models.RoleUser
		}
		turns = append(turns, models.DialogueTurn{Role: role, Text: c.Text})
		last = c.Author.FID
	}
	return turns
}

func alternations(turns []models.DialogueTurn) int {
	n := 0
	for i := 1; i < len(turns); i++ {
		if turns[i].Role != turns[i-1].Role {
			n++
		}
	}
	return n
}
