package catalog

import (
	"context"

	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

// Counters bumps view and like counters. Increments are single atomic
// storage operations, so concurrent calls never lose updates and counters
// never decrease. Delivery is at-least-once: a retried request counts
// twice, and likes are not deduplicated per user.
type Counters struct {
	games repository.GameRepository
}

// NewCounters returns a counter subsystem over games.
func NewCounters(games repository.GameRepository) *Counters {
	return &Counters{games: games}
}

// IncrementViews adds one view and returns the new total.
func (c *Counters) IncrementViews(ctx context.Context, gameID string) (int64, error) {
	return c.increment(ctx, gameID, models.CounterViews)
}

// IncrementLikes adds one like and returns the new total.
func (c *Counters) IncrementLikes(ctx context.Context, gameID string) (int64, error) {
	return c.increment(ctx, gameID, models.CounterLikes)
}

func (c *Counters) increment(ctx context.Context, gameID string, field models.CounterField) (int64, error) {
	if err := objectid.Check(gameID); err != nil {
		return 0, ErrInvalidIdentifier
	}
	n, err := c.games.Increment(ctx, gameID, field)
	if err != nil {
		return 0, translate("increment "+string(field), err)
	}
	return n, nil
}
