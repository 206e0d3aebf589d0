package catalog

import (
	"context"

	"stonegames/internal/repository"
)

// Guard decides whether a category may be deleted.
type Guard struct {
	categories repository.CategoryRepository
	games      repository.GameRepository
}

// NewGuard returns a deletion guard over both collections.
func NewGuard(categories repository.CategoryRepository, games repository.GameRepository) *Guard {
	return &Guard{categories: categories, games: games}
}

// CanDeleteCategory reports whether the category has no games. The stored
// count only serves as a fast-path rejection; a zero count is confirmed
// against the games collection, so drift can never make a referenced
// category look deletable. blocking is the number of games found.
func (g *Guard) CanDeleteCategory(ctx context.Context, categoryID string) (ok bool, blocking int, err error) {
	c, err := g.categories.FindByID(ctx, categoryID)
	if err != nil {
		return false, 0, translate("find category", err)
	}
	if c == nil {
		return false, 0, ErrNotFound
	}
	if c.Count > 0 {
		return false, c.Count, nil
	}

	n, err := g.games.CountByCategory(ctx, categoryID)
	if err != nil {
		return false, 0, translate("count games by category", err)
	}
	if n > 0 {
		return false, n, nil
	}
	return true, 0, nil
}
