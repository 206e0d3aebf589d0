// Package repository declares the catalog store contract: the CRUD
// primitives over categories and games that every storage backend
// implements, and the errors they report. Implementations know nothing about
// cross-collection invariants; those belong to the catalog service.
package repository

import (
	"context"
	"errors"

	"stonegames/internal/models"
)

var (
	// ErrNotFound is returned when an id-keyed mutation matches no row.
	// Lookups return (nil, nil) on a miss instead.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a category's (name, nameEn) pair
	// collides with an existing row.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInUse is returned when the backend itself refuses to delete a
	// category that games still reference.
	ErrInUse = errors.New("record still referenced")

	// ErrMissingReference is returned when the backend itself refuses a
	// game whose category does not exist.
	ErrMissingReference = errors.New("referenced record missing")
)

// CategoryRepository stores categories.
type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*models.Category, error)
	// FindByNames returns the category whose (name, nameEn) pair equals the
	// given one, ignoring the category with id excludeID. Returns nil when
	// there is no such category.
	FindByNames(ctx context.Context, name, nameEn, excludeID string) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id string) error

	// AdjustCount adds delta to the category's count as one atomic
	// operation. The result is clamped at zero.
	AdjustCount(ctx context.Context, id string, delta int) error
	// SetCount overwrites the count. Only reconciliation uses it.
	SetCount(ctx context.Context, id string, count int) error
	// Lock holds the category row until the enclosing transaction ends, so
	// a recount cannot interleave with games being added to or removed
	// from it. Outside a transaction it only checks that the row exists.
	Lock(ctx context.Context, id string) error
}

// GameRepository stores games.
type GameRepository interface {
	FindByID(ctx context.Context, id string) (*models.Game, error)
	// List returns one page of games matching q along with the total number
	// of matches. q must already be normalized.
	List(ctx context.Context, q models.GameQuery) ([]models.Game, int, error)
	Create(ctx context.Context, g *models.Game) (*models.Game, error)
	// Update overwrites the game and returns the category it referenced
	// immediately before the write, read atomically with it. Concurrent
	// updates of one game therefore each see the previous one's result.
	Update(ctx context.Context, g *models.Game) (updated *models.Game, prevCategoryID string, err error)
	// Delete removes the game and returns the category it referenced at the
	// moment of deletion.
	Delete(ctx context.Context, id string) (categoryID string, err error)

	// CountByCategory returns the live number of games referencing the
	// category.
	CountByCategory(ctx context.Context, categoryID string) (int, error)
	// CountsByCategory returns the live game count for every referenced
	// category.
	CountsByCategory(ctx context.Context) (map[string]int, error)
	// Increment atomically adds one to the named counter and returns the
	// new value.
	Increment(ctx context.Context, id string, field models.CounterField) (int64, error)
	Totals(ctx context.Context) (models.GameTotals, error)
}

// Repositories bundles the two collections.
type Repositories struct {
	Categories CategoryRepository
	Games      GameRepository
}

// TxRunner is implemented by backends that can run several repository
// calls atomically. fn receives repositories bound to the transaction; a
// non-nil return rolls everything back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// SyncJournal records count mutations that failed outside a transaction.
// Record is best-effort and never returns an error.
type SyncJournal interface {
	Record(ctx context.Context, categoryID string, delta int, reason string, cause error)
	Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error)
}
