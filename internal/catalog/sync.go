package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"stonegames/internal/repository"
)

// Synchronizer keeps a category's denormalized count in step with the games
// that reference it. Every count mutation goes through here so a backend
// without atomic increments only has to change AdjustCount.
//
// In strict mode (inside a transaction) a failed adjustment is returned so
// the whole sequence rolls back. Otherwise the failure is logged and
// journaled and the triggering game mutation stands; Reconcile repairs the
// drift.
type Synchronizer struct {
	categories repository.CategoryRepository
	journal    repository.SyncJournal
	strict     bool
}

// NewSynchronizer returns a synchronizer over categories. journal may be nil.
func NewSynchronizer(categories repository.CategoryRepository, journal repository.SyncJournal, strict bool) *Synchronizer {
	return &Synchronizer{categories: categories, journal: journal, strict: strict}
}

// OnGameCreated counts a newly inserted game. The caller must have checked
// that the category exists before inserting the game.
func (s *Synchronizer) OnGameCreated(ctx context.Context, categoryID string) error {
	return s.adjust(ctx, categoryID, +1, "game created")
}

// OnGameDeleted uncounts a game that was actually removed.
func (s *Synchronizer) OnGameDeleted(ctx context.Context, categoryID string) error {
	return s.adjust(ctx, categoryID, -1, "game deleted")
}

// OnGameCategoryChanged moves one game's weight from oldID to newID. oldID
// must be the category the game referenced immediately before the write,
// as reported by the store. The two adjustments are independent and run in
// id order, so two opposite moves never lock the same rows in reverse
// order.
func (s *Synchronizer) OnGameCategoryChanged(ctx context.Context, oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	first, second := adjustment{oldID, -1, "game moved out"}, adjustment{newID, +1, "game moved in"}
	if newID < oldID {
		first, second = second, first
	}
	if err := s.adjust(ctx, first.categoryID, first.delta, first.reason); err != nil {
		return err
	}
	return s.adjust(ctx, second.categoryID, second.delta, second.reason)
}

type adjustment struct {
	categoryID string
	delta      int
	reason     string
}

// SyncError is returned in strict mode when a count adjustment fails. The
// service journals it once the enclosing transaction has rolled back.
type SyncError struct {
	CategoryID string
	Delta      int
	Reason     string
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("adjust count of category %s (%s): %v", e.CategoryID, e.Reason, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (s *Synchronizer) adjust(ctx context.Context, categoryID string, delta int, reason string) error {
	err := s.categories.AdjustCount(ctx, categoryID, delta)
	if err == nil {
		return nil
	}
	if s.strict {
		return &SyncError{CategoryID: categoryID, Delta: delta, Reason: reason, Err: err}
	}

	slog.Warn("category count adjustment failed",
		"category_id", categoryID,
		"delta", delta,
		"reason", reason,
		"error", err,
	)
	if s.journal != nil {
		s.journal.Record(ctx, categoryID, delta, reason, err)
	}
	return nil
}
