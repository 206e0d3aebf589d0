package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stonegames/internal/models"
)

// Stats aggregates catalog-wide totals.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	var (
		totals     models.GameTotals
		categories int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.repos.Games.Totals(gctx)
		if err != nil {
			return translate("game totals", err)
		}
		totals = t
		return nil
	})
	g.Go(func() error {
		n, err := s.repos.Categories.Count(gctx)
		if err != nil {
			return translate("count categories", err)
		}
		categories = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.Stats{
		TotalGames:      totals.Games,
		TotalCategories: categories,
		TotalViews:      totals.Views,
		TotalLikes:      totals.Likes,
	}, nil
}

// Home returns every category plus the most viewed and newest games, each
// list capped at limit.
func (s *Service) Home(ctx context.Context, limit int) (*models.Home, error) {
	home := &models.Home{}
	q := models.GameQuery{Page: 1, Limit: limit}.Normalize()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.ListCategories(gctx)
		home.Categories = items
		return err
	})
	g.Go(func() error {
		popular := q
		popular.Sort = models.SortViews
		items, _, err := s.repos.Games.List(gctx, popular)
		if err != nil {
			return translate("list popular games", err)
		}
		home.Popular = nonNil(items)
		return nil
	})
	g.Go(func() error {
		newest := q
		newest.Sort = models.SortNewest
		items, _, err := s.repos.Games.List(gctx, newest)
		if err != nil {
			return translate("list newest games", err)
		}
		home.Newest = nonNil(items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return home, nil
}

// SyncLog returns the most recent failed count adjustments. Backends
// without a journal report none.
func (s *Service) SyncLog(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	if s.journal == nil {
		return []models.SyncLogEntry{}, nil
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	entries, err := s.journal.Recent(ctx, limit)
	if err != nil {
		return nil, translate("read sync log", err)
	}
	if entries == nil {
		entries = []models.SyncLogEntry{}
	}
	return entries, nil
}

func nonNil(items []models.Game) []models.Game {
	if items == nil {
		return []models.Game{}
	}
	return items
}
