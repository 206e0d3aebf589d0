package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stonegames/internal/models"
	"stonegames/internal/repository"
)

// Reconcile recomputes every category's count from the games that
// reference it and overwrites counts that drifted. It is the repair path
// for best-effort synchronization failures and is never run automatically.
//
// Each drifted category is locked, recounted and rewritten in its own unit
// of work, so concurrent game mutations serialize with the repair instead
// of being overwritten by it.
func (s *Service) Reconcile(ctx context.Context) (*models.ReconcileReport, error) {
	started := time.Now()

	categories, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, translate("list categories", err)
	}
	counts, err := s.repos.Games.CountsByCategory(ctx)
	if err != nil {
		return nil, translate("count games by category", err)
	}

	report := &models.ReconcileReport{
		Checked:   len(categories),
		Repaired:  []models.DriftEntry{},
		StartedAt: started,
	}
	for _, c := range categories {
		if c.Count == counts[c.ID] {
			continue
		}

		var stored, actual int
		err := s.exclusive(ctx, func(u unit) error {
			// Lock before counting so games inserted concurrently are
			// either counted here or adjusted on top of the new value.
			if err := u.repos.Categories.Lock(ctx, c.ID); err != nil {
				return err
			}
			current, err := u.repos.Categories.FindByID(ctx, c.ID)
			if err != nil {
				return err
			}
			if current == nil {
				return repository.ErrNotFound
			}
			n, err := u.repos.Games.CountByCategory(ctx, c.ID)
			if err != nil {
				return err
			}
			stored, actual = current.Count, n
			if stored == actual {
				return nil
			}
			return u.repos.Categories.SetCount(ctx, c.ID, n)
		})
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted since the listing.
			continue
		}
		if err != nil {
			return nil, translate("repair category count", err)
		}
		if stored == actual {
			continue
		}

		slog.Warn("category count drift repaired",
			"category_id", c.ID,
			"stored", stored,
			"actual", actual,
		)
		report.Repaired = append(report.Repaired, models.DriftEntry{
			CategoryID: c.ID,
			Name:       c.NameEn,
			Stored:     stored,
			Actual:     actual,
		})
	}

	report.Duration = time.Since(started).String()
	slog.Info("reconciliation finished",
		"checked", report.Checked,
		"repaired", len(report.Repaired),
		"duration", report.Duration,
	)
	return report, nil
}
