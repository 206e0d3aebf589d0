// Package catalog is the consistency engine behind the game catalog. It
// composes the identifier validator, the repositories, the count
// synchronizer, the deletion guard and the counters into the operations the
// HTTP layer exposes, and owns the error taxonomy those operations return.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

// ContentRenderer turns a game's long-form Markdown content into HTML.
type ContentRenderer func(source string) (string, error)

// Deps are the collaborators of a Service. Tx, Journal and Render are
// optional.
type Deps struct {
	Repos   repository.Repositories
	Tx      repository.TxRunner
	Journal repository.SyncJournal
	Render  ContentRenderer
}

// Service implements the catalog operations.
type Service struct {
	repos    repository.Repositories
	tx       repository.TxRunner
	journal  repository.SyncJournal
	render   ContentRenderer
	counters *Counters

	// Without transactions, mutations of one game are serialized by
	// gameLocks and reconciliation excludes every mutation through gate.
	gate      sync.RWMutex
	gameLocks keyedMutex
}

// NewService creates a catalog service.
func NewService(d Deps) *Service {
	return &Service{
		repos:    d.Repos,
		tx:       d.Tx,
		journal:  d.Journal,
		render:   d.Render,
		counters: NewCounters(d.Repos.Games),
	}
}

// unit is the set of collaborators a single mutating operation works with.
type unit struct {
	repos repository.Repositories
	sync  *Synchronizer
	guard *Guard
}

// mutate runs fn inside a transaction when the backend supports one, and
// as a best-effort sequence otherwise. In best-effort mode a non-empty
// gameID serializes fn with every other mutation of that game, so each
// one's count adjustments land before the next one reads the game.
func (s *Service) mutate(ctx context.Context, gameID string, fn func(u unit) error) error {
	if s.tx != nil {
		return s.inTx(ctx, fn)
	}
	s.gate.RLock()
	defer s.gate.RUnlock()
	if gameID != "" {
		defer s.gameLocks.lock(gameID).Unlock()
	}
	return fn(s.bestEffortUnit())
}

// exclusive runs fn with no other best-effort mutation in flight. With
// transactions it is the same as mutate; fn must lock what it reads.
func (s *Service) exclusive(ctx context.Context, fn func(u unit) error) error {
	if s.tx != nil {
		return s.inTx(ctx, fn)
	}
	s.gate.Lock()
	defer s.gate.Unlock()
	return fn(s.bestEffortUnit())
}

// inTx runs fn with strict synchronization. A failed count adjustment rolls
// the whole unit back and is then journaled.
func (s *Service) inTx(ctx context.Context, fn func(u unit) error) error {
	err := s.tx.InTx(ctx, func(r repository.Repositories) error {
		return fn(unit{
			repos: r,
			sync:  NewSynchronizer(r.Categories, nil, true),
			guard: NewGuard(r.Categories, r.Games),
		})
	})
	var se *SyncError
	if errors.As(err, &se) && s.journal != nil {
		s.journal.Record(ctx, se.CategoryID, se.Delta, se.Reason+" (rolled back)", se.Err)
	}
	return err
}

func (s *Service) bestEffortUnit() unit {
	return unit{
		repos: s.repos,
		sync:  NewSynchronizer(s.repos.Categories, s.journal, false),
		guard: NewGuard(s.repos.Categories, s.repos.Games),
	}
}

// --- Categories ---

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.repos.Categories.List(ctx)
	if err != nil {
		return nil, translate("list categories", err)
	}
	if items == nil {
		items = []models.Category{}
	}
	return items, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	if !objectid.IsValid(id) {
		return nil, ErrInvalidIdentifier
	}
	c, err := s.repos.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, translate("find category", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// CreateCategory adds a category with a zero count.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, in.Name, in.NameEn, ""); err != nil {
		return nil, err
	}

	icon := in.Icon
	if icon == "" {
		icon = models.DefaultIcon
	}
	created, err := s.repos.Categories.Create(ctx, &models.Category{
		ID:     objectid.New(),
		Name:   in.Name,
		NameEn: in.NameEn,
		Icon:   icon,
	})
	if err != nil {
		return nil, translate("create category", err)
	}

	slog.Info("category created", "category_id", created.ID, "name_en", created.NameEn)
	return created, nil
}

// UpdateCategory renames a category. An empty icon keeps the current one.
// The count is never touched here.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	if !objectid.IsValid(id) {
		return nil, ErrInvalidIdentifier
	}
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}

	existing, err := s.repos.Categories.FindByID(ctx, id)
	if err != nil {
		return nil, translate("find category", err)
	}
	if existing == nil {
		return nil, ErrNotFound
	}
	if err := s.ensureUniqueName(ctx, in.Name, in.NameEn, id); err != nil {
		return nil, err
	}

	existing.Name = in.Name
	existing.NameEn = in.NameEn
	if in.Icon != "" {
		existing.Icon = in.Icon
	}
	updated, err := s.repos.Categories.Update(ctx, existing)
	if err != nil {
		return nil, translate("update category", err)
	}
	return updated, nil
}

// DeleteCategory removes a category that no game references.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if !objectid.IsValid(id) {
		return ErrInvalidIdentifier
	}

	err := s.mutate(ctx, "", func(u unit) error {
		ok, blocking, err := u.guard.CanDeleteCategory(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return &CategoryInUseError{CategoryID: id, Games: blocking}
		}
		return u.repos.Categories.Delete(ctx, id)
	})
	if err != nil {
		var inUse *CategoryInUseError
		if errors.As(err, &inUse) {
			slog.Info("category deletion blocked", "category_id", id, "games", inUse.Games)
			return err
		}
		err = translate("delete category", err)
		if errors.As(err, &inUse) {
			inUse.CategoryID = id
		}
		return err
	}

	slog.Info("category deleted", "category_id", id)
	return nil
}

// ensureUniqueName rejects a (name, nameEn) pair that another category
// already uses.
func (s *Service) ensureUniqueName(ctx context.Context, name, nameEn, excludeID string) error {
	dup, err := s.repos.Categories.FindByNames(ctx, name, nameEn, excludeID)
	if err != nil {
		return translate("find category by names", err)
	}
	if dup != nil {
		return ErrDuplicateName
	}
	return nil
}

// --- Games ---

// ListGames returns one page of games.
func (s *Service) ListGames(ctx context.Context, q models.GameQuery) (*models.GamePage, error) {
	q.CategoryID = strings.TrimSpace(q.CategoryID)
	if q.CategoryID != "" && !objectid.IsValid(q.CategoryID) {
		return nil, ErrInvalidIdentifier
	}
	q.Search = strings.TrimSpace(q.Search)
	q = q.Normalize()

	items, total, err := s.repos.Games.List(ctx, q)
	if err != nil {
		return nil, translate("list games", err)
	}
	return models.NewGamePage(items, total, q), nil
}

// GetGame returns a game and records a view. A failed view increment is
// logged and the game is returned as read.
func (s *Service) GetGame(ctx context.Context, id string) (*models.Game, error) {
	if !objectid.IsValid(id) {
		return nil, ErrInvalidIdentifier
	}
	g, err := s.repos.Games.FindByID(ctx, id)
	if err != nil {
		return nil, translate("find game", err)
	}
	if g == nil {
		return nil, ErrNotFound
	}

	if views, err := s.counters.IncrementViews(ctx, id); err != nil {
		slog.Warn("view increment failed", "game_id", id, "error", err)
	} else {
		g.Views = views
	}

	s.decorate(ctx, g)
	return g, nil
}

// ViewGame records a view without loading the game and returns the new
// view count.
func (s *Service) ViewGame(ctx context.Context, id string) (int64, error) {
	return s.counters.IncrementViews(ctx, id)
}

// LikeGame records a like and returns the new like count. Repeated calls
// add repeated likes.
func (s *Service) LikeGame(ctx context.Context, id string) (int64, error) {
	return s.counters.IncrementLikes(ctx, id)
}

// CreateGame inserts a game and counts it in its category. The category is
// checked before the insert so no game is ever created without one.
func (s *Service) CreateGame(ctx context.Context, in GameInput) (*models.Game, error) {
	in.normalize()
	if err := check(&in); err != nil {
		return nil, err
	}
	if !objectid.IsValid(in.CategoryID) {
		return nil, ErrInvalidIdentifier
	}

	var created *models.Game
	var category *models.Category
	id := objectid.New()
	err := s.mutate(ctx, id, func(u unit) error {
		c, err := u.repos.Categories.FindByID(ctx, in.CategoryID)
		if err != nil {
			return err
		}
		if c == nil {
			return ErrCategoryNotFound
		}
		category = c

		created, err = u.repos.Games.Create(ctx, &models.Game{
			ID:            id,
			Title:         in.Title,
			TitleEn:       in.TitleEn,
			Description:   in.Description,
			DescriptionEn: in.DescriptionEn,
			ImageURL:      in.ImageURL,
			GameURL:       in.GameURL,
			CategoryID:    in.CategoryID,
			Tags:          in.Tags,
			Screenshots:   in.Screenshots,
			Developer:     in.Developer,
			ReleaseDate:   in.ReleaseDate,
			Content:       in.Content,
			ContentEn:     in.ContentEn,
		})
		if err != nil {
			return err
		}
		return u.sync.OnGameCreated(ctx, created.CategoryID)
	})
	if err != nil {
		return nil, translate("create game", err)
	}

	created.Category = category.Summary()
	slog.Info("game created", "game_id", created.ID, "category_id", created.CategoryID)
	return created, nil
}

// UpdateGame applies a partial update. Moving a game to another category
// moves its weight between the two counts; the target category must exist.
// Counters are never changed here.
func (s *Service) UpdateGame(ctx context.Context, id string, patch GamePatch) (*models.Game, error) {
	if !objectid.IsValid(id) {
		return nil, ErrInvalidIdentifier
	}
	patch.normalize()
	if err := check(&patch); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil && !objectid.IsValid(*patch.CategoryID) {
		return nil, ErrInvalidIdentifier
	}

	var updated *models.Game
	err := s.mutate(ctx, id, func(u unit) error {
		existing, err := u.repos.Games.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}

		if patch.CategoryID != nil && *patch.CategoryID != existing.CategoryID {
			c, err := u.repos.Categories.FindByID(ctx, *patch.CategoryID)
			if err != nil {
				return err
			}
			if c == nil {
				return ErrCategoryNotFound
			}
		}

		patch.apply(existing)
		// The count moves from the category the store replaced, which a
		// concurrent update may have changed since FindByID.
		var prevCategoryID string
		updated, prevCategoryID, err = u.repos.Games.Update(ctx, existing)
		if err != nil {
			return err
		}
		return u.sync.OnGameCategoryChanged(ctx, prevCategoryID, updated.CategoryID)
	})
	if err != nil {
		return nil, translate("update game", err)
	}

	s.decorate(ctx, updated)
	return updated, nil
}

// DeleteGame removes a game and uncounts it. Nothing is uncounted if the
// game did not exist.
func (s *Service) DeleteGame(ctx context.Context, id string) error {
	if !objectid.IsValid(id) {
		return ErrInvalidIdentifier
	}

	err := s.mutate(ctx, id, func(u unit) error {
		categoryID, err := u.repos.Games.Delete(ctx, id)
		if err != nil {
			return err
		}
		return u.sync.OnGameDeleted(ctx, categoryID)
	})
	if err != nil {
		return translate("delete game", err)
	}

	slog.Info("game deleted", "game_id", id)
	return nil
}

// apply copies the set fields of p onto g.
func (p *GamePatch) apply(g *models.Game) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&g.Title, p.Title)
	set(&g.TitleEn, p.TitleEn)
	set(&g.Description, p.Description)
	set(&g.DescriptionEn, p.DescriptionEn)
	set(&g.ImageURL, p.ImageURL)
	set(&g.GameURL, p.GameURL)
	set(&g.CategoryID, p.CategoryID)
	set(&g.Developer, p.Developer)
	set(&g.ReleaseDate, p.ReleaseDate)
	set(&g.Content, p.Content)
	set(&g.ContentEn, p.ContentEn)
	if p.Tags != nil {
		g.Tags = p.Tags
	}
	if p.Screenshots != nil {
		g.Screenshots = p.Screenshots
	}
	g.UpdatedAt = time.Now()
}

// decorate fills the virtual fields of a game detail. Failures only lose
// the decoration.
func (s *Service) decorate(ctx context.Context, g *models.Game) {
	c, err := s.repos.Categories.FindByID(ctx, g.CategoryID)
	if err != nil {
		slog.Warn("load game category failed", "game_id", g.ID, "error", err)
	} else if c != nil {
		g.Category = c.Summary()
	}

	if s.render == nil {
		return
	}
	if g.Content != "" {
		if out, err := s.render(g.Content); err != nil {
			slog.Warn("render game content failed", "game_id", g.ID, "error", err)
		} else {
			g.ContentHTML = out
		}
	}
	if g.ContentEn != "" {
		if out, err := s.render(g.ContentEn); err != nil {
			slog.Warn("render game content failed", "game_id", g.ID, "lang", "en", "error", err)
		} else {
			g.ContentEnHTML = out
		}
	}
}
