// Package memstore is an in-memory catalog backend. It offers no
// transactions, so the catalog service runs its multi-step sequences in
// best-effort mode on top of it. Counts and counters are atomic integers
// updated with compare-and-swap loops, the substitute for a storage-level
// atomic increment.
//
// It backs STORE_BACKEND=memory and every test that should run without
// infrastructure.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

type categoryRecord struct {
	cat   models.Category // Count is ignored; see count
	count atomic.Int64
}

type gameRecord struct {
	game  models.Game // Views and Likes are ignored; see views, likes
	seq   uint64
	views atomic.Int64
	likes atomic.Int64
}

// Store holds both collections. The mutex guards the maps and the plain
// fields of each record; the atomic fields are updated under a read lock.
type Store struct {
	mu         sync.RWMutex
	categories map[string]*categoryRecord
	games      map[string]*gameRecord
	seq        uint64
	now        func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		categories: make(map[string]*categoryRecord),
		games:      make(map[string]*gameRecord),
		now:        time.Now,
	}
}

// Repositories returns the category and game views of the store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Categories: &Categories{s: s},
		Games:      &Games{s: s},
	}
}

// Categories implements repository.CategoryRepository.
type Categories struct{ s *Store }

// Games implements repository.GameRepository.
type Games struct{ s *Store }

// --- categories ---

func (r *categoryRecord) snapshot() *models.Category {
	c := r.cat
	c.Count = int(r.count.Load())
	return &c
}

// FindByID returns the category or nil.
func (c *Categories) FindByID(_ context.Context, id string) (*models.Category, error) {
	if err := objectid.Check(id); err != nil {
		return nil, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	rec, ok := c.s.categories[id]
	if !ok {
		return nil, nil
	}
	return rec.snapshot(), nil
}

// FindByNames returns the category holding the (name, nameEn) pair.
func (c *Categories) FindByNames(_ context.Context, name, nameEn, excludeID string) (*models.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	for id, rec := range c.s.categories {
		if id != excludeID && rec.cat.Name == name && rec.cat.NameEn == nameEn {
			return rec.snapshot(), nil
		}
	}
	return nil, nil
}

// List returns all categories ordered by creation time.
func (c *Categories) List(_ context.Context) ([]models.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	items := make([]models.Category, 0, len(c.s.categories))
	for _, rec := range c.s.categories {
		items = append(items, *rec.snapshot())
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// Count returns the number of categories.
func (c *Categories) Count(_ context.Context) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return len(c.s.categories), nil
}

// Create inserts a category with a zero count.
func (c *Categories) Create(_ context.Context, in *models.Category) (*models.Category, error) {
	if err := objectid.Check(in.ID); err != nil {
		return nil, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, exists := c.s.categories[in.ID]; exists {
		return nil, repository.ErrDuplicateKey
	}
	if c.s.namesTaken(in.Name, in.NameEn, "") {
		return nil, repository.ErrDuplicateKey
	}

	now := c.s.now()
	rec := &categoryRecord{cat: *in}
	rec.cat.Count = 0
	rec.cat.CreatedAt = now
	rec.cat.UpdatedAt = now
	c.s.categories[in.ID] = rec
	return rec.snapshot(), nil
}

// Update overwrites name, English name and icon.
func (c *Categories) Update(_ context.Context, in *models.Category) (*models.Category, error) {
	if err := objectid.Check(in.ID); err != nil {
		return nil, err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	rec, ok := c.s.categories[in.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.s.namesTaken(in.Name, in.NameEn, in.ID) {
		return nil, repository.ErrDuplicateKey
	}
	rec.cat.Name = in.Name
	rec.cat.NameEn = in.NameEn
	rec.cat.Icon = in.Icon
	rec.cat.UpdatedAt = c.s.now()
	return rec.snapshot(), nil
}

// Delete removes a category. Like the foreign key in Postgres it refuses
// while any game still references the category.
func (c *Categories) Delete(_ context.Context, id string) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	for _, g := range c.s.games {
		if g.game.CategoryID == id {
			return repository.ErrInUse
		}
	}
	delete(c.s.categories, id)
	return nil
}

// AdjustCount adds delta to the count with a compare-and-swap loop, clamped
// at zero.
func (c *Categories) AdjustCount(_ context.Context, id string, delta int) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	c.s.mu.RLock()
	rec, ok := c.s.categories[id]
	c.s.mu.RUnlock()
	if !ok {
		return repository.ErrNotFound
	}

	for {
		old := rec.count.Load()
		next := max(old+int64(delta), 0)
		if rec.count.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// SetCount overwrites the count.
func (c *Categories) SetCount(_ context.Context, id string, count int) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	rec, ok := c.s.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.count.Store(int64(max(count, 0)))
	return nil
}

// Lock only checks that the category exists. The store has no
// transactions to hold a lock across; the catalog service serializes
// reconciliation against game mutations itself on this backend.
func (c *Categories) Lock(_ context.Context, id string) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	if _, ok := c.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	return nil
}

// namesTaken must be called with the lock held.
func (s *Store) namesTaken(name, nameEn, excludeID string) bool {
	for id, rec := range s.categories {
		if id != excludeID && rec.cat.Name == name && rec.cat.NameEn == nameEn {
			return true
		}
	}
	return false
}

// --- games ---

func (r *gameRecord) snapshot() *models.Game {
	g := r.game
	g.Tags = append([]string{}, r.game.Tags...)
	g.Screenshots = append([]string{}, r.game.Screenshots...)
	g.Views = r.views.Load()
	g.Likes = r.likes.Load()
	return &g
}

// FindByID returns the game or nil.
func (g *Games) FindByID(_ context.Context, id string) (*models.Game, error) {
	if err := objectid.Check(id); err != nil {
		return nil, err
	}
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	rec, ok := g.s.games[id]
	if !ok {
		return nil, nil
	}
	return rec.snapshot(), nil
}

// List filters, sorts and pages the games.
func (g *Games) List(_ context.Context, q models.GameQuery) ([]models.Game, int, error) {
	g.s.mu.RLock()
	matched := make([]*gameRecord, 0, len(g.s.games))
	needle := strings.ToLower(q.Search)
	for _, rec := range g.s.games {
		if q.CategoryID != "" && rec.game.CategoryID != q.CategoryID {
			continue
		}
		if needle != "" && !matchesSearch(&rec.game, needle) {
			continue
		}
		matched = append(matched, rec)
	}
	items := make([]models.Game, 0, len(matched))
	seqs := make(map[string]uint64, len(matched))
	for _, rec := range matched {
		items = append(items, *rec.snapshot())
		seqs[rec.game.ID] = rec.seq
	}
	g.s.mu.RUnlock()

	newer := func(a, b models.Game) bool { return seqs[a.ID] > seqs[b.ID] }
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch q.Sort {
		case models.SortViews:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case models.SortLikes:
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
		case models.SortTitle:
			if a.Title != b.Title {
				return a.Title < b.Title
			}
			return a.ID < b.ID
		}
		return newer(a, b)
	})

	total := len(items)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return items[start:end], total, nil
}

// matchesSearch ORs a case-insensitive substring match over the title and
// description fields.
func matchesSearch(g *models.Game, needle string) bool {
	for _, field := range []string{g.Title, g.TitleEn, g.Description, g.DescriptionEn} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// Create inserts a game with zero counters.
func (g *Games) Create(_ context.Context, in *models.Game) (*models.Game, error) {
	if err := objectid.Check(in.ID); err != nil {
		return nil, err
	}
	if err := objectid.Check(in.CategoryID); err != nil {
		return nil, err
	}
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	if _, exists := g.s.games[in.ID]; exists {
		return nil, repository.ErrDuplicateKey
	}
	if _, ok := g.s.categories[in.CategoryID]; !ok {
		return nil, repository.ErrMissingReference
	}

	now := g.s.now()
	g.s.seq++
	rec := &gameRecord{game: *in, seq: g.s.seq}
	rec.game.Tags = append([]string{}, in.Tags...)
	rec.game.Screenshots = append([]string{}, in.Screenshots...)
	rec.game.Views, rec.game.Likes = 0, 0
	rec.game.Category, rec.game.ContentHTML, rec.game.ContentEnHTML = nil, "", ""
	rec.game.CreatedAt = now
	rec.game.UpdatedAt = now
	g.s.games[in.ID] = rec
	return rec.snapshot(), nil
}

// Update overwrites every editable field and returns the category the game
// belonged to right before the write. Counters are left alone.
func (g *Games) Update(_ context.Context, in *models.Game) (*models.Game, string, error) {
	if err := objectid.Check(in.ID); err != nil {
		return nil, "", err
	}
	if err := objectid.Check(in.CategoryID); err != nil {
		return nil, "", err
	}
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	rec, ok := g.s.games[in.ID]
	if !ok {
		return nil, "", repository.ErrNotFound
	}
	if _, ok := g.s.categories[in.CategoryID]; !ok {
		return nil, "", repository.ErrMissingReference
	}

	prevCategoryID := rec.game.CategoryID
	createdAt := rec.game.CreatedAt
	rec.game = *in
	rec.game.Tags = append([]string{}, in.Tags...)
	rec.game.Screenshots = append([]string{}, in.Screenshots...)
	rec.game.Category, rec.game.ContentHTML, rec.game.ContentEnHTML = nil, "", ""
	rec.game.CreatedAt = createdAt
	rec.game.UpdatedAt = g.s.now()
	return rec.snapshot(), prevCategoryID, nil
}

// Delete removes a game and returns the category it belonged to.
func (g *Games) Delete(_ context.Context, id string) (string, error) {
	if err := objectid.Check(id); err != nil {
		return "", err
	}
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	rec, ok := g.s.games[id]
	if !ok {
		return "", repository.ErrNotFound
	}
	delete(g.s.games, id)
	return rec.game.CategoryID, nil
}

// CountByCategory counts the games referencing a category.
func (g *Games) CountByCategory(_ context.Context, categoryID string) (int, error) {
	if err := objectid.Check(categoryID); err != nil {
		return 0, err
	}
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	n := 0
	for _, rec := range g.s.games {
		if rec.game.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// CountsByCategory counts games per referenced category.
func (g *Games) CountsByCategory(_ context.Context) (map[string]int, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, rec := range g.s.games {
		counts[rec.game.CategoryID]++
	}
	return counts, nil
}

// Increment adds one to a counter with a compare-and-swap loop.
func (g *Games) Increment(_ context.Context, id string, field models.CounterField) (int64, error) {
	if err := objectid.Check(id); err != nil {
		return 0, err
	}
	if !field.Valid() {
		return 0, fmt.Errorf("increment: unknown counter %q", field)
	}
	g.s.mu.RLock()
	rec, ok := g.s.games[id]
	g.s.mu.RUnlock()
	if !ok {
		return 0, repository.ErrNotFound
	}

	counter := &rec.likes
	if field == models.CounterViews {
		counter = &rec.views
	}
	for {
		old := counter.Load()
		if counter.CompareAndSwap(old, old+1) {
			return old + 1, nil
		}
	}
}

// Totals sums counters over every game.
func (g *Games) Totals(_ context.Context) (models.GameTotals, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	t := models.GameTotals{Games: len(g.s.games)}
	for _, rec := range g.s.games {
		t.Views += rec.views.Load()
		t.Likes += rec.likes.Load()
	}
	return t, nil
}
