package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stonegames/internal/memstore"
	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

var errInjected = errors.New("injected storage failure")

// flakyCategories fails selected category operations.
type flakyCategories struct {
	repository.CategoryRepository
	failAdjust bool
	failList   bool
	listHook   func()
}

func (f *flakyCategories) AdjustCount(ctx context.Context, id string, delta int) error {
	if f.failAdjust {
		return errInjected
	}
	return f.CategoryRepository.AdjustCount(ctx, id, delta)
}

func (f *flakyCategories) List(ctx context.Context) ([]models.Category, error) {
	if f.failList {
		return nil, errInjected
	}
	items, err := f.CategoryRepository.List(ctx)
	if hook := f.listHook; hook != nil {
		f.listHook = nil
		hook()
	}
	return items, err
}

// flakyGames fails counter increments.
type flakyGames struct {
	repository.GameRepository
	failIncrement bool
}

func (f *flakyGames) Increment(ctx context.Context, id string, field models.CounterField) (int64, error) {
	if f.failIncrement {
		return 0, errInjected
	}
	return f.GameRepository.Increment(ctx, id, field)
}

type fixture struct {
	svc     *Service
	cats    *flakyCategories
	games   *flakyGames
	journal *memstore.Journal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memstore.New().Repositories()
	f := &fixture{
		cats:    &flakyCategories{CategoryRepository: repos.Categories},
		games:   &flakyGames{GameRepository: repos.Games},
		journal: memstore.NewJournal(0),
	}
	f.svc = NewService(Deps{
		Repos:   repository.Repositories{Categories: f.cats, Games: f.games},
		Journal: f.journal,
		Render: func(src string) (string, error) {
			return "<p>" + src + "</p>\n", nil
		},
	})
	return f
}

func (f *fixture) category(t *testing.T, nameEn string) *models.Category {
	t.Helper()
	c, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: nameEn + " ar", NameEn: nameEn})
	require.NoError(t, err)
	return c
}

// errOf drops the counter value of a like or view.
func errOf(_ int64, err error) error { return err }

func gameInput(categoryID, title string) GameInput {
	return GameInput{
		Title:         title,
		TitleEn:       title,
		Description:   "About " + title,
		DescriptionEn: "About " + title,
		ImageURL:      "/images/" + strings.ToLower(title) + ".png",
		GameURL:       "https://games.example.com/" + strings.ToLower(title),
		CategoryID:    categoryID,
		Tags:          []string{"casual", " "},
	}
}

func (f *fixture) game(t *testing.T, categoryID, title string) *models.Game {
	t.Helper()
	g, err := f.svc.CreateGame(context.Background(), gameInput(categoryID, title))
	require.NoError(t, err)
	return g
}

func (f *fixture) count(t *testing.T, categoryID string) int {
	t.Helper()
	c, err := f.svc.GetCategory(context.Background(), categoryID)
	require.NoError(t, err)
	return c.Count
}

func TestPuzzleLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	puzzle := f.category(t, "Puzzle")
	assert.Equal(t, 0, puzzle.Count)
	assert.Equal(t, models.DefaultIcon, puzzle.Icon)

	sudoku := f.game(t, puzzle.ID, "Sudoku")
	assert.Equal(t, []string{"casual"}, sudoku.Tags)
	require.NotNil(t, sudoku.Category)
	assert.Equal(t, "Puzzle", sudoku.Category.NameEn)
	tetris := f.game(t, puzzle.ID, "Tetris")
	assert.Equal(t, 2, f.count(t, puzzle.ID))

	require.NoError(t, f.svc.DeleteGame(ctx, sudoku.ID))
	assert.Equal(t, 1, f.count(t, puzzle.ID))

	err := f.svc.DeleteCategory(ctx, puzzle.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)
	var inUse *CategoryInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 1, inUse.Games)
	assert.Equal(t, puzzle.ID, inUse.CategoryID)
	assert.Equal(t, 1, f.count(t, puzzle.ID))

	require.NoError(t, f.svc.DeleteGame(ctx, tetris.ID))
	assert.Equal(t, 0, f.count(t, puzzle.ID))
	require.NoError(t, f.svc.DeleteCategory(ctx, puzzle.ID))

	_, err = f.svc.GetCategory(ctx, puzzle.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReassignGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t, "Action")
	b := f.category(t, "Adventure")
	g := f.game(t, a.ID, "Doom")
	f.game(t, a.ID, "Quake")

	updated, err := f.svc.UpdateGame(ctx, g.ID, GamePatch{CategoryID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.CategoryID)
	assert.Equal(t, "Adventure", updated.Category.NameEn)
	assert.Equal(t, 1, f.count(t, a.ID))
	assert.Equal(t, 1, f.count(t, b.ID))

	// Same category: nothing moves.
	title := "Doom II"
	_, err = f.svc.UpdateGame(ctx, g.ID, GamePatch{CategoryID: &b.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(t, a.ID))
	assert.Equal(t, 1, f.count(t, b.ID))

	// Missing target: rejected and nothing moves.
	missing := objectid.New()
	_, err = f.svc.UpdateGame(ctx, g.ID, GamePatch{CategoryID: &missing})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
	assert.Equal(t, 1, f.count(t, a.ID))
	assert.Equal(t, 1, f.count(t, b.ID))

	got, err := f.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.CategoryID)
	assert.Equal(t, "Doom II", got.Title)
}

func TestUpdateGameKeepsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	g := f.game(t, c.ID, "Sudoku")
	require.NoError(t, errOf(f.svc.LikeGame(ctx, g.ID)))
	require.NoError(t, errOf(f.svc.ViewGame(ctx, g.ID)))

	dev := "Stone Studio"
	updated, err := f.svc.UpdateGame(ctx, g.ID, GamePatch{Developer: &dev, Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Likes)
	assert.Equal(t, int64(1), updated.Views)
	assert.Equal(t, "Stone Studio", updated.Developer)
	assert.Empty(t, updated.Tags)
	assert.Equal(t, "Sudoku", updated.Title)
}

func TestInvalidIdentifiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"", "undefined", "null", "zz", "507F1F77BCF86CD799439011", "507f1f77bcf86cd79943901"} {
		t.Run("id="+id, func(t *testing.T) {
			_, err := f.svc.GetGame(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
			assert.ErrorIs(t, errOf(f.svc.LikeGame(ctx, id)), ErrInvalidIdentifier)
			assert.ErrorIs(t, errOf(f.svc.ViewGame(ctx, id)), ErrInvalidIdentifier)
			assert.ErrorIs(t, f.svc.DeleteGame(ctx, id), ErrInvalidIdentifier)
			assert.ErrorIs(t, f.svc.DeleteCategory(ctx, id), ErrInvalidIdentifier)
			_, err = f.svc.GetCategory(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
			_, err = f.svc.UpdateCategory(ctx, id, CategoryInput{Name: "x", NameEn: "x"})
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}

	_, err := f.svc.ListGames(ctx, models.GameQuery{CategoryID: "undefined"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = f.svc.CreateGame(ctx, gameInput("not-an-id", "Orphan"))
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	f.game(t, c.ID, "Sudoku")
	id := objectid.New()

	_, err := f.svc.GetGame(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, errOf(f.svc.LikeGame(ctx, id)), ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteGame(ctx, id), ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteCategory(ctx, id), ErrNotFound)
	_, err = f.svc.UpdateGame(ctx, id, GamePatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	// A missing game deletion never touches any count.
	assert.Equal(t, 1, f.count(t, c.ID))
}

func TestCreateGameMissingCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateGame(context.Background(), gameInput(objectid.New(), "Orphan"))
	require.ErrorIs(t, err, ErrCategoryNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalGames)
}

func TestDuplicateCategoryName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	puzzle := f.category(t, "Puzzle")
	action := f.category(t, "Action")

	_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: " Puzzle ar ", NameEn: "Puzzle"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = f.svc.UpdateCategory(ctx, action.ID, CategoryInput{Name: "Puzzle ar", NameEn: "Puzzle"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Renaming to its own pair is fine; an empty icon keeps the current one.
	updated, err := f.svc.UpdateCategory(ctx, puzzle.ID, CategoryInput{Name: "Puzzle ar", NameEn: "Puzzle"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultIcon, updated.Icon)

	updated, err = f.svc.UpdateCategory(ctx, puzzle.ID, CategoryInput{Name: "Puzzle ar", NameEn: "Puzzle", Icon: "🧩"})
	require.NoError(t, err)
	assert.Equal(t, "🧩", updated.Icon)
}

func TestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	g := f.game(t, c.ID, "Sudoku")

	_, err := f.svc.CreateCategory(ctx, CategoryInput{Name: "  ", NameEn: "Puzzle 2"})
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	in := gameInput(c.ID, "Tetris")
	in.Title = ""
	in.GameURL = ""
	_, err = f.svc.CreateGame(ctx, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["title"])
	assert.Contains(t, verr.Fields, "gameUrl")

	empty := " "
	_, err = f.svc.UpdateGame(ctx, g.ID, GamePatch{Title: &empty})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")

	assert.Equal(t, 1, f.count(t, c.ID))
}

func TestConcurrentCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Action")
	g := f.game(t, c.ID, "Doom")

	const n = 100
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		views = make(map[int64]bool, n)
	)
	for range n {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, errOf(f.svc.LikeGame(ctx, g.ID)))
		}()
		go func() {
			defer wg.Done()
			got, err := f.svc.GetGame(ctx, g.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			views[got.Views] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Every read observed a distinct post-increment value.
	assert.Len(t, views, n)
	for v := int64(1); v <= n; v++ {
		assert.True(t, views[v], "missing view value %d", v)
	}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stats.TotalLikes)
	assert.Equal(t, int64(n), stats.TotalViews)
}

func TestGetGameSurvivesCounterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	g := f.game(t, c.ID, "Sudoku")

	f.games.failIncrement = true
	got, err := f.svc.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Views)
	assert.Equal(t, "Sudoku", got.Title)

	err = errOf(f.svc.LikeGame(ctx, g.ID))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errInjected)
}

func TestGetGameDecorates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	in := gameInput(c.ID, "Sudoku")
	in.Content = "**fill** the grid"
	created, err := f.svc.CreateGame(ctx, in)
	require.NoError(t, err)

	got, err := f.svc.GetGame(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)
	assert.Equal(t, "<p>**fill** the grid</p>\n", got.ContentHTML)
	assert.Empty(t, got.ContentEnHTML)
	require.NotNil(t, got.Category)
	assert.Equal(t, c.ID, got.Category.ID)
}

func TestBestEffortSyncFailureIsJournaled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")

	f.cats.failAdjust = true
	g, err := f.svc.CreateGame(ctx, gameInput(c.ID, "Sudoku"))
	require.NoError(t, err, "the game mutation stands")
	assert.Equal(t, 0, f.count(t, c.ID), "count drifted")

	entries, err := f.svc.SyncLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, c.ID, entries[0].CategoryID)
	assert.Equal(t, 1, entries[0].Delta)
	assert.Contains(t, entries[0].Error, errInjected.Error())

	// Drift never makes a referenced category deletable.
	err = f.svc.DeleteCategory(ctx, c.ID)
	var inUse *CategoryInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 1, inUse.Games)

	f.cats.failAdjust = false
	report, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	require.Len(t, report.Repaired, 1)
	assert.Equal(t, models.DriftEntry{CategoryID: c.ID, Name: "Puzzle", Stored: 0, Actual: 1}, report.Repaired[0])
	assert.Equal(t, 1, f.count(t, c.ID))

	// A second pass finds nothing.
	report, err = f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Repaired)

	require.NoError(t, f.svc.DeleteGame(ctx, g.ID))
	assert.Equal(t, 0, f.count(t, c.ID))
}

func TestStorageFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.cats.failList = true

	_, err := f.svc.ListCategories(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, errInjected)

	_, err = f.svc.Home(context.Background(), 5)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestCountInvariantUnderRandomOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 42))

	var cats []string
	for _, name := range []string{"Puzzle", "Action", "Strategy", "Adventure"} {
		cats = append(cats, f.category(t, name).ID)
	}
	var games []string

	for i := range 300 {
		switch op := rng.IntN(3); {
		case op == 0 || len(games) == 0:
			g := f.game(t, cats[rng.IntN(len(cats))], "Game")
			games = append(games, g.ID)
		case op == 1:
			idx := rng.IntN(len(games))
			target := cats[rng.IntN(len(cats))]
			_, err := f.svc.UpdateGame(ctx, games[idx], GamePatch{CategoryID: &target})
			require.NoError(t, err, "op %d", i)
		default:
			idx := rng.IntN(len(games))
			require.NoError(t, f.svc.DeleteGame(ctx, games[idx]), "op %d", i)
			games = append(games[:idx], games[idx+1:]...)
		}
	}

	total := 0
	for _, id := range cats {
		page, err := f.svc.ListGames(ctx, models.GameQuery{CategoryID: id, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, page.Total, f.count(t, id), "category %s", id)
		total += page.Total
	}
	assert.Equal(t, len(games), total)

	report, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Repaired)
}

func TestListGames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")
	for _, title := range []string{"Sudoku", "Tetris", "Kakuro"} {
		f.game(t, c.ID, title)
	}

	page, err := f.svc.ListGames(ctx, models.GameQuery{Search: "  tetris ", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, models.MaxLimit, page.Limit)

	page, err = f.svc.ListGames(ctx, models.GameQuery{Page: 2, Limit: 2, Sort: models.SortTitle})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Tetris", page.Data[0].Title)

	page, err = f.svc.ListGames(ctx, models.GameQuery{CategoryID: objectid.New()})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Data)
}

func TestStatsAndHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	puzzle := f.category(t, "Puzzle")
	action := f.category(t, "Action")
	sudoku := f.game(t, puzzle.ID, "Sudoku")
	doom := f.game(t, action.ID, "Doom")
	require.NoError(t, errOf(f.svc.ViewGame(ctx, sudoku.ID)))
	require.NoError(t, errOf(f.svc.ViewGame(ctx, sudoku.ID)))
	require.NoError(t, errOf(f.svc.LikeGame(ctx, doom.ID)))

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalGames: 2, TotalCategories: 2, TotalViews: 2, TotalLikes: 1}, *stats)

	home, err := f.svc.Home(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, home.Categories, 2)
	require.Len(t, home.Popular, 1)
	assert.Equal(t, sudoku.ID, home.Popular[0].ID)
	require.Len(t, home.Newest, 1)
	assert.Equal(t, doom.ID, home.Newest[0].ID)
}

func TestSyncLogWithoutJournal(t *testing.T) {
	svc := NewService(Deps{Repos: memstore.New().Repositories()})
	entries, err := svc.SyncLog(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

// inlineTx runs the unit directly against the repositories, so the strict
// path can be exercised without a database. Nothing is rolled back.
type inlineTx struct {
	repos repository.Repositories
}

func (tx inlineTx) InTx(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(tx.repos)
}

func TestStrictSyncFailureIsJournaledAfterRollback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")

	repos := repository.Repositories{Categories: f.cats, Games: f.games}
	svc := NewService(Deps{Repos: repos, Tx: inlineTx{repos: repos}, Journal: f.journal})

	f.cats.failAdjust = true
	_, err := svc.CreateGame(ctx, gameInput(c.ID, "Sudoku"))
	require.Error(t, err, "strict mode fails the whole unit")
	assert.ErrorIs(t, err, errInjected)

	entries, err := svc.SyncLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, c.ID, entries[0].CategoryID)
	assert.Equal(t, 1, entries[0].Delta)
	assert.Contains(t, entries[0].Reason, "rolled back")
	assert.Contains(t, entries[0].Error, errInjected.Error())
}

func TestConcurrentMovesOfOneGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.category(t, "Action").ID
	b := f.category(t, "Shooter").ID
	c := f.category(t, "Arcade").ID

	const rounds = 300
	for i := range rounds {
		g := f.game(t, a, "Doom")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.svc.UpdateGame(ctx, g.ID, GamePatch{CategoryID: &b})
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Errorf("round %d: move to b: %v", i, err)
			}
		}()
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.svc.UpdateGame(ctx, g.ID, GamePatch{CategoryID: &c})
			} else {
				err = f.svc.DeleteGame(ctx, g.ID)
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				t.Errorf("round %d: move to c or delete: %v", i, err)
			}
		}()
		wg.Wait()
	}

	total := 0
	for _, id := range []string{a, b, c} {
		page, err := f.svc.ListGames(ctx, models.GameQuery{CategoryID: id, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, page.Total, f.count(t, id), "category %s", id)
		total += page.Total
	}
	assert.Zero(t, f.count(t, a))
	assert.LessOrEqual(t, total, rounds)
	entries, err := f.svc.SyncLog(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "no adjustment should have failed")
}

func TestReconcileDuringConcurrentCreates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.category(t, "Puzzle")

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				if _, err := f.svc.CreateGame(ctx, gameInput(c.ID, "Sudoku")); err != nil {
					t.Errorf("CreateGame: %v", err)
				}
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		report, err := f.svc.Reconcile(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Repaired, "a consistent count was rewritten")
	}

	assert.Equal(t, workers*perWorker, f.count(t, c.ID))
}

func TestReconcileSkipsDeletedCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.category(t, "Action")
	gone := f.category(t, "Arcade")

	f.cats.failAdjust = true
	f.game(t, kept.ID, "Doom")
	f.cats.failAdjust = false

	// The listing still carries gone with a count of 7, but the row is
	// removed before the repair reaches it.
	require.NoError(t, f.cats.CategoryRepository.SetCount(ctx, gone.ID, 7))
	f.cats.listHook = func() {
		require.NoError(t, f.cats.CategoryRepository.Delete(ctx, gone.ID))
	}

	report, err := f.svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Repaired, 1)
	assert.Equal(t, kept.ID, report.Repaired[0].CategoryID)
	assert.Equal(t, 1, f.count(t, kept.ID))
}
