package database

import (
	"context"
	"testing"

	"stonegames/internal/catalog"
	"stonegames/internal/memstore"
	"stonegames/internal/store"
)

func TestSeedIdempotent(t *testing.T) {
	svc := catalog.NewService(catalog.Deps{Repos: memstore.New().Repositories()})
	ctx := context.Background()

	if err := Seed(ctx, svc); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, svc); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	cats, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != len(seedCategories) {
		t.Fatalf("categories: got %d, want %d", len(cats), len(seedCategories))
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalGames != len(seedGames) {
		t.Errorf("games: got %d, want %d", stats.TotalGames, len(seedGames))
	}

	// Counts are derived from the inserted games.
	want := map[string]int{"Puzzle": 2, "Action": 2, "Strategy": 1, "Casual": 0, "Shooter": 0}
	for _, c := range cats {
		if c.Count != want[c.NameEn] {
			t.Errorf("count of %s: got %d, want %d", c.NameEn, c.Count, want[c.NameEn])
		}
	}
}

func TestSeedPostgres(t *testing.T) {
	db, err := Connect(context.Background(), testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seeding is only checked for not failing: other test packages may be
	// running against the same database concurrently, in which case Seed
	// sees existing categories and skips.
	pg := store.NewCatalog(db)
	svc := catalog.NewService(catalog.Deps{
		Repos:   pg.Repositories(),
		Tx:      pg,
		Journal: store.NewSyncLogStore(db),
	})
	if err := Seed(context.Background(), svc); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(context.Background(), svc); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
}
