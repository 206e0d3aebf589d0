// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"stonegames/internal/database"
	"stonegames/internal/models"
	"stonegames/internal/objectid"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "stonegames")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "stonegames")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(context.Background(), testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// newTestCategory inserts a category with unique names and removes it,
// along with its games, when the test finishes.
func newTestCategory(t *testing.T, db *sql.DB, nameEn string) *models.Category {
	t.Helper()
	id := objectid.New()
	c, err := NewCategoryStore(db).Create(context.Background(), &models.Category{
		ID:     id,
		Name:   nameEn + " " + id,
		NameEn: nameEn + " " + id,
		Icon:   models.DefaultIcon,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM games WHERE category_id = $1", id)
		db.Exec("DELETE FROM categories WHERE id = $1", id)
	})
	return c
}

// newTestGame inserts a game in the given category.
func newTestGame(t *testing.T, db *sql.DB, categoryID, title string) *models.Game {
	t.Helper()
	g, err := NewGameStore(db).Create(context.Background(), &models.Game{
		ID:            objectid.New(),
		Title:         title,
		TitleEn:       title,
		Description:   "About " + title,
		DescriptionEn: "About " + title,
		ImageURL:      "/images/test.png",
		GameURL:       "https://games.example.com/test",
		CategoryID:    categoryID,
		Tags:          []string{"test", "casual"},
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}
