// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

// GameStore manages games in the database.
type GameStore struct {
	db DBTX
}

// NewGameStore returns a new GameStore.
func NewGameStore(db DBTX) *GameStore {
	return &GameStore{db: db}
}

const gameColumns = `id, title, title_en, description, description_en,
	image_url, game_url, category_id, tags, screenshots,
	developer, release_date, content, content_en,
	views, likes, created_at, updated_at`

// scanGame scans a row into a Game struct. tags and screenshots are JSONB
// arrays.
func scanGame(scanner interface{ Scan(...any) error }) (*models.Game, error) {
	var (
		g                 models.Game
		tags, screenshots []byte
	)
	err := scanner.Scan(
		&g.ID, &g.Title, &g.TitleEn, &g.Description, &g.DescriptionEn,
		&g.ImageURL, &g.GameURL, &g.CategoryID, &tags, &screenshots,
		&g.Developer, &g.ReleaseDate, &g.Content, &g.ContentEn,
		&g.Views, &g.Likes, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if g.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if g.Screenshots, err = decodeList(screenshots); err != nil {
		return nil, fmt.Errorf("decode screenshots: %w", err)
	}
	return &g, nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// encodeList renders a list as a JSON array literal; nil becomes "[]".
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FindByID retrieves a game by ID. Returns nil if not found.
func (s *GameStore) FindByID(ctx context.Context, id string) (*models.Game, error) {
	if err := objectid.Check(id); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game by id: %w", err)
	}
	return g, nil
}

// gameOrder maps a sort key onto an ORDER BY clause. Every clause ends in
// a unique column so pages are stable.
var gameOrder = map[models.GameSort]string{
	models.SortNewest: `created_at DESC, id DESC`,
	models.SortViews:  `views DESC, created_at DESC, id DESC`,
	models.SortLikes:  `likes DESC, created_at DESC, id DESC`,
	models.SortTitle:  `title ASC, id ASC`,
}

// List returns one page of games matching q plus the total match count.
func (s *GameStore) List(ctx context.Context, q models.GameQuery) ([]models.Game, int, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if q.CategoryID != "" {
		where = append(where, "category_id = "+arg(q.CategoryID))
	}
	if q.Search != "" {
		p := arg(containsPattern(q.Search))
		where = append(where, fmt.Sprintf(
			`(title ILIKE %[1]s ESCAPE '\' OR title_en ILIKE %[1]s ESCAPE '\'
			 OR description ILIKE %[1]s ESCAPE '\' OR description_en ILIKE %[1]s ESCAPE '\')`, p))
	}
	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	order, ok := gameOrder[q.Sort]
	if !ok {
		order = gameOrder[models.SortNewest]
	}
	query := `SELECT ` + gameColumns + ` FROM games` + filter +
		` ORDER BY ` + order +
		` LIMIT ` + arg(q.Limit) + ` OFFSET ` + arg(q.Offset())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var items []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		items = append(items, *g)
	}
	return items, total, rows.Err()
}

// Create inserts a new game with zero counters and returns it. A missing
// category is refused by the foreign key with repository.ErrMissingReference.
func (s *GameStore) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	if err := objectid.Check(g.ID); err != nil {
		return nil, err
	}
	if err := objectid.Check(g.CategoryID); err != nil {
		return nil, err
	}
	tags, screenshots, err := encodeLists(g)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO games (id, title, title_en, description, description_en,
			image_url, game_url, category_id, tags, screenshots,
			developer, release_date, content, content_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10::jsonb, $11, $12, $13, $14)
		RETURNING `+gameColumns,
		g.ID, g.Title, g.TitleEn, g.Description, g.DescriptionEn,
		g.ImageURL, g.GameURL, g.CategoryID, tags, screenshots,
		g.Developer, g.ReleaseDate, g.Content, g.ContentEn,
	)
	result, err := scanGame(row)
	switch {
	case pgCode(err) == pgForeignKeyViolation:
		return nil, repository.ErrMissingReference
	case pgCode(err) == pgUniqueViolation:
		return nil, repository.ErrDuplicateKey
	case err != nil:
		return nil, fmt.Errorf("create game: %w", err)
	}
	return result, nil
}

// Update overwrites every editable column and returns the category the row
// referenced right before the write. The previous row is read FOR UPDATE in
// the same statement, so a concurrent update of the same game is seen
// rather than overwritten blindly. views and likes are only ever changed by
// Increment.
func (s *GameStore) Update(ctx context.Context, g *models.Game) (*models.Game, string, error) {
	if err := objectid.Check(g.ID); err != nil {
		return nil, "", err
	}
	if err := objectid.Check(g.CategoryID); err != nil {
		return nil, "", err
	}
	tags, screenshots, err := encodeLists(g)
	if err != nil {
		return nil, "", err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE games SET
			title = $1, title_en = $2, description = $3, description_en = $4,
			image_url = $5, game_url = $6, category_id = $7,
			tags = $8::jsonb, screenshots = $9::jsonb,
			developer = $10, release_date = $11, content = $12, content_en = $13,
			updated_at = NOW()
		FROM (
			SELECT id AS prev_id, category_id AS prev_category_id
			FROM games WHERE id = $14
			FOR UPDATE
		) AS prev
		WHERE games.id = prev.prev_id
		RETURNING `+gameColumns+`, prev.prev_category_id`,
		g.Title, g.TitleEn, g.Description, g.DescriptionEn,
		g.ImageURL, g.GameURL, g.CategoryID, tags, screenshots,
		g.Developer, g.ReleaseDate, g.Content, g.ContentEn, g.ID,
	)
	var prevCategoryID string
	result, err := scanGame(trailing{row: row, extra: []any{&prevCategoryID}})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, "", repository.ErrNotFound
	case pgCode(err) == pgForeignKeyViolation:
		return nil, "", repository.ErrMissingReference
	case err != nil:
		return nil, "", fmt.Errorf("update game: %w", err)
	}
	return result, prevCategoryID, nil
}

// trailing scans extra columns that follow the ones scanGame knows about.
type trailing struct {
	row   *sql.Row
	extra []any
}

func (t trailing) Scan(dest ...any) error {
	return t.row.Scan(append(dest, t.extra...)...)
}

func encodeLists(g *models.Game) (tags, screenshots string, err error) {
	if tags, err = encodeList(g.Tags); err != nil {
		return "", "", fmt.Errorf("encode tags: %w", err)
	}
	if screenshots, err = encodeList(g.Screenshots); err != nil {
		return "", "", fmt.Errorf("encode screenshots: %w", err)
	}
	return tags, screenshots, nil
}

// Delete removes a game by ID and returns the category it referenced.
func (s *GameStore) Delete(ctx context.Context, id string) (string, error) {
	if err := objectid.Check(id); err != nil {
		return "", err
	}
	var categoryID string
	err := s.db.QueryRowContext(ctx, `DELETE FROM games WHERE id = $1 RETURNING category_id`, id).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete game: %w", err)
	}
	return categoryID, nil
}

// CountByCategory counts the games referencing a category.
func (s *GameStore) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	if err := objectid.Check(categoryID); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE category_id = $1`, categoryID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count games by category: %w", err)
	}
	return n, nil
}

// CountsByCategory counts games per referenced category.
func (s *GameStore) CountsByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category_id, COUNT(*) FROM games GROUP BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("count games per category: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan game count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// Increment adds one to views or likes in a single UPDATE and returns the
// new value.
func (s *GameStore) Increment(ctx context.Context, id string, field models.CounterField) (int64, error) {
	if err := objectid.Check(id); err != nil {
		return 0, err
	}
	if !field.Valid() {
		return 0, fmt.Errorf("increment game: unknown counter %q", field)
	}
	// field is one of two fixed column names.
	query := `UPDATE games SET ` + string(field) + ` = ` + string(field) + ` + 1 WHERE id = $1 RETURNING ` + string(field)

	var n int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment game %s: %w", field, err)
	}
	return n, nil
}

// Totals sums counters over every game.
func (s *GameStore) Totals(ctx context.Context) (models.GameTotals, error) {
	var t models.GameTotals
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(views), 0)::bigint, COALESCE(SUM(likes), 0)::bigint FROM games`,
	).Scan(&t.Games, &t.Views, &t.Likes)
	if err != nil {
		return t, fmt.Errorf("game totals: %w", err)
	}
	return t, nil
}
