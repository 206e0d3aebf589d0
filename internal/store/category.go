// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stonegames/internal/models"
	"stonegames/internal/objectid"
	"stonegames/internal/repository"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db DBTX
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db DBTX) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, name_en, icon, count, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.NameEn, &c.Icon,
		&c.Count, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	if err := objectid.Check(id); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindByNames retrieves the category holding the (name, name_en) pair,
// skipping excludeID. Returns nil if there is none.
func (s *CategoryStore) FindByNames(ctx context.Context, name, nameEn, excludeID string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE name = $1 AND name_en = $2 AND id <> $3
		LIMIT 1
	`, name, nameEn, excludeID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by names: %w", err)
	}
	return c, nil
}

// List returns all categories ordered by creation time.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Count returns the number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// Create inserts a new category with a zero count and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := objectid.Check(c.ID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, name_en, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.NameEn, c.Icon,
	)
	result, err := scanCategory(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, repository.ErrDuplicateKey
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies name, name_en and icon. The count is left alone.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := objectid.Check(c.ID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, name_en = $2, icon = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+categoryColumns,
		c.Name, c.NameEn, c.Icon, c.ID,
	)
	result, err := scanCategory(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, repository.ErrNotFound
	case pgCode(err) == pgUniqueViolation:
		return nil, repository.ErrDuplicateKey
	case err != nil:
		return nil, fmt.Errorf("update category: %w", err)
	}
	return result, nil
}

// Delete removes a category by ID. The games foreign key is ON DELETE
// RESTRICT, so a referenced category is refused with repository.ErrInUse.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return repository.ErrInUse
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return expectRow(res)
}

// AdjustCount adds delta to the count in a single UPDATE, clamped at zero.
func (s *CategoryStore) AdjustCount(ctx context.Context, id string, delta int) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET count = GREATEST(count + $1::int, 0) WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("adjust category count: %w", err)
	}
	return expectRow(res)
}

// SetCount overwrites the count.
func (s *CategoryStore) SetCount(ctx context.Context, id string, count int) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE categories SET count = GREATEST($1::int, 0) WHERE id = $2`,
		count, id,
	)
	if err != nil {
		return fmt.Errorf("set category count: %w", err)
	}
	return expectRow(res)
}

// Lock takes the category row lock for the rest of the transaction. Game
// inserts referencing the category hold a key-share lock on the same row
// through the foreign key, so Lock also waits for uncommitted inserts.
func (s *CategoryStore) Lock(ctx context.Context, id string) error {
	if err := objectid.Check(id); err != nil {
		return err
	}
	var got string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}
	return nil
}
