// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the catalog repositories on PostgreSQL. Every
// store runs its statements through a DBTX, so the same code serves plain
// connections and transactions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"stonegames/internal/repository"
)

// PostgreSQL error codes the stores translate.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// DBTX is the subset of *sql.DB and *sql.Tx the stores use.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Catalog bundles the category and game stores over one database and runs
// multi-step sequences in transactions.
type Catalog struct {
	db *sql.DB
}

// NewCatalog returns a Catalog over db.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// Repositories returns stores bound to the connection pool.
func (c *Catalog) Repositories() repository.Repositories {
	return bind(c.db)
}

func bind(db DBTX) repository.Repositories {
	return repository.Repositories{
		Categories: NewCategoryStore(db),
		Games:      NewGameStore(db),
	}
}

// InTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (c *Catalog) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// pgCode returns the SQLSTATE of a PostgreSQL error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// expectRow turns a zero-row mutation into repository.ErrNotFound.
func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with the
// LIKE metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
