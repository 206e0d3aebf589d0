// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// sync_log.go records category count adjustments that failed outside a
// transaction. Each entry captures which category drifted, by how much,
// and why, so an operator can decide when to run reconciliation.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"stonegames/internal/models"
)

// SyncLogStore handles count sync log operations.
type SyncLogStore struct {
	db *sql.DB
}

// NewSyncLogStore creates a new SyncLogStore.
func NewSyncLogStore(db *sql.DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

// Record logs a failed count adjustment.
func (s *SyncLogStore) Record(ctx context.Context, categoryID string, delta int, reason string, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	// The failed adjustment may have been cancelled with the request; the
	// journal entry must still be written.
	ctx = context.WithoutCancel(ctx)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO count_sync_log (category_id, delta, reason, error)
		VALUES ($1, $2, $3, $4)
	`, categoryID, delta, reason, msg)
	if err != nil {
		// Log but don't fail: the journal is best-effort.
		slog.Warn("failed to log count sync failure",
			"category_id", categoryID,
			"delta", delta,
			"reason", reason,
			"error", err,
		)
		return
	}
	slog.Debug("count sync failure logged",
		"category_id", categoryID,
		"delta", delta,
		"reason", reason,
	)
}

// Recent returns the most recent entries, newest first.
func (s *SyncLogStore) Recent(ctx context.Context, limit int) ([]models.SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, delta, reason, error, logged_at
		FROM count_sync_log
		ORDER BY logged_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncLogEntry
	for rows.Next() {
		var e models.SyncLogEntry
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Delta, &e.Reason, &e.Error, &e.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan sync log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
