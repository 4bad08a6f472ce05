package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/javifm86/weather-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// List returns every persisted subscription.
func (r *SQLiteRepo) List(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, hour, minute, lat, lon
		FROM subscriptions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Subscription
	for rows.Next() {
		var (
			chatID       int64
			hour, minute int
			lat, lon     float64
		)
		if err := rows.Scan(&chatID, &hour, &minute, &lat, &lon); err != nil {
			return nil, err
		}
		res = append(res, domain.Subscription{
			ChatID: chatID,
			Hour:   &hour,
			Minute: &minute,
			Lat:    &lat,
			Lon:    &lon,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Upsert inserts or replaces a subscription row. The record must be complete.
func (r *SQLiteRepo) Upsert(ctx context.Context, sub *domain.Subscription) error {
	if sub == nil {
		return errors.New("nil subscription")
	}
	if !sub.Complete() {
		return fmt.Errorf("subscription for chat %d is incomplete", sub.ChatID)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (chat_id, hour, minute, lat, lon)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			hour   = excluded.hour,
			minute = excluded.minute,
			lat    = excluded.lat,
			lon    = excluded.lon`,
		sub.ChatID, *sub.Hour, *sub.Minute, *sub.Lat, *sub.Lon,
	)
	return err
}

// Delete removes the row for chatID. Deleting an absent row is not an error.
func (r *SQLiteRepo) Delete(ctx context.Context, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM subscriptions
		WHERE chat_id = ?`,
		chatID,
	)
	return err
}
