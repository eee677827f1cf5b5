package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS components (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	author      TEXT NOT NULL,
	title       TEXT,
	html        TEXT NOT NULL,
	css         TEXT NOT NULL,
	success     BOOLEAN NOT NULL,
	error       TEXT,
	html_origin TEXT,
	css_origin  TEXT,
	checksum    CHAR(64) NOT NULL,
	scraped_at  TIMESTAMPTZ NOT NULL
)`

// xmax is zero only for a freshly inserted row. The WHERE clause skips
// rows whose content is unchanged, which then return nothing.
const upsertQuery = `
	INSERT INTO components (id, url, author, title, html, css, success, error, html_origin, css_origin, checksum, scraped_at)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		url = EXCLUDED.url,
		author = EXCLUDED.author,
		title = EXCLUDED.title,
		html = EXCLUDED.html,
		css = EXCLUDED.css,
		success = EXCLUDED.success,
		error = EXCLUDED.error,
		html_origin = EXCLUDED.html_origin,
		css_origin = EXCLUDED.css_origin,
		checksum = EXCLUDED.checksum,
		scraped_at = EXCLUDED.scraped_at
	WHERE components.checksum <> EXCLUDED.checksum OR components.success <> EXCLUDED.success
	RETURNING (xmax = 0) AS inserted
`

type Repository struct {
	pool           *pgxpool.Pool
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(ctx context.Context, dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool, commandTimeout: commandTimeout, logger: logger}, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *Repository) UpsertItem(ctx context.Context, rec *storage.ComponentRecord) (isNew bool, isUpdated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var inserted bool
	err = r.pool.QueryRow(ctx, upsertQuery,
		rec.ID, rec.URL, rec.Author, rec.Title, rec.HTML, rec.CSS, rec.Success,
		rec.Error, rec.HTMLOrigin, rec.CSSOrigin, rec.CheckSum, rec.ScrapedAt,
	).Scan(&inserted)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		r.logger.Debug("Component unchanged", "id", rec.ID)
		return false, false, nil
	case err != nil:
		return false, false, fmt.Errorf("failed to upsert component %s: %w", rec.ID, err)
	}

	return inserted, !inserted, nil
}

func (r *Repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM components WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}
	return exists, nil
}

func (r *Repository) GetItemCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM components WHERE success`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}
	return count, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
