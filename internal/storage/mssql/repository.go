package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"uiverse-scraper/internal/observability"
	"uiverse-scraper/internal/storage"
)

const schema = `
IF OBJECT_ID(N'dbo.TblComponents', N'U') IS NULL
CREATE TABLE dbo.TblComponents (
	[ID]         NVARCHAR(256)  NOT NULL PRIMARY KEY,
	[URL]        NVARCHAR(1024) NOT NULL,
	[Author]     NVARCHAR(128)  NOT NULL,
	[Title]      NVARCHAR(512)  NULL,
	[HTML]       NVARCHAR(MAX)  NOT NULL,
	[CSS]        NVARCHAR(MAX)  NOT NULL,
	[Success]    BIT            NOT NULL,
	[Error]      NVARCHAR(1024) NULL,
	[HTMLOrigin] NVARCHAR(16)   NULL,
	[CSSOrigin]  NVARCHAR(16)   NULL,
	[CheckSum]   CHAR(64)       NOT NULL,
	[ScrapedAt]  DATETIME2      NOT NULL
);`

const upsertQuery = `
		MERGE INTO dbo.TblComponents AS target
		USING (SELECT @ID AS ID) AS source
		ON target.[ID] = source.ID
		WHEN MATCHED AND (target.[CheckSum] <> @CheckSum OR target.[Success] <> @Success) THEN
			UPDATE SET
				[URL] = @URL,
				[Author] = @Author,
				[Title] = @Title,
				[HTML] = @HTML,
				[CSS] = @CSS,
				[Success] = @Success,
				[Error] = @Error,
				[HTMLOrigin] = @HTMLOrigin,
				[CSSOrigin] = @CSSOrigin,
				[CheckSum] = @CheckSum,
				[ScrapedAt] = @ScrapedAt
		WHEN NOT MATCHED THEN
			INSERT ([ID], [URL], [Author], [Title], [HTML], [CSS], [Success], [Error], [HTMLOrigin], [CSSOrigin], [CheckSum], [ScrapedAt])
			VALUES (@ID, @URL, @Author, @Title, @HTML, @CSS, @Success, @Error, @HTMLOrigin, @CSSOrigin, @CheckSum, @ScrapedAt)
		OUTPUT $action;
	`

type Repository struct {
	db             *sql.DB
	commandTimeout time.Duration
	logger         *observability.Logger
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(dsn string, commandTimeout time.Duration, logger *observability.Logger) (*Repository, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewRepositoryFromDB(db, commandTimeout, logger), nil
}

// NewRepositoryFromDB wraps an open handle without pinging it.
func NewRepositoryFromDB(db *sql.DB, commandTimeout time.Duration, logger *observability.Logger) *Repository {
	return &Repository{
		db:             db,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertItem merges a record by id. OUTPUT $action tells an insert from an
// update; no row means the stored content already matched.
func (r *Repository) UpsertItem(ctx context.Context, rec *storage.ComponentRecord) (isNew bool, isUpdated bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	stmt, err := r.db.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return false, false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var action string
	err = stmt.QueryRowContext(ctx,
		sql.Named("ID", rec.ID),
		sql.Named("URL", rec.URL),
		sql.Named("Author", rec.Author),
		sql.Named("Title", nullable(rec.Title)),
		sql.Named("HTML", rec.HTML),
		sql.Named("CSS", rec.CSS),
		sql.Named("Success", rec.Success),
		sql.Named("Error", nullable(rec.Error)),
		sql.Named("HTMLOrigin", nullable(rec.HTMLOrigin)),
		sql.Named("CSSOrigin", nullable(rec.CSSOrigin)),
		sql.Named("CheckSum", rec.CheckSum),
		sql.Named("ScrapedAt", rec.ScrapedAt),
	).Scan(&action)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, false, nil
	case err != nil:
		return false, false, fmt.Errorf("failed to execute upsert: %w", err)
	}

	switch action {
	case "INSERT":
		return true, false, nil
	case "UPDATE":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("unexpected merge action %q", action)
	}
}

func (r *Repository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := `SELECT COUNT(*) FROM dbo.TblComponents WHERE ID = @ID`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			r.logger.Error("Failed to close statement", "error", err.Error())
		}
	}()

	var count int
	err = stmt.QueryRowContext(ctx, sql.Named("ID", id)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query database: %w", err)
	}

	return count > 0, nil
}

// GetItemCount counts stored components that have content.
func (r *Repository) GetItemCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dbo.TblComponents WHERE Success = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query database: %w", err)
	}

	return count, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
