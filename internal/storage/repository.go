// Package storage mirrors catalog items into a relational store.
package storage

import (
	"context"
	"time"

	"uiverse-scraper/internal/catalog"
	"uiverse-scraper/internal/checksum"
)

// ComponentRecord is one catalog item as stored in the database.
type ComponentRecord struct {
	ID         string
	URL        string
	Author     string
	Title      string
	HTML       string
	CSS        string
	Success    bool
	Error      string
	HTMLOrigin string
	CSSOrigin  string
	CheckSum   string // SHA256 of id, html and css
	ScrapedAt  time.Time
}

// NewRecord converts a catalog item and fingerprints its snippets.
func NewRecord(item catalog.ScrapeItem, gen *checksum.Generator, scrapedAt time.Time) *ComponentRecord {
	rec := &ComponentRecord{
		ID:        item.ID,
		URL:       item.URL,
		Author:    item.Author,
		Title:     item.Title,
		HTML:      item.HTML,
		CSS:       item.CSS,
		Success:   item.Success,
		Error:     item.Error,
		CheckSum:  gen.SnippetHash(item.ID, item.HTML, item.CSS),
		ScrapedAt: scrapedAt.UTC(),
	}
	if item.Provenance != nil {
		rec.HTMLOrigin = string(item.Provenance.HTML)
		rec.CSSOrigin = string(item.Provenance.CSS)
	}
	return rec
}

// Repository stores component records keyed by component id.
type Repository interface {
	// EnsureSchema creates the components table when it is missing.
	EnsureSchema(ctx context.Context) error

	// UpsertItem inserts or updates a record. Records whose checksum and
	// success flag are unchanged are left alone and report neither flag.
	UpsertItem(ctx context.Context, rec *ComponentRecord) (isNew bool, isUpdated bool, err error)

	ExistsByID(ctx context.Context, id string) (bool, error)

	GetItemCount(ctx context.Context) (int, error)

	Close() error
}
