package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"uiverse-scraper/internal/catalog"
	"uiverse-scraper/internal/checksum"
	"uiverse-scraper/internal/extract"
)

func TestNewRecord(t *testing.T) {
	gen := checksum.NewGenerator()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	item := catalog.ScrapeItem{
		URL:        "https://uiverse.io/bob/card-7",
		ID:         "bob-card-7",
		Author:     "bob",
		HTML:       "<div class=\"card\"></div>",
		CSS:        ".card{}",
		Success:    true,
		Provenance: &extract.Provenance{HTML: extract.OriginDOM, CSS: extract.OriginNetwork},
	}

	rec := NewRecord(item, gen, at)

	assert.Equal(t, "bob-card-7", rec.ID)
	assert.Equal(t, "dom", rec.HTMLOrigin)
	assert.Equal(t, "network", rec.CSSOrigin)
	assert.Equal(t, time.UTC, rec.ScrapedAt.Location())
	assert.True(t, gen.VerifySnippetHash(rec.CheckSum, item.ID, item.HTML, item.CSS))
}

func TestNewRecordWithoutProvenance(t *testing.T) {
	item := catalog.ScrapeItem{ID: "bob-card-8", Error: "timeout"}

	rec := NewRecord(item, checksum.NewGenerator(), time.Now())

	assert.Empty(t, rec.HTMLOrigin)
	assert.Empty(t, rec.CSSOrigin)
	assert.False(t, rec.Success)
	assert.Equal(t, "timeout", rec.Error)
}
