// Package catalog holds the persisted scrape output: one item per
// component page plus run counters.
package catalog

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"uiverse-scraper/internal/extract"
)

// ComponentSource identifies a component page. ID is "<author>-<slug>",
// lowercased.
type ComponentSource struct {
	URL    string
	Author string
	Slug   string
	ID     string
}

// NewComponentSource derives the identity from the two path segments of a
// component URL.
func NewComponentSource(rawURL string) (ComponentSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ComponentSource{}, fmt.Errorf("invalid component url %q: %w", rawURL, err)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) != 2 || segs[0] == "" || segs[1] == "" {
		return ComponentSource{}, fmt.Errorf("invalid component url %q: want /<author>/<slug>", rawURL)
	}
	author := strings.ToLower(segs[0])
	slug := strings.ToLower(segs[1])
	return ComponentSource{
		URL:    rawURL,
		Author: author,
		Slug:   slug,
		ID:     author + "-" + slug,
	}, nil
}

// ScrapeItem is one catalog entry.
type ScrapeItem struct {
	URL        string              `json:"url"`
	ID         string              `json:"id"`
	Author     string              `json:"author"`
	Title      string              `json:"title,omitempty"`
	HTML       string              `json:"html"`
	CSS        string              `json:"css"`
	Success    bool                `json:"success"`
	Error      string              `json:"error,omitempty"`
	Provenance *extract.Provenance `json:"provenance,omitempty"`
}

// NewItem builds an item from a reconciled result. Success follows the
// content, never the caller.
func NewItem(src ComponentSource, title string, res extract.Result) ScrapeItem {
	item := ScrapeItem{
		URL:     src.URL,
		ID:      src.ID,
		Author:  src.Author,
		Title:   title,
		HTML:    res.HTML,
		CSS:     res.CSS,
		Success: res.Success(),
	}
	if res.Provenance != (extract.Provenance{}) {
		prov := res.Provenance
		item.Provenance = &prov
	}
	return item
}

// FailedItem records a visit that ended in an error.
func FailedItem(src ComponentSource, title string, err error) ScrapeItem {
	return ScrapeItem{
		URL:    src.URL,
		ID:     src.ID,
		Author: src.Author,
		Title:  title,
		Error:  err.Error(),
	}
}

// Catalog is the document written at the end of a run.
type Catalog struct {
	ScrapedAt time.Time    `json:"scrapedAt"`
	Count     int          `json:"count"`
	Requested int          `json:"requested"`
	Attempted int          `json:"attempted"`
	Items     []ScrapeItem `json:"items"`

	index map[string]int
}

func New(requested, attempted int) *Catalog {
	return &Catalog{
		Requested: requested,
		Attempted: attempted,
		Items:     []ScrapeItem{},
		index:     make(map[string]int),
	}
}

// Add appends an item, or overwrites the earlier item with the same id in
// place. It returns the replaced item when that happens.
func (c *Catalog) Add(item ScrapeItem) (ScrapeItem, bool) {
	if c.index == nil {
		c.index = make(map[string]int)
		for i, it := range c.Items {
			c.index[it.ID] = i
		}
	}
	if i, ok := c.index[item.ID]; ok {
		prev := c.Items[i]
		c.Items[i] = item
		return prev, true
	}
	c.index[item.ID] = len(c.Items)
	c.Items = append(c.Items, item)
	return ScrapeItem{}, false
}

// Finalize stamps the catalog and recounts successful items.
func (c *Catalog) Finalize(at time.Time) {
	c.ScrapedAt = at.UTC()
	c.Count = 0
	for _, it := range c.Items {
		if it.Success {
			c.Count++
		}
	}
}
