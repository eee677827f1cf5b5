// Package discovery builds the bounded list of component pages to visit.
package discovery

import (
	"context"
	"fmt"
	"net/url"

	"uiverse-scraper/internal/observability"
)

const (
	MinCount = 1
	MaxCount = 10
)

// ListingSource returns the markup of a listing page.
type ListingSource interface {
	Listing(ctx context.Context, listingURL string) (string, error)
}

type Options struct {
	ListingURL  string
	Reserved    []string
	Oversample  int
	MinDiscover int
}

type Discoverer struct {
	source  ListingSource
	opts    Options
	listing *url.URL
	logger  *observability.Logger
}

// NewDiscoverer accepts a nil source, which means seeds only.
func NewDiscoverer(source ListingSource, opts Options, logger *observability.Logger) (*Discoverer, error) {
	listing, err := url.Parse(opts.ListingURL)
	if err != nil || listing.Host == "" {
		return nil, fmt.Errorf("invalid listing url %q", opts.ListingURL)
	}
	if opts.Reserved == nil {
		opts.Reserved = DefaultReserved
	}
	if opts.Oversample < 1 {
		opts.Oversample = 1
	}
	return &Discoverer{
		source:  source,
		opts:    opts,
		listing: listing,
		logger:  logger,
	}, nil
}

// ClampCount forces a requested count into [MinCount, MaxCount].
func ClampCount(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// Discover returns at most ClampCount(count) component URLs: discovered
// links first, then seeds, with each component ID at most once. A failed
// listing read falls back to the seeds alone.
func (d *Discoverer) Discover(ctx context.Context, count int, seedsOnly bool) []string {
	count = ClampCount(count)

	var discovered []string
	if !seedsOnly && d.source != nil {
		discovered = d.discover(ctx, count)
	}

	seen := make(map[string]bool)
	selected := make([]string, 0, count)
	for _, list := range [][]string{discovered, Seeds()} {
		for _, u := range list {
			if len(selected) == count {
				return selected
			}
			if !IsComponentURL(u, d.opts.Reserved) {
				continue
			}
			key := componentKey(u)
			if seen[key] {
				continue
			}
			seen[key] = true
			selected = append(selected, u)
		}
	}
	return selected
}

func (d *Discoverer) discover(ctx context.Context, count int) []string {
	limit := d.opts.Oversample * count
	if limit < d.opts.MinDiscover {
		limit = d.opts.MinDiscover
	}

	doc, err := d.source.Listing(ctx, d.listing.String())
	if err != nil {
		d.logger.Warn("Discovery failed, using seeds", "listing", d.listing.String(), "error", err)
		return nil
	}

	links, err := ParseListing(doc, d.listing, d.opts.Reserved)
	if err != nil {
		d.logger.Warn("Listing unparseable, using seeds", "error", err)
		return nil
	}
	if len(links) > limit {
		links = links[:limit]
	}

	d.logger.Info("Discovered component links", "count", len(links), "limit", limit)
	return links
}
