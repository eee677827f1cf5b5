package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-rod/rod/lib/proto"

	"uiverse-scraper/internal/observability"
)

// SiteHost returns the lowercased host of a base URL.
func SiteHost(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid base url %q: missing host", baseURL)
	}
	return strings.ToLower(u.Hostname()), nil
}

// sameSite accepts the site host itself and any of its subdomains.
func sameSite(host, siteHost string) bool {
	host = strings.ToLower(host)
	return host == siteHost || strings.HasSuffix(host, "."+siteHost)
}

// offSite reports whether a main-frame URL has left the site. Blank and
// data documents do not count.
func offSite(rawURL, siteHost string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	switch u.Scheme {
	case "about", "data", "blob":
		return false
	}
	return !sameSite(u.Hostname(), siteHost)
}

// blockDocument decides whether the request router fails a request.
func blockDocument(kind proto.NetworkResourceType, u *url.URL, siteHost string) bool {
	if kind != proto.NetworkResourceTypeDocument || u == nil {
		return false
	}
	return offSite(u.String(), siteHost)
}

// guard watches main-frame navigations during a visit and steps back when
// the page leaves the site.
type guard struct {
	siteHost string
	logger   *observability.Logger
	drift    chan string

	mu  sync.Mutex
	err error
}

func newGuard(siteHost string, logger *observability.Logger) *guard {
	return &guard{
		siteHost: siteHost,
		logger:   logger,
		drift:    make(chan string, 1),
	}
}

func (g *guard) onFrameNavigated(e *proto.PageFrameNavigated) {
	if e.Frame == nil || e.Frame.ParentID != "" {
		return
	}
	if !offSite(e.Frame.URL, g.siteHost) {
		return
	}
	select {
	case g.drift <- e.Frame.URL:
	default:
	}
}

// navigator is the part of the browser the guard drives.
type navigator interface {
	back(ctx context.Context) error
	currentURL(ctx context.Context) (string, error)
}

// run recovers from drift until ctx ends. Recovery happens outside the
// event callback so the back navigation can wait for its own events.
func (g *guard) run(ctx context.Context, nav navigator) {
	for {
		select {
		case <-ctx.Done():
			return
		case drifted := <-g.drift:
			g.logger.Warn("Main frame left the site, navigating back", "url", drifted)
			if err := nav.back(ctx); err != nil {
				g.fail(fmt.Errorf("%w: %s: %v", ErrOffSite, drifted, err))
				continue
			}
			current, err := nav.currentURL(ctx)
			if err != nil {
				g.fail(fmt.Errorf("%w: %s: %v", ErrOffSite, drifted, err))
				continue
			}
			if offSite(current, g.siteHost) {
				g.fail(fmt.Errorf("%w: still at %s", ErrOffSite, current))
				continue
			}
			g.clear()
		}
	}
}

func (g *guard) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *guard) clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = nil
}

// Err is the last unrecovered drift, if any.
func (g *guard) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
