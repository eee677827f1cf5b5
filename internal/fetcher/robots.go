package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"uiverse-scraper/internal/observability"
)

type RobotsCache struct {
	cache  map[string]*RobotsTxt
	ttl    time.Duration
	mu     sync.RWMutex
	logger *observability.Logger
}

type RobotsTxt struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:  make(map[string]*RobotsTxt),
		ttl:    ttl,
		logger: logger,
	}
}

// IsAllowed answers from the cached robots.txt of the URL's host, fetching
// it when missing or expired. An unreachable robots.txt allows everything.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, agent string, client *http.Client) (bool, error) {
	host := target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[host]
	rc.mu.RUnlock()

	if exists && time.Now().Before(cached.expiresAt) {
		return cached.data.TestAgent(pathOf(target), agent), nil
	}

	data := rc.fetch(ctx, target, client)

	rc.mu.Lock()
	rc.cache[host] = &RobotsTxt{
		data:      data,
		expiresAt: time.Now().Add(rc.ttl),
	}
	rc.mu.Unlock()

	return data.TestAgent(pathOf(target), agent), nil
}

func (rc *RobotsCache) fetch(ctx context.Context, target *url.URL, client *http.Client) *robotstxt.RobotsData {
	allowAll, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)

	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return allowAll
	}

	resp, err := client.Do(req)
	if err != nil {
		rc.logger.Debug("robots.txt unreachable, assuming allowed", "host", target.Host, "error", err)
		return allowAll
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			rc.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return allowAll
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		rc.logger.Warn("robots.txt unparseable, assuming allowed", "host", target.Host, "error", err)
		return allowAll
	}
	return data
}

func pathOf(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
