// Package fetcher is the plain HTTP listing source. It honours robots.txt,
// paces requests per host and retries transient failures with jittered
// exponential backoff.
package fetcher

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"uiverse-scraper/internal/config"
	"uiverse-scraper/internal/observability"
)

type Fetcher struct {
	client      *http.Client
	cfg         *config.Config
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Fetcher{
		client:      client,
		cfg:         cfg,
		logger:      logger,
		robotsCache: NewRobotsCache(cfg.GetRobotsCacheTTL(), logger),
		rateLimiter: NewRateLimiter(cfg.RateLimit.MaxConcurrentPerHost, cfg.RateLimit.RPM),
	}
}

func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", urlStr)
	}

	host := parsedURL.Host

	if f.cfg.HTTP.RespectRobots {
		allowed, err := f.robotsCache.IsAllowed(ctx, parsedURL, f.cfg.HTTP.UserAgent, f.client)
		if err != nil {
			return nil, fmt.Errorf("robots.txt check failed: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("URL disallowed by robots.txt: %s", urlStr)
		}
	}

	release, err := f.rateLimiter.Wait(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	defer release()

	var lastErr error
	for attempt := 0; attempt <= f.cfg.HTTP.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := f.calculateBackoff(attempt)
			f.logger.Debug("Retrying fetch", "url", urlStr, "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := f.fetchOnce(ctx, urlStr)
		if err != nil {
			lastErr = err
			continue
		}

		// Retry on 5xx or 429
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			if attempt < f.cfg.HTTP.MaxRetries {
				continue
			}
		}

		return resp, nil
	}

	return nil, fmt.Errorf("fetch failed after %d retries: %w", f.cfg.HTTP.MaxRetries, lastErr)
}

// Listing fetches a listing page and returns its markup. Non-2xx answers
// are errors so discovery falls back to seeds.
func (f *Fetcher) Listing(ctx context.Context, listingURL string) (string, error) {
	resp, err := f.Fetch(ctx, listingURL)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("listing %s: unexpected status %d", listingURL, resp.StatusCode)
	}
	return string(resp.Body), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, urlStr string) (*FetchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.GetConnectTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	reader := io.Reader(resp.Body)
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"content_encoding", resp.Header.Get("Content-Encoding"),
		"bytes", len(body))

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}

func (f *Fetcher) calculateBackoff(attempt int) time.Duration {
	minMS := f.cfg.Backoff.MinMS
	maxMS := f.cfg.Backoff.MaxMS
	jitterPct := f.cfg.Backoff.JitterPct

	// Exponential backoff: min * 2^(attempt-1)
	exponential := minMS * (1 << uint(attempt-1))
	if exponential > maxMS || exponential <= 0 {
		exponential = maxMS
	}

	// Apply jitter: ±jitterPct%
	jitterRange := float64(exponential) * float64(jitterPct) / 100
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	finalMS := float64(exponential) + jitter

	if finalMS < float64(minMS) {
		finalMS = float64(minMS)
	}

	return time.Duration(math.Max(finalMS, 0)) * time.Millisecond
}
