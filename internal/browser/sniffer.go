package browser

import (
	"encoding/base64"
	"net/url"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/observability"
)

// acceptResponse keeps same-site JSON responses.
func acceptResponse(siteHost, rawURL, mimeType string) bool {
	if !strings.Contains(strings.ToLower(mimeType), "json") {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && sameSite(u.Hostname(), siteHost)
}

// sniffer accumulates every accepted pair seen during one visit. Bodies are
// fetched once loading finishes since they are not available earlier.
type sniffer struct {
	siteHost string
	logger   *observability.Logger

	mu      sync.Mutex
	pending map[proto.NetworkRequestID]string
	pairs   []extract.Pair
}

func newSniffer(siteHost string, logger *observability.Logger) *sniffer {
	return &sniffer{
		siteHost: siteHost,
		logger:   logger,
		pending:  make(map[proto.NetworkRequestID]string),
	}
}

func (s *sniffer) onResponse(e *proto.NetworkResponseReceived) {
	if e.Response == nil || !acceptResponse(s.siteHost, e.Response.URL, e.Response.MIMEType) {
		return
	}
	s.mu.Lock()
	s.pending[e.RequestID] = e.Response.URL
	s.mu.Unlock()
}

func (s *sniffer) onFinished(p *rod.Page, e *proto.NetworkLoadingFinished) {
	s.mu.Lock()
	source, ok := s.pending[e.RequestID]
	delete(s.pending, e.RequestID)
	s.mu.Unlock()
	if !ok {
		return
	}

	body, err := proto.NetworkGetResponseBody{RequestID: e.RequestID}.Call(p)
	if err != nil {
		s.logger.Debug("Response body unavailable", "url", source, "error", err)
		return
	}

	data := []byte(body.Body)
	if body.Base64Encoded {
		if data, err = base64.StdEncoding.DecodeString(body.Body); err != nil {
			return
		}
	}

	if n := s.ingest(data); n > 0 {
		s.logger.Debug("Captured pairs from response", "url", source, "pairs", n)
	}
}

// ingest searches one payload. Malformed JSON yields nothing.
func (s *sniffer) ingest(data []byte) int {
	pairs, err := extract.PairsFromJSON(data, extract.OriginNetwork)
	if err != nil || len(pairs) == 0 {
		return 0
	}
	s.mu.Lock()
	s.pairs = append(s.pairs, pairs...)
	s.mu.Unlock()
	return len(pairs)
}

// Pairs returns a copy of the accumulated pairs in arrival order.
func (s *sniffer) Pairs() []extract.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]extract.Pair(nil), s.pairs...)
}
