package normalize

import (
	"html"
	"strings"

	"uiverse-scraper/internal/classify"
)

// Options mirrors the normalize block of the config file.
type Options struct {
	TrimNBSP        bool
	MaxSnippetChars int
}

// Normalizer turns raw harvested text into candidate text.
type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Clean decodes entities, strips editor gutters and trims. DOM text is
// usually decoded already; a second pass catches code shown escaped.
func (n *Normalizer) Clean(raw string) string {
	text := html.UnescapeString(raw)

	if n.opts.TrimNBSP {
		text = strings.ReplaceAll(text, "\u00A0", " ")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = classify.StripLineNumbers(text)

	return strings.TrimSpace(text)
}

// Oversized reports text longer than the configured cap. Such blobs are
// page chrome caught by a broad selector, not a snippet.
func (n *Normalizer) Oversized(text string) bool {
	return n.opts.MaxSnippetChars > 0 && len(text) > n.opts.MaxSnippetChars
}

// NormalizeURL drops the fragment and surrounding whitespace.
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}
