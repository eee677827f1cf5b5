package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uiverse-scraper/internal/classify"
)

// DefaultStateSelector locates the Next.js initial-props blob.
const DefaultStateSelector = "script#__NEXT_DATA__"

var ErrNoStateBlob = errors.New("embedded state blob not found")

// StateBlob returns the text of the first element matching selector in a
// markup snapshot.
func StateBlob(doc, selector string) (string, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	raw := strings.TrimSpace(d.Find(selector).First().Text())
	if raw == "" {
		return "", ErrNoStateBlob
	}
	return raw, nil
}

// ParseEmbeddedState finds the state blob in a markup snapshot and searches it.
func ParseEmbeddedState(doc, selector string, minString int) ([]Pair, error) {
	raw, err := StateBlob(doc, selector)
	if err != nil {
		return nil, err
	}
	return ParseStateBlob(raw, minString)
}

// ParseStateBlob prefers explicit pair objects. Without one it assembles a
// pair from the longest html-like and the longest css-like string leaves,
// chosen independently.
func ParseStateBlob(raw string, minString int) ([]Pair, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode state blob: %w", err)
	}

	if pairs := FindPairs(v, OriginState); len(pairs) > 0 {
		return pairs, nil
	}

	var p Pair
	for _, s := range ScanStrings(v, minString) {
		decoded := html.UnescapeString(s)
		if classify.LooksLikeHTML(s) && len(decoded) > len(p.HTML) {
			p.HTML = decoded
		}
		if classify.LooksLikeCSS(s) && len(decoded) > len(p.CSS) {
			p.CSS = decoded
		}
	}
	if p.Empty() {
		return nil, nil
	}
	p.Origin = OriginState
	return []Pair{p}, nil
}
