package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uiverse-scraper/internal/normalize"
)

// DefaultReserved are first path segments that name site sections rather
// than authors.
var DefaultReserved = []string{"profile", "collection", "collections", "tag", "tags", "search"}

var slugPattern = regexp.MustCompile(`-[0-9]+$`)

// IsComponentURL accepts /<author>/<slug-NN> paths whose author segment is
// not a reserved section.
func IsComponentURL(rawURL string, reserved []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) != 2 || segs[0] == "" || segs[1] == "" {
		return false
	}
	first := strings.ToLower(segs[0])
	for _, r := range reserved {
		if first == strings.ToLower(r) {
			return false
		}
	}
	return slugPattern.MatchString(segs[1])
}

// componentKey is the lowercased author-slug a component URL is stored
// under, so links differing only in case count once.
func componentKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(strings.Replace(strings.Trim(u.Path, "/"), "/", "-", 1))
}

// ParseListing collects component links from a listing page in document
// order, resolved against base, deduplicated and restricted to base's host.
func ParseListing(doc string, base *url.URL, reserved []string) ([]string, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var links []string
	d.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link, ok := resolveLink(base, href)
		if !ok || !IsComponentURL(link, reserved) {
			return
		}
		key := componentKey(link)
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, link)
	})

	return links, nil
}

func resolveLink(base *url.URL, href string) (string, bool) {
	href = normalize.NormalizeURL(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Hostname(), base.Hostname()) {
		return "", false
	}
	abs.RawQuery = ""
	abs.Fragment = ""
	return abs.String(), true
}
