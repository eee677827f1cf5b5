package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"uiverse-scraper/internal/classify"
)

// Key names are tried exactly first, then by substring, so the choice does
// not depend on map iteration order.
var (
	htmlKeyNames     = []string{"html", "htmlcode", "codehtml", "markup", "template"}
	htmlKeyFragments = []string{"html", "markup", "template"}
	cssKeyNames      = []string{"css", "csscode", "codecss", "style", "styles", "stylecode"}
	cssKeyFragments  = []string{"css", "style"}
)

// PairsFromJSON parses a payload and searches it for html/css pairs.
func PairsFromJSON(data []byte, origin Origin) ([]Pair, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode json payload: %w", err)
	}
	return FindPairs(v, origin), nil
}

// FindPairs walks a decoded JSON value depth-first. An object contributes a
// pair when it has an html-like or css-like string field and the decoded
// value of at least one of them passes its classifier.
func FindPairs(v interface{}, origin Origin) []Pair {
	var acc []Pair
	walkPairs(v, origin, &acc)
	return acc
}

func walkPairs(v interface{}, origin Origin, acc *[]Pair) {
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			walkPairs(item, origin, acc)
		}
	case map[string]interface{}:
		if p, ok := pairFromObject(node, origin); ok {
			*acc = append(*acc, p)
		}
		for _, k := range sortedKeys(node) {
			walkPairs(node[k], origin, acc)
		}
	}
}

func pairFromObject(obj map[string]interface{}, origin Origin) (Pair, bool) {
	keys := sortedKeys(obj)
	htmlKey := matchKey(obj, keys, htmlKeyNames, htmlKeyFragments, "")
	cssKey := matchKey(obj, keys, cssKeyNames, cssKeyFragments, htmlKey)
	if htmlKey == "" && cssKey == "" {
		return Pair{}, false
	}

	var p Pair
	if htmlKey != "" {
		p.HTML = html.UnescapeString(obj[htmlKey].(string))
	}
	if cssKey != "" {
		p.CSS = html.UnescapeString(obj[cssKey].(string))
	}

	if (p.HTML != "" && classify.LooksLikeHTML(p.HTML)) || (p.CSS != "" && classify.LooksLikeCSS(p.CSS)) {
		p.Origin = origin
		return p, true
	}
	return Pair{}, false
}

// matchKey returns the first string-valued key matching names exactly
// (case-insensitive), else the first containing a fragment. skip is never
// returned so one field cannot serve as both halves of a pair.
func matchKey(obj map[string]interface{}, keys, names, fragments []string, skip string) string {
	isString := func(k string) bool {
		_, ok := obj[k].(string)
		return ok && k != skip
	}
	for _, name := range names {
		for _, k := range keys {
			if strings.EqualFold(k, name) && isString(k) {
				return k
			}
		}
	}
	for _, k := range keys {
		lower := strings.ToLower(k)
		for _, frag := range fragments {
			if strings.Contains(lower, frag) && isString(k) {
				return k
			}
		}
	}
	return ""
}

// ScanStrings collects every trimmed string leaf longer than minLen.
func ScanStrings(v interface{}, minLen int) []string {
	var acc []string
	walkStrings(v, minLen, &acc)
	return acc
}

func walkStrings(v interface{}, minLen int, acc *[]string) {
	switch node := v.(type) {
	case string:
		if t := strings.TrimSpace(node); len(t) > minLen {
			*acc = append(*acc, t)
		}
	case []interface{}:
		for _, item := range node {
			walkStrings(item, minLen, acc)
		}
	case map[string]interface{}:
		for _, k := range sortedKeys(node) {
			walkStrings(node[k], minLen, acc)
		}
	}
}

// BestPair picks the pair with the greatest combined length. Ties keep the
// earliest pair.
func BestPair(pairs []Pair) (Pair, bool) {
	best := -1
	for i, p := range pairs {
		if p.Empty() {
			continue
		}
		if best < 0 || p.Len() > pairs[best].Len() {
			best = i
		}
	}
	if best < 0 {
		return Pair{}, false
	}
	return pairs[best], true
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
