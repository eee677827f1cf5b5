package catalog

import "sort"

// Score weights markup over styles the way the catalog page does.
func Score(item ScrapeItem) int {
	return len(item.HTML) + len(item.CSS)/4
}

// Rank returns up to n displayable items, best first. An item is
// displayable when it succeeded or carries any snippet. Equal scores keep
// catalog order. n <= 0 means no limit.
func Rank(items []ScrapeItem, n int) []ScrapeItem {
	var out []ScrapeItem
	for _, it := range items {
		if it.Success || it.HTML != "" || it.CSS != "" {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Score(out[i]) > Score(out[j])
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
