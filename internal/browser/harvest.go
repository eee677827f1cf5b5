package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"uiverse-scraper/internal/extract"
	"uiverse-scraper/internal/normalize"
)

type harvestItem struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// frameRead is the raw harvest of one document.
type frameRead struct {
	Source string        `json:"source"`
	Denied bool          `json:"denied"`
	Items  []harvestItem `json:"items"`
}

// frameResult is a frame read that either produced items or was refused.
type frameResult struct {
	Source string
	Items  []harvestItem
	Err    error
}

func (f frameRead) result() frameResult {
	if f.Denied {
		return frameResult{Source: f.Source, Err: fmt.Errorf("%s: %w", f.Source, ErrAccessDenied)}
	}
	return frameResult{Source: f.Source, Items: f.Items}
}

// harvest reads every code-bearing text fragment currently in the page.
func (v *Visit) harvest(ctx context.Context, selectors []string) ([]extract.Candidate, error) {
	res, err := v.page.Context(ctx).Eval(harvestJS, selectors)
	if err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("harvest: %w", err)
	}
	var frames []frameRead
	if err := json.Unmarshal(raw, &frames); err != nil {
		return nil, fmt.Errorf("harvest: decode frames: %w", err)
	}

	results := make([]frameResult, 0, len(frames))
	for _, f := range frames {
		results = append(results, f.result())
	}

	cands, denied := collectCandidates(results, v.browser.normalizer)
	if denied > 0 {
		v.logger.Debug("Skipped unreadable frames", "count", denied)
	}
	return cands, nil
}

// collectCandidates cleans the items of every readable frame and drops
// frames that refused access. It returns how many were dropped.
func collectCandidates(results []frameResult, n *normalize.Normalizer) ([]extract.Candidate, int) {
	var cands []extract.Candidate
	denied := 0
	for _, r := range results {
		if r.Err != nil {
			denied++
			continue
		}
		for _, item := range r.Items {
			text := n.Clean(item.Text)
			if text == "" || n.Oversized(text) {
				continue
			}
			cands = append(cands, extract.Candidate{
				Text:      text,
				Origin:    extract.OriginDOM,
				RawLength: len(item.Text),
				Fallback:  item.Fallback,
			})
		}
	}
	return cands, denied
}
