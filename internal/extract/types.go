// Package extract turns harvested text and JSON payloads into one best-guess
// (html, css) pair per component page.
package extract

import "uiverse-scraper/internal/classify"

// Origin names the strategy that produced a piece of text.
type Origin string

const (
	OriginNone        Origin = ""
	OriginDOM         Origin = "dom"
	OriginNetwork     Origin = "network"
	OriginState       Origin = "state"
	OriginSynthesized Origin = "synthesized"
)

// Candidate is one harvested text fragment. Fallback marks text read from a
// <style> element rather than a code container; it is only used for css when
// no code container produced any.
type Candidate struct {
	Text      string
	Origin    Origin
	RawLength int
	Fallback  bool
}

// Classified is a candidate annotated with the classifier verdict.
type Classified struct {
	Candidate
	classify.Kind
}

func Classify(c Candidate) Classified {
	return Classified{Candidate: c, Kind: classify.Classify(c.Text)}
}

// Pair is an (html, css) couple found together in one JSON object, or
// assembled from the longest matching strings of one payload.
type Pair struct {
	HTML   string
	CSS    string
	Origin Origin
}

func (p Pair) Len() int {
	return len(p.HTML) + len(p.CSS)
}

func (p Pair) Empty() bool {
	return p.HTML == "" && p.CSS == ""
}

// Provenance records which strategy supplied each field of a Result.
type Provenance struct {
	HTML Origin `json:"html,omitempty"`
	CSS  Origin `json:"css,omitempty"`
}

// Result is the reconciled output for one page.
type Result struct {
	HTML       string
	CSS        string
	Provenance Provenance
}

func (r Result) Success() bool {
	return r.HTML != "" || r.CSS != ""
}

// Inputs gathers everything the reconciler looks at. HTMLView and CSSView
// are DOM reads taken after selecting the markup and style tabs.
type Inputs struct {
	HTMLView []Candidate
	CSSView  []Candidate
	Network  []Pair
	State    []Pair
}

// Thresholds are tuning knobs, not contracts.
type Thresholds struct {
	// MaterialityMargin is how many more characters a network or state pair
	// needs before it beats the DOM pair on size alone.
	MaterialityMargin int
	// MinViableHTML is the DOM html length below which it counts as incomplete.
	MinViableHTML int
}

func DefaultThresholds() Thresholds {
	return Thresholds{MaterialityMargin: 40, MinViableHTML: 50}
}
