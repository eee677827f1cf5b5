package extract

import (
	"strings"

	"uiverse-scraper/internal/classify"
)

// Reconcile picks one (html, css) pair for a page.
//
// The DOM reads give a first answer: the longest html-like text from the
// markup view and the longest css-like text from the style view, license
// blocks excluded. That answer is repaired (misplaced fields swapped, missing
// markup synthesized from the stylesheet) and then challenged by the best
// network or state pair, which wins when it is materially longer, when the
// DOM markup is missing or too short, or when only it cross-references its
// own classes. The result is repaired once more so an html field is always
// markup and css alone never ships without a renderable element.
func Reconcile(in Inputs, th Thresholds) Result {
	res := repair(fromDOM(in.HTMLView, in.CSSView))

	if challenger, ok := challenger(in.Network, in.State); ok && prefer(res, challenger, th) {
		if challenger.HTML != "" {
			res.HTML = challenger.HTML
			res.Provenance.HTML = challenger.Origin
		}
		if challenger.CSS != "" {
			res.CSS = challenger.CSS
			res.Provenance.CSS = challenger.Origin
			if res.Provenance.HTML == OriginSynthesized {
				res.HTML, res.Provenance.HTML = "", OriginNone
			}
		}
	}

	return repair(res)
}

func fromDOM(htmlView, cssView []Candidate) Result {
	var res Result

	if c, ok := longest(htmlView, func(c Classified) bool {
		return !c.Fallback && c.LooksHTML
	}); ok {
		res.HTML = c.Text
		res.Provenance.HTML = c.Origin
	}

	isStyle := func(c Classified) bool {
		if c.LooksHTML && !c.LooksCSS {
			return false
		}
		return c.LooksCSS || classify.HasCSSIndicators(c.Text)
	}
	c, ok := longest(cssView, func(c Classified) bool { return !c.Fallback && isStyle(c) })
	if !ok {
		c, ok = longest(append(append([]Candidate(nil), cssView...), htmlView...), func(c Classified) bool {
			return c.Fallback && isStyle(c)
		})
	}
	if ok {
		res.CSS = c.Text
		res.Provenance.CSS = c.Origin
	}

	return res
}

// longest returns the longest non-license candidate accepted by keep.
// Equal lengths keep the earlier candidate.
func longest(cands []Candidate, keep func(Classified) bool) (Candidate, bool) {
	var best Candidate
	found := false
	for _, cand := range cands {
		if cand.Text == "" {
			continue
		}
		c := Classify(cand)
		if c.IsLicenseText || !keep(c) {
			continue
		}
		if !found || len(cand.Text) > len(best.Text) {
			best = cand
			found = true
		}
	}
	return best, found
}

// repair enforces the field invariants: html is markup or empty, and css
// without html gets a synthesized element.
func repair(res Result) Result {
	if res.HTML == "" || !classify.LooksLikeHTML(res.HTML) {
		switch {
		case classify.LooksLikeHTML(res.CSS):
			res.HTML, res.CSS = res.CSS, res.HTML
			res.Provenance.HTML, res.Provenance.CSS = res.Provenance.CSS, res.Provenance.HTML
		case res.HTML != "" && res.CSS == "" && classify.LooksLikeCSS(res.HTML):
			res.CSS, res.Provenance.CSS = res.HTML, res.Provenance.HTML
			res.HTML, res.Provenance.HTML = "", OriginNone
		case res.HTML != "":
			res.HTML, res.Provenance.HTML = "", OriginNone
		}
	}

	if res.CSS == "" {
		res.Provenance.CSS = OriginNone
	}

	if res.HTML == "" && res.CSS != "" {
		res.HTML = DeriveHTMLFromCSS(res.CSS)
		res.Provenance.HTML = OriginSynthesized
	}
	return res
}

// challenger is the longer of the best network pair and the best state
// pair; network wins ties.
func challenger(network, state []Pair) (Pair, bool) {
	var finalists []Pair
	if p, ok := BestPair(network); ok {
		finalists = append(finalists, p)
	}
	if p, ok := BestPair(state); ok {
		finalists = append(finalists, p)
	}
	return BestPair(finalists)
}

func prefer(dom Result, other Pair, th Thresholds) bool {
	domLen := len(dom.HTML) + len(dom.CSS)
	if other.Len() > domLen+th.MaterialityMargin {
		return true
	}

	// A synthesized DOM html counts as missing, so any challenger with
	// markup wins here even with a smaller stylesheet. This is deliberate.
	domHTML := dom.HTML
	if dom.Provenance.HTML == OriginSynthesized {
		domHTML = ""
	}
	if domHTML == "" || len(strings.TrimSpace(domHTML)) < th.MinViableHTML {
		return true
	}

	return !ReferencesClass(dom.HTML, dom.CSS) && ReferencesClass(other.HTML, other.CSS)
}
