package extract

import (
	"regexp"
	"strings"
)

var (
	commentPattern    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	classTokenPattern = regexp.MustCompile(`(^|[^0-9A-Za-z_-])\.([A-Za-z_-][A-Za-z0-9_-]*)`)
	buttonHintPattern = regexp.MustCompile(`(?i)(^|\W)button(\W|$)|:hover|cursor\s*:\s*pointer`)
	spanHintPattern   = regexp.MustCompile(`(?i)\bspan\b`)
	classRefPattern   = regexp.MustCompile(`\.([A-Za-z_-][A-Za-z0-9_-]*)`)
)

// DeriveHTMLFromCSS builds the smallest element the stylesheet plausibly
// targets: a <button> when the rules look interactive, otherwise a <div>,
// carrying the first class named in a selector.
func DeriveHTMLFromCSS(css string) string {
	if css == "" {
		return ""
	}

	className := FirstSelectorClass(css)

	tag := "div"
	inner := ""
	if buttonHintPattern.MatchString(css) {
		tag = "button"
		inner = "Button"
		if spanHintPattern.MatchString(css) {
			inner = "<span>Button</span>"
		}
	}

	cls := ""
	if className != "" {
		cls = ` class="` + className + `"`
	}
	return "<" + tag + cls + ">" + inner + "</" + tag + ">"
}

// FirstSelectorClass returns the first class name that appears in selector
// position, skipping comments, declarations and numbers like ".5rem".
func FirstSelectorClass(css string) string {
	for _, sel := range selectorTexts(css) {
		if m := classTokenPattern.FindStringSubmatch(sel); m != nil {
			return m[2]
		}
	}
	return ""
}

// selectorTexts yields the text before each "{", which is a selector list or
// an at-rule prelude.
func selectorTexts(css string) []string {
	css = commentPattern.ReplaceAllString(css, " ")
	var out []string
	start := 0
	for i, r := range css {
		switch r {
		case '{':
			out = append(out, strings.TrimSpace(css[start:i]))
			start = i + 1
		case '}', ';':
			start = i + 1
		}
	}
	return out
}

// ClassNames lists the distinct class-like tokens of a stylesheet in order
// of first appearance.
func ClassNames(css string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range classRefPattern.FindAllStringSubmatch(css, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// ReferencesClass reports whether markup uses any class declared in css.
func ReferencesClass(html, css string) bool {
	if html == "" || css == "" {
		return false
	}
	for _, cls := range ClassNames(css) {
		re, err := regexp.Compile(`class=["'][^"']*\b` + regexp.QuoteMeta(cls) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(html) {
			return true
		}
	}
	return false
}
