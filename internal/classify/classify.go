// Package classify holds the text heuristics that decide whether a harvested
// string is markup, a stylesheet, license boilerplate or noise. Every function
// is pure and total.
package classify

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	escapedTagPattern = regexp.MustCompile(`&lt;[^&]*&gt;`)
	blockPattern      = regexp.MustCompile(`\{[^}]*\}`)
	licensePattern    = regexp.MustCompile(`(?i)permission is hereby granted|the software is provided|copyright|mit license`)
	declPattern       = regexp.MustCompile(`:\s*[^;]+;`)
	ruleStartPattern  = regexp.MustCompile(`@keyframes|\.[A-Za-z_-][A-Za-z0-9_-]*\s*\{|#[A-Za-z_-][A-Za-z0-9_-]*\s*\{|\*[^{]*\{`)
	lineNumberPattern = regexp.MustCompile(`^\s*(?:\d+\.\s+|\d+\s+)`)
)

// LooksLikeHTML reports a tag-like angle-bracket run, raw or entity-escaped.
func LooksLikeHTML(s string) bool {
	return tagPattern.MatchString(s) || escapedTagPattern.MatchString(s)
}

// LooksLikeCSS requires at least one {...} block and at least one semicolon.
// JSON passes too; scoring sorts that out later.
func LooksLikeCSS(s string) bool {
	return blockPattern.MatchString(s) && strings.Contains(s, ";")
}

// HasCSSIndicators is a looser stylesheet signal: a declaration, a keyframes
// block, or a class, id or universal rule opening.
func HasCSSIndicators(s string) bool {
	return declPattern.MatchString(s) || ruleStartPattern.MatchString(s)
}

// IsLicenseText flags the MIT-style notices that sit next to code samples.
func IsLicenseText(s string) bool {
	return licensePattern.MatchString(s)
}

// StripLineNumbers drops an editor gutter number from each line. The number
// must be followed by whitespace ("12  foo", "12. foo"), so "100px" survives.
func StripLineNumbers(s string) string {
	if s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lineNumberPattern.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

// Kind is the classifier verdict for one string.
type Kind struct {
	LooksHTML     bool
	LooksCSS      bool
	IsLicenseText bool
}

// Classify runs every predicate once.
func Classify(s string) Kind {
	return Kind{
		LooksHTML:     LooksLikeHTML(s),
		LooksCSS:      LooksLikeCSS(s),
		IsLicenseText: IsLicenseText(s),
	}
}
