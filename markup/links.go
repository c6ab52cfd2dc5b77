// Package markup rewrites generated pages using plain pattern matching.
// Inputs are produced by compilers and bundlers, tags are expected to be on a
// single line with single or double quoted attribute values.
package markup

import (
	"regexp"
	"strings"
)

var (
	linkTagRe  = regexp.MustCompile(`(?i)<link\b[^>]*>`)
	noscriptRe = regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`)

	// NOTE: only .css/.js suffixes are considered, anything with query
	// string is left alone.
	cssLinkRe = regexp.MustCompile(`(?i)<link\b[^>]*\shref\s*=\s*["']([^"']*\.css)["'][^>]*>`)
	scriptRe  = regexp.MustCompile(`(?i)<script\b[^>]*\ssrc\s*=\s*["']([^"']*\.js)["'][^>]*>\s*</script>`)

	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

	attrRes = map[string]*regexp.Regexp{
		"rel":   attrPattern("rel"),
		"href":  attrPattern("href"),
		"type":  attrPattern("type"),
		"src":   attrPattern("src"),
		"media": attrPattern("media"),
	}
)

func attrPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\s` + name + `\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
}

// attr returns value of the named attribute found in a single tag.
func attr(tag, name string) (string, bool) {
	re, ok := attrRes[name]
	if !ok {
		re = attrPattern(name)
	}
	m := re.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	for _, v := range m[1:] {
		if len(v) > 0 {
			return v, true
		}
	}
	return "", true
}

// isStylesheet reports if link tag references a stylesheet which is applied
// to the page (alternate stylesheets are not).
func isStylesheet(tag string) bool {
	rel, ok := attr(tag, "rel")
	if !ok {
		return false
	}
	var stylesheet bool
	for _, tok := range strings.Fields(strings.ToLower(rel)) {
		switch tok {
		case "stylesheet":
			stylesheet = true
		case "alternate":
			return false
		}
	}
	return stylesheet
}

// stylesheetHref returns href of local stylesheet link tag.
func stylesheetHref(tag string) (string, bool) {
	if !isStylesheet(tag) {
		return "", false
	}
	href, ok := attr(tag, "href")
	if !ok || len(href) == 0 || !isLocal(href) {
		return "", false
	}
	return href, true
}

// isLocal reports if reference points to a file of the build output rather
// than to other origin.
func isLocal(ref string) bool {
	return !strings.HasPrefix(ref, "//") && !schemeRe.MatchString(ref)
}

// isDeferred reports if stylesheet link tag was already made non blocking,
// which is the case for pages processed before.
func isDeferred(tag string) bool {
	media, ok := attr(tag, "media")
	return ok && strings.EqualFold(strings.TrimSpace(media), "print")
}

// fallbacks returns ranges of noscript elements. Links there are only used
// when scripting is off.
func fallbacks(page string) [][]int {
	return noscriptRe.FindAllStringIndex(page, -1)
}

func within(ranges [][]int, pos int) bool {
	for _, r := range ranges {
		if pos >= r[0] && pos < r[1] {
			return true
		}
	}
	return false
}

// firstStylesheetLink returns position of the first render blocking
// stylesheet link tag.
func firstStylesheetLink(page string) int {
	noscript := fallbacks(page)
	for _, loc := range linkTagRe.FindAllStringIndex(page, -1) {
		tag := page[loc[0]:loc[1]]
		if isStylesheet(tag) && !isDeferred(tag) && !within(noscript, loc[0]) {
			return loc[0]
		}
	}
	return -1
}

// Processed reports if page stylesheets are all deferred already, so there
// is nothing left to inline critical css for.
func Processed(page string) bool {
	noscript := fallbacks(page)
	var deferred bool
	for _, loc := range linkTagRe.FindAllStringIndex(page, -1) {
		tag := page[loc[0]:loc[1]]
		if !isStylesheet(tag) || within(noscript, loc[0]) {
			continue
		}
		if !isDeferred(tag) {
			return false
		}
		deferred = true
	}
	return deferred
}
