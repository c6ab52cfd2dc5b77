package markup

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	htmlOpenRe = regexp.MustCompile(`(?i)<html(?:\s[^>]*)?>`)
	headOpenRe = regexp.MustCompile(`(?i)<head(?:\s[^>]*)?>`)
	bodyOpenRe = regexp.MustCompile(`(?i)<body(?:\s[^>]*)?>`)
	doctypeRe  = regexp.MustCompile(`(?i)^\s*<!doctype[^>]*>`)

	headCloseRe = regexp.MustCompile(`(?i)</head\s*>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)
	htmlCloseRe = regexp.MustCompile(`(?i)</html\s*>`)
)

// Apply inserts rendered tags into page according to their InjectTo
// placement, the same way build tool does it:
//
//	head-prepend - right after <head>
//	head         - right before </head>
//	body-prepend - right after <body>
//	body         - right before </body>
//
// When anchor is absent, head tags go to the top of the document and body
// tags to the bottom.
func Apply(page string, tags []InjectionTag) (string, error) {
	groups := make(map[InjectTo]*strings.Builder)
	for _, t := range tags {
		s, err := t.Render()
		if err != nil {
			return "", err
		}
		to := t.InjectTo
		switch to {
		case "":
			to = InjectToHeadPrepend
		case InjectToHeadPrepend, InjectToHead, InjectToBodyPrepend, InjectToBody:
		default:
			return "", fmt.Errorf("unsupported tag placement %q", to)
		}
		b, ok := groups[to]
		if !ok {
			b = &strings.Builder{}
			groups[to] = b
		}
		b.WriteString(s)
	}

	for _, to := range []InjectTo{InjectToHeadPrepend, InjectToHead, InjectToBodyPrepend, InjectToBody} {
		b, ok := groups[to]
		if !ok {
			continue
		}
		page = insert(page, to, b.String())
	}
	return page, nil
}

func insert(page string, to InjectTo, s string) string {
	switch to {
	case InjectToHeadPrepend:
		if pos := after(page, headOpenRe); pos >= 0 {
			return page[:pos] + s + page[pos:]
		}
		return prepend(page, s)
	case InjectToHead:
		if pos := before(page, headCloseRe); pos >= 0 {
			return page[:pos] + s + page[pos:]
		}
		return prepend(page, s)
	case InjectToBodyPrepend:
		if pos := after(page, bodyOpenRe); pos >= 0 {
			return page[:pos] + s + page[pos:]
		}
		return page + s
	default:
		if pos := before(page, bodyCloseRe); pos >= 0 {
			return page[:pos] + s + page[pos:]
		}
		if pos := before(page, htmlCloseRe); pos >= 0 {
			return page[:pos] + s + page[pos:]
		}
		return page + s
	}
}

// prepend puts s at the start of the document content, after doctype and
// html tag if any.
func prepend(page, s string) string {
	if pos := after(page, htmlOpenRe); pos >= 0 {
		return page[:pos] + s + page[pos:]
	}
	if loc := doctypeRe.FindStringIndex(page); loc != nil {
		return page[:loc[1]] + s + page[loc[1]:]
	}
	return s + page
}

func after(page string, re *regexp.Regexp) int {
	if loc := re.FindStringIndex(page); loc != nil {
		return loc[1]
	}
	return -1
}

// before returns position of the last match.
func before(page string, re *regexp.Regexp) int {
	all := re.FindAllStringIndex(page, -1)
	if len(all) == 0 {
		return -1
	}
	return all[len(all)-1][0]
}
