package css

import "regexp"

var (
	// identifiers: tag names, classes, ids, attribute names
	wordRe = regexp.MustCompile(`[A-Za-z0-9_-]+`)
	// anything between markup delimiters, keeps utility classes like
	// "md:flex" or "w-[10px]" whole
	chunkRe = regexp.MustCompile(`[^<>"=\s]+`)
)

// Tokens is a set of selector candidates found in a document.
type Tokens map[string]struct{}

// Extract returns union of candidates matched by both patterns.
func Extract(content string) Tokens {
	tokens := make(Tokens)
	for _, re := range []*regexp.Regexp{wordRe, chunkRe} {
		for _, m := range re.FindAllString(content, -1) {
			tokens[m] = struct{}{}
		}
	}
	return tokens
}

// Has reports if token was found.
func (t Tokens) Has(s string) bool {
	_, ok := t[s]
	return ok
}
