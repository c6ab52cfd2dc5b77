package css

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"
	"go.uber.org/zap"
)

const mediaType = "text/css"

// selectors with escaped arbitrary values ("w-\[10px\]") are always kept
var greedySafelist = []*regexp.Regexp{
	regexp.MustCompile(`\\\[.*?\\\]`),
	regexp.MustCompile(`-\\\[.*?\\\]`),
}

// document elements always present in a page
var standardTags = map[string]struct{}{
	"html": {},
	"body": {},
}

// Lookup provides content of already loaded stylesheets.
type Lookup interface {
	Lookup(id string) (string, bool)
}

// Purger removes rules which do not match anything in the document.
type Purger struct {
	src    Lookup
	parser *Parser
	min    *minify.M
	log    *zap.Logger
}

// NewPurger creates purger reading stylesheets from src. When minify is set
// result is additionally minified.
func NewPurger(src Lookup, minifyResult bool, log *zap.Logger) *Purger {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Purger{
		src:    src,
		parser: NewParser(log),
		log:    log.Named("purge"),
	}
	if minifyResult {
		p.min = minify.New()
		p.min.AddFunc(mediaType, mincss.Minify)
	}
	return p
}

// Purge combines stylesheets ids (in order) and returns css text of rules
// having at least one selector matching document. Empty result is not an
// error.
func (p *Purger) Purge(document string, ids []string) (string, error) {
	sheet := p.combine(ids)
	if sheet == nil {
		return "", nil
	}

	tokens := Extract(document)
	purged := &Stylesheet{Items: purgeItems(sheet.Items, tokens)}
	result := purged.String()

	p.log.Debug("Stylesheets purged",
		zap.Int("items", len(sheet.Items)),
		zap.Int("kept", len(purged.Items)),
		zap.Int("tokens", len(tokens)),
		zap.Int("bytes", len(result)))

	if p.min == nil || len(result) == 0 {
		return result, nil
	}
	minified, err := p.min.String(mediaType, result)
	if err != nil {
		return "", fmt.Errorf("unable to minify critical css: %w", err)
	}
	return minified, nil
}

// combine parses loaded stylesheets as one, nil when there is nothing to parse.
func (p *Purger) combine(ids []string) *Stylesheet {
	var combined strings.Builder
	for _, id := range ids {
		content, ok := p.src.Lookup(id)
		if !ok {
			p.log.Debug("Stylesheet was not loaded, skipping", zap.String("id", id))
			continue
		}
		combined.WriteString(content)
		combined.WriteByte('\n')
	}
	if combined.Len() == 0 {
		return nil
	}

	sheet := p.parser.Parse([]byte(combined.String()), strings.Join(ids, ","))
	for _, w := range sheet.Warnings {
		p.log.Debug("Stylesheet problem", zap.String("warning", w))
	}
	return sheet
}

func purgeItems(items []StylesheetItem, tokens Tokens) []StylesheetItem {
	var kept []StylesheetItem
	for _, item := range items {
		switch {
		case item.Rule != nil:
			var selectors []string
			for _, sel := range item.Rule.Selectors {
				if KeepSelector(sel, tokens) {
					selectors = append(selectors, sel)
				}
			}
			if len(selectors) == 0 {
				continue
			}
			kept = append(kept, StylesheetItem{Rule: &Rule{
				Selectors:    selectors,
				Declarations: item.Rule.Declarations,
			}})

		case item.Block != nil && item.Block.IsConditional() && len(item.Block.Raw) == 0:
			nested := purgeItems(item.Block.Items, tokens)
			if len(nested) == 0 {
				continue
			}
			block := *item.Block
			block.Items = nested
			kept = append(kept, StylesheetItem{Block: &block})

		default:
			kept = append(kept, item)
		}
	}
	return kept
}

// KeepSelector reports if selector survives purging: it is safelisted or
// every simple part of it is present in document tokens.
func KeepSelector(sel string, tokens Tokens) bool {
	_, missing := missingPart(sel, tokens)
	return !missing
}

// missingPart returns first part of selector absent from document.
func missingPart(sel string, tokens Tokens) (Part, bool) {
	for _, re := range greedySafelist {
		if re.MatchString(sel) {
			return Part{}, false
		}
	}
	for _, part := range SelectorParts(sel) {
		if !partFound(part, tokens) {
			return part, true
		}
	}
	return Part{}, false
}

func partFound(part Part, tokens Tokens) bool {
	switch part.Kind {
	case PartTag:
		if _, ok := standardTags[part.Name]; ok {
			return true
		}
		return tokens.Has(part.Name)
	case PartClass, PartID:
		return tokens.Has(part.Name)
	case PartAttr:
		return tokens.Has(part.Name) && attrValueFound(part.Op, part.Value, tokens)
	}
	return false
}

func attrValueFound(op, value string, tokens Tokens) bool {
	if len(op) == 0 {
		return true
	}
	if tokens.Has(value) {
		return true
	}
	var match func(string) bool
	switch op {
	case "|=":
		match = func(t string) bool { return strings.HasPrefix(t, value+"-") }
	case "^=":
		match = func(t string) bool { return strings.HasPrefix(t, value) }
	case "$=":
		match = func(t string) bool { return strings.HasSuffix(t, value) }
	case "*=":
		match = func(t string) bool { return strings.Contains(t, value) }
	default:
		return false
	}
	for t := range tokens {
		if match(t) {
			return true
		}
	}
	return false
}
