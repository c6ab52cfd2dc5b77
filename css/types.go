package css

import (
	"io"
	"strings"
)

// Declaration is a single property declaration. Value keeps tokens as
// produced by the grammar parser, including "!important".
type Declaration struct {
	Property string
	Value    string
}

// Rule represents a qualified rule: selector list and declaration block.
type Rule struct {
	Selectors    []string      // Selector list split on top level commas
	Declarations []Declaration // In source order
}

// AtBlock is an at-rule with a block, e.g. @media, @font-face or @keyframes.
type AtBlock struct {
	Name    string           // Lower-cased at-keyword including "@"
	Prelude string           // Everything between name and "{"
	Items   []StylesheetItem // Nested rules, blocks and declarations
	Raw     string           // Body of at-rules with unknown grammar
}

// IsConditional reports if block is a conditional group rule whose nested
// rules are subject to purging.
func (b *AtBlock) IsConditional() bool {
	switch strings.TrimPrefix(vendorless(b.Name), "@") {
	case "media", "supports", "container", "layer", "document":
		return true
	}
	return false
}

// AtRule is an at-rule without a block, e.g. @import or @charset.
type AtRule struct {
	Name    string
	Prelude string
}

// StylesheetItem is a single item in a stylesheet.
// Exactly one of fields is non-nil.
type StylesheetItem struct {
	Rule        *Rule
	Block       *AtBlock
	AtRule      *AtRule
	Declaration *Declaration // only inside blocks like @font-face or @page
}

// Stylesheet represents a parsed CSS stylesheet.
type Stylesheet struct {
	Items    []StylesheetItem // All top-level items in source order
	Warnings []string         // Parse errors parser recovered from
}

// RulesBySelector returns all top-level rules having given selector.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var matches []Rule
	for _, item := range s.Items {
		if item.Rule == nil {
			continue
		}
		for _, sel := range item.Rule.Selectors {
			if sel == selector {
				matches = append(matches, *item.Rule)
				break
			}
		}
	}
	return matches
}

// WriteTo writes compact stylesheet text to w, implementing io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// String returns the CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	writeItems(&sb, s.Items)
	return sb.String()
}

func writeItems(sb *strings.Builder, items []StylesheetItem) {
	for i, item := range items {
		switch {
		case item.Rule != nil:
			writeRule(sb, item.Rule)
		case item.Block != nil:
			writeBlock(sb, item.Block)
		case item.AtRule != nil:
			sb.WriteString(item.AtRule.Name)
			sb.WriteString(item.AtRule.Prelude)
			sb.WriteByte(';')
		case item.Declaration != nil:
			writeDeclaration(sb, item.Declaration)
			if i < len(items)-1 && items[i+1].Declaration != nil {
				sb.WriteByte(';')
			}
		}
	}
}

func writeRule(sb *strings.Builder, rule *Rule) {
	sb.WriteString(strings.Join(rule.Selectors, ","))
	sb.WriteByte('{')
	for i := range rule.Declarations {
		if i > 0 {
			sb.WriteByte(';')
		}
		writeDeclaration(sb, &rule.Declarations[i])
	}
	sb.WriteByte('}')
}

func writeDeclaration(sb *strings.Builder, d *Declaration) {
	sb.WriteString(d.Property)
	sb.WriteByte(':')
	sb.WriteString(d.Value)
}

func writeBlock(sb *strings.Builder, b *AtBlock) {
	sb.WriteString(b.Name)
	sb.WriteString(b.Prelude)
	sb.WriteByte('{')
	if len(b.Raw) > 0 {
		sb.WriteString(b.Raw)
	} else {
		writeItems(sb, b.Items)
	}
	sb.WriteByte('}')
}

// vendorless drops vendor prefix from at-keyword: @-webkit-keyframes -> @keyframes.
func vendorless(name string) string {
	if strings.HasPrefix(name, "@-") {
		if i := strings.IndexByte(name[2:], '-'); i >= 0 {
			return "@" + name[i+3:]
		}
	}
	return name
}
