package css

import (
	"fmt"
	"strconv"
	"strings"
)

// treeWriter accumulates indented lines.
type treeWriter struct {
	sb strings.Builder
}

func (tw *treeWriter) String() string {
	return tw.sb.String()
}

func (tw *treeWriter) line(depth int, format string, args ...any) {
	for range depth {
		tw.sb.WriteString("  ")
	}
	fmt.Fprintf(&tw.sb, format, args...)
	tw.sb.WriteByte('\n')
}

func (tw *treeWriter) text(depth int, label, value string) {
	if len(value) > 0 {
		value = strconv.Quote(value)
	}
	tw.line(depth, "%s: %s", label, value)
}

// String renders part the way it is written in selector.
func (p Part) String() string {
	switch p.Kind {
	case PartClass:
		return "." + p.Name
	case PartID:
		return "#" + p.Name
	case PartAttr:
		if len(p.Op) == 0 {
			return "[" + p.Name + "]"
		}
		return "[" + p.Name + p.Op + strconv.Quote(p.Value) + "]"
	}
	return p.Name
}

// Explain describes purging decisions for every selector of combined
// stylesheets ids against document. Used in debug reports.
func (p *Purger) Explain(document string, ids []string) string {
	tw := &treeWriter{}
	tw.text(0, "stylesheets", strings.Join(ids, ","))

	sheet := p.combine(ids)
	if sheet == nil {
		tw.line(0, "nothing to purge")
		return tw.String()
	}
	tokens := Extract(document)
	tw.line(0, "tokens: %d", len(tokens))
	for _, w := range sheet.Warnings {
		tw.text(0, "warning", w)
	}
	explainItems(tw, 0, sheet.Items, tokens)
	return tw.String()
}

func explainItems(tw *treeWriter, depth int, items []StylesheetItem, tokens Tokens) {
	for _, item := range items {
		switch {
		case item.Rule != nil:
			tw.line(depth, "rule")
			for _, sel := range item.Rule.Selectors {
				if part, missing := missingPart(sel, tokens); missing {
					tw.line(depth+1, "drop: %q missing %s", sel, part)
				} else {
					tw.text(depth+1, "keep", sel)
				}
			}
		case item.Block != nil && item.Block.IsConditional() && len(item.Block.Raw) == 0:
			tw.text(depth, item.Block.Name, strings.TrimSpace(item.Block.Prelude))
			explainItems(tw, depth+1, item.Block.Items, tokens)
		case item.Block != nil:
			tw.line(depth, "%s kept as is", item.Block.Name)
		case item.AtRule != nil:
			tw.line(depth, "%s kept as is", item.AtRule.Name)
		}
	}
}
