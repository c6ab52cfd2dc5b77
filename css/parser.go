package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into items keeping enough of the source to
// write them back.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{
		Items:    make([]StylesheetItem, 0),
		Warnings: make([]string, 0),
	}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	sheet.Items, _ = p.parseItems(parser, sheet, css.ErrorGrammar)
	return sheet
}

// parseItems collects items until grammar type end is reached (or input is
// exhausted). Content of at-rules with unknown grammar is returned as raw
// text.
func (p *Parser) parseItems(parser *css.Parser, sheet *Stylesheet, end css.GrammarType) ([]StylesheetItem, string) {
	var (
		items []StylesheetItem
		raw   strings.Builder
	)
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				sheet.Warnings = append(sheet.Warnings, parser.Err().Error())
				p.log.Debug("CSS parse error", zap.Error(parser.Err()))
				continue
			}
			return items, strings.TrimSpace(raw.String())

		case end:
			return items, strings.TrimSpace(raw.String())

		case css.TokenGrammar:
			raw.Write(data)

		case css.BeginRulesetGrammar:
			rule := &Rule{Selectors: splitSelectors(joinTokens(parser.Values()))}
			rule.Declarations = p.parseDeclarations(parser, sheet)
			items = append(items, StylesheetItem{Rule: rule})

		case css.BeginAtRuleGrammar:
			block := &AtBlock{
				Name:    string(data),
				Prelude: joinTokens(parser.Values()),
			}
			block.Items, block.Raw = p.parseItems(parser, sheet, css.EndAtRuleGrammar)
			if len(block.Raw) > 0 && len(block.Items) == 0 && block.IsConditional() {
				// grammar parser does not know this group rule, its body is
				// an ordinary list of rules
				block.Items = p.Parse([]byte(block.Raw)).Items
				block.Raw = ""
			}
			items = append(items, StylesheetItem{Block: block})

		case css.AtRuleGrammar:
			items = append(items, StylesheetItem{AtRule: &AtRule{
				Name:    string(data),
				Prelude: joinTokens(parser.Values()),
			}})

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := declaration(gt, data, parser.Values()); ok {
				items = append(items, StylesheetItem{Declaration: &d})
			}
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser, sheet *Stylesheet) []Declaration {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				sheet.Warnings = append(sheet.Warnings, parser.Err().Error())
				p.log.Debug("CSS declaration error", zap.Error(parser.Err()))
				continue
			}
			return decls

		case css.EndRulesetGrammar:
			return decls

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			if d, ok := declaration(gt, data, parser.Values()); ok {
				decls = append(decls, d)
			}

		case css.BeginAtRuleGrammar:
			// nested at-rules are not supported inside rules
			p.log.Debug("Skipping nested @-rule", zap.ByteString("rule", data))
			p.skipAtRuleBlock(parser)
		}
	}
}

func declaration(gt css.GrammarType, name []byte, values []css.Token) (Declaration, bool) {
	value := joinTokens(values)
	if gt == css.CustomPropertyGrammar {
		value = strings.TrimSpace(value)
	}
	if len(value) == 0 && gt != css.CustomPropertyGrammar {
		return Declaration{}, false
	}
	return Declaration{Property: string(name), Value: value}, true
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				return
			}
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

func joinTokens(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

// splitSelectors splits selector list on commas which are not nested in
// parentheses, brackets or strings.
func splitSelectors(list string) []string {
	var (
		selectors []string
		depth     int
		quote     byte
		start     int
	)
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			if s := strings.TrimSpace(list[start:i]); len(s) > 0 {
				selectors = append(selectors, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(list[start:]); len(s) > 0 {
		selectors = append(selectors, s)
	}
	return selectors
}
