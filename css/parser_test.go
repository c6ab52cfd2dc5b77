package css_test

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"critcss/css"
)

func TestParser_SimpleRule(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`p { text-indent: 1em; }`))

	if len(sheet.Items) != 1 || sheet.Items[0].Rule == nil {
		t.Fatalf("expected 1 rule, got %+v", sheet.Items)
	}
	rule := sheet.Items[0].Rule
	if !reflect.DeepEqual(rule.Selectors, []string{"p"}) {
		t.Errorf("selectors = %q", rule.Selectors)
	}
	want := []css.Declaration{{Property: "text-indent", Value: "1em"}}
	if !reflect.DeepEqual(rule.Declarations, want) {
		t.Errorf("declarations = %+v, want %+v", rule.Declarations, want)
	}
	if got := sheet.String(); got != "p{text-indent:1em}" {
		t.Errorf("String() = %q", got)
	}
}

func TestParser_GroupedSelectors(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte("h1, h2 , .a > b { color : red ; margin: 0 auto }"))

	rules := sheet.RulesBySelector("h2")
	if len(rules) != 1 {
		t.Fatalf("expected rule for h2, got %d", len(rules))
	}
	if want := []string{"h1", "h2", ".a>b"}; !reflect.DeepEqual(rules[0].Selectors, want) {
		t.Errorf("selectors = %q, want %q", rules[0].Selectors, want)
	}
	if got := sheet.String(); got != "h1,h2,.a>b{color:red;margin:0 auto}" {
		t.Errorf("String() = %q", got)
	}
}

func TestParser_SelectorListWithFunctions(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`:is(h1,h2) a, [data-x="a,b"] { color: red }`))

	rule := sheet.Items[0].Rule
	if rule == nil {
		t.Fatal("expected rule")
	}
	if len(rule.Selectors) != 2 {
		t.Fatalf("selectors = %q, want two", rule.Selectors)
	}
	if !strings.HasPrefix(rule.Selectors[0], ":is(h1,h2)") {
		t.Errorf("first selector = %q", rule.Selectors[0])
	}
	if !strings.HasPrefix(rule.Selectors[1], "[data-x=") {
		t.Errorf("second selector = %q", rule.Selectors[1])
	}
}

func TestParser_Important(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`a { color: red !important }`))
	if got := sheet.String(); got != "a{color:red!important}" {
		t.Errorf("String() = %q", got)
	}
}

func TestParser_CustomProperty(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`:root { --Brand-Color: #fff; }`))

	rule := sheet.Items[0].Rule
	if rule == nil || len(rule.Declarations) != 1 {
		t.Fatalf("unexpected items %+v", sheet.Items)
	}
	d := rule.Declarations[0]
	if d.Property != "--Brand-Color" || d.Value != "#fff" {
		t.Errorf("declaration = %+v", d)
	}
}

func TestParser_MediaBlock(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `@media screen and (max-width: 600px) {
  .a { color: red }
  .b { color: blue }
}`
	sheet := p.Parse([]byte(input))

	if len(sheet.Items) != 1 || sheet.Items[0].Block == nil {
		t.Fatalf("expected single block, got %+v", sheet.Items)
	}
	block := sheet.Items[0].Block
	if block.Name != "@media" {
		t.Errorf("name = %q", block.Name)
	}
	if !block.IsConditional() {
		t.Error("@media must be conditional")
	}
	if len(block.Items) != 2 {
		t.Fatalf("expected 2 nested rules, got %d", len(block.Items))
	}
	want := "@media screen and (max-width:600px){.a{color:red}.b{color:blue}}"
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestParser_FontFace(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `@font-face { font-family: "X"; src: url(x.woff2) format("woff2"); }`
	sheet := p.Parse([]byte(input))

	block := sheet.Items[0].Block
	if block == nil || block.IsConditional() {
		t.Fatalf("unexpected item %+v", sheet.Items[0])
	}
	want := `@font-face{font-family:"X";src:url(x.woff2) format("woff2")}`
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestParser_Keyframes(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `@keyframes spin { from { transform: rotate(0deg) } to { transform: rotate(360deg) } }`
	sheet := p.Parse([]byte(input))

	want := `@keyframes spin{from{transform:rotate(0deg)}to{transform:rotate(360deg)}}`
	if got := sheet.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestParser_AtStatements(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte(`@charset "UTF-8"; @import url(base.css); a{color:red}`))

	if len(sheet.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sheet.Items))
	}
	for i, name := range []string{"@charset", "@import"} {
		if sheet.Items[i].AtRule == nil || sheet.Items[i].AtRule.Name != name {
			t.Errorf("item %d = %+v, want %s", i, sheet.Items[i], name)
		}
	}
	want := `@charset "UTF-8";@import url(base.css);a{color:red}`
	if got := sheet.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParser_Comments(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	sheet := p.Parse([]byte("/* header */\na { color: red }\n/* footer */"))
	if got := sheet.String(); got != "a{color:red}" {
		t.Errorf("String() = %q", got)
	}
}

func TestParser_SourceOrderPreserved(t *testing.T) {
	p := css.NewParser(zap.NewNop())

	input := `.z{a:1} @media print{.y{b:2}} .x{c:3}`
	sheet := p.Parse([]byte(input))

	if len(sheet.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(sheet.Items))
	}
	if sheet.Items[0].Rule == nil || sheet.Items[1].Block == nil || sheet.Items[2].Rule == nil {
		t.Errorf("unexpected order %+v", sheet.Items)
	}
	if got := sheet.String(); got != ".z{a:1}@media print{.y{b:2}}.x{c:3}" {
		t.Errorf("String() = %q", got)
	}
}

func TestStylesheet_WriteTo(t *testing.T) {
	p := css.NewParser(zap.NewNop())
	sheet := p.Parse([]byte(`a { color: red }`))

	var sb strings.Builder
	n, err := sheet.WriteTo(&sb)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if int(n) != sb.Len() || sb.String() != "a{color:red}" {
		t.Errorf("WriteTo() = %d, %q", n, sb.String())
	}
}
