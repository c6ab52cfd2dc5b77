package css

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

type sheets map[string]string

func (s sheets) Lookup(id string) (string, bool) {
	c, ok := s[id]
	return c, ok
}

const emptyDocument = `<html lang="en"><head></head><body></body></html>`

func skeleton(body string) string {
	return `<html lang="en"><head></head><body>` + body + `</body></html>`
}

func TestPurger_KeepsMatchingRules(t *testing.T) {
	src := sheets{"a.css": ".hero{color:red}.unused{color:blue}"}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="hero"></div>`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if got != ".hero{color:red}" {
		t.Errorf("Purge() = %q", got)
	}
}

func TestPurger_StandardSafelist(t *testing.T) {
	src := sheets{"base.css": `html{margin:0}body{margin:0}*,::before,::after{box-sizing:border-box}.x{color:red}`}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	for _, doc := range []string{"", emptyDocument} {
		got, err := p.Purge(doc, []string{"base.css"})
		if err != nil {
			t.Fatalf("Purge() error = %v", err)
		}
		want := `html{margin:0}body{margin:0}*,::before,::after{box-sizing:border-box}`
		if got != want {
			t.Errorf("Purge(%q) =\n%s\nwant\n%s", doc, got, want)
		}
	}
}

func TestPurger_PartialSelectorList(t *testing.T) {
	src := sheets{"a.css": ".hero,.unused,main .hero{color:red}"}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="hero"></div>`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if got != ".hero{color:red}" {
		t.Errorf("Purge() = %q", got)
	}
}

func TestPurger_UtilityClasses(t *testing.T) {
	src := sheets{"tw.css": `.md\:flex{display:flex}.w-\[10px\]{width:10px}.lg\:hidden{display:none}`}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="md:flex"></div>`), []string{"tw.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	want := `.md\:flex{display:flex}.w-\[10px\]{width:10px}`
	if got != want {
		t.Errorf("Purge() =\n%s\nwant\n%s", got, want)
	}
}

func TestPurger_ConditionalBlocks(t *testing.T) {
	src := sheets{"a.css": `@media screen{.hero{padding:0}.unused{padding:1px}}` +
		`@media print{.unused{color:red}}` +
		`@supports (display:grid){@media screen{.hero{display:grid}}}`}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="hero"></div>`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	want := `@media screen{.hero{padding:0}}@supports(display:grid){@media screen{.hero{display:grid}}}`
	if got != want {
		t.Errorf("Purge() =\n%s\nwant\n%s", got, want)
	}
}

func TestPurger_ContainerBlock(t *testing.T) {
	src := sheets{"a.css": `@container (min-width: 400px) { .card { display: grid } .gone { color: red } }`}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="card"></div>`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if !strings.HasPrefix(got, "@container") || !strings.Contains(got, ".card{display:grid}") || strings.Contains(got, "gone") {
		t.Errorf("Purge() = %q", got)
	}
}

func TestPurger_VerbatimAtRules(t *testing.T) {
	css := `@charset "UTF-8";` +
		`@font-face{font-family:"X";src:url(x.woff2)}` +
		`@keyframes spin{from{transform:rotate(0deg)}to{transform:rotate(360deg)}}` +
		`.unused{animation:spin 1s}`
	p := NewPurger(sheets{"a.css": css}, false, zaptest.NewLogger(t))

	got, err := p.Purge(emptyDocument, []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	want := `@charset "UTF-8";@font-face{font-family:"X";src:url(x.woff2)}@keyframes spin{from{transform:rotate(0deg)}to{transform:rotate(360deg)}}`
	if got != want {
		t.Errorf("Purge() =\n%s\nwant\n%s", got, want)
	}
}

func TestPurger_Attributes(t *testing.T) {
	src := sheets{"a.css": `[data-state="open"]{a:1}[data-state="closed"]{b:2}input[type^="te"]{c:3}[hidden]{d:4}`}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div data-state="open"></div><input type="text">`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	want := `[data-state="open"]{a:1}input[type^="te"]{c:3}`
	if got != want {
		t.Errorf("Purge() =\n%s\nwant\n%s", got, want)
	}
}

func TestPurger_OrderOfStylesheets(t *testing.T) {
	src := sheets{"a.css": ".x{color:red}", "b.css": ".x{color:blue}"}
	p := NewPurger(src, false, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<p class="x"></p>`), []string{"b.css", "missing.css", "a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if got != ".x{color:blue}.x{color:red}" {
		t.Errorf("Purge() = %q", got)
	}
}

func TestPurger_EmptyResult(t *testing.T) {
	p := NewPurger(sheets{"a.css": ".a{color:red}"}, false, zaptest.NewLogger(t))

	tests := []struct {
		name string
		ids  []string
	}{
		{"no stylesheets", nil},
		{"nothing matches", []string{"a.css"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Purge(emptyDocument, tt.ids)
			if err != nil {
				t.Fatalf("Purge() error = %v", err)
			}
			if got != "" {
				t.Errorf("Purge() = %q, want empty", got)
			}
		})
	}
}

func TestPurger_Minify(t *testing.T) {
	p := NewPurger(sheets{"a.css": ".hero { margin: 0px; color: #ff0000 }"}, true, zaptest.NewLogger(t))

	got, err := p.Purge(skeleton(`<div class="hero"></div>`), []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if !strings.HasPrefix(got, ".hero{") || strings.Contains(got, "0px") {
		t.Errorf("Purge() = %q, want minified rule", got)
	}
}

// every surviving selector has all its parts in the document
func TestPurger_Soundness(t *testing.T) {
	css := `a{x:1}.nav a{x:2}#main{x:3}.card>.title{x:4}ul li{x:5}.btn:hover{x:6}a:hover{x:11}` +
		`section.hero{x:7}[role=banner]{x:8}.missing .card{x:9}header nav{x:10}`
	doc := skeleton(`<header id="main" role="banner"></header><nav class="nav"></nav><a href="/"></a><div class="card"></div>`)

	p := NewPurger(sheets{"a.css": css}, false, zaptest.NewLogger(t))
	got, err := p.Purge(doc, []string{"a.css"})
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}

	tokens := Extract(doc)
	sheet := NewParser(nil).Parse([]byte(got))
	var kept []string
	for _, item := range sheet.Items {
		if item.Rule == nil {
			t.Fatalf("unexpected item %+v", item)
		}
		for _, sel := range item.Rule.Selectors {
			kept = append(kept, sel)
			for _, part := range SelectorParts(sel) {
				if !partFound(part, tokens) {
					t.Errorf("selector %q kept but %q is not in document", sel, part.Name)
				}
			}
		}
	}

	want := []string{"a", ".nav a", "#main", "a:hover", "[role=banner]", "header nav"}
	if strings.Join(kept, "|") != strings.Join(want, "|") {
		t.Errorf("kept selectors = %q, want %q", kept, want)
	}
}
