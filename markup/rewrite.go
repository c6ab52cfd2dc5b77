package markup

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const deferredLinkFmt = `<link rel="stylesheet" href="%s" media="print" onload="this.media='all'; this.onload=null; this.isLoaded=true">`

// Rewriter produces final page markup: critical css inlined, stylesheets
// loaded without blocking rendering and scripts deferred.
type Rewriter struct {
	log *zap.Logger
}

func NewRewriter(log *zap.Logger) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rewriter{log: log.Named("rewrite")}
}

// Rewrite works on original (not inlined) page. Returned tags have to be
// placed by the caller (see Apply). Links already deferred are left as they
// are.
func (r *Rewriter) Rewrite(page, criticalCSS string) (string, []InjectionTag) {
	var tags []InjectionTag

	if pos := firstStylesheetLink(page); pos >= 0 {
		page = page[:pos] + "<style>" + criticalCSS + "</style>" + page[pos:]
	} else {
		tags = append(tags, InjectionTag{
			Tag:      "style",
			Text:     criticalCSS,
			InjectTo: InjectToHeadPrepend,
		})
	}

	page = r.deferLinks(page, &tags)

	page = scriptRe.ReplaceAllStringFunc(page, func(tag string) string {
		src := scriptRe.FindStringSubmatch(tag)[1]
		typ, ok := attr(tag, "type")
		if !ok || len(typ) == 0 {
			typ = "module"
		}
		tags = append(tags, InjectionTag{
			Tag:      "script",
			Attrs:    map[string]any{"type": typ, "src": src, "defer": true},
			InjectTo: InjectToBody,
		})
		return ""
	})

	r.log.Debug("Page rewritten", zap.Int("tags", len(tags)), zap.Int("critical", len(criticalCSS)))
	return page, tags
}

// deferLinks makes stylesheet links non blocking, noscript fallback is added
// to tags for every one of them.
func (r *Rewriter) deferLinks(page string, tags *[]InjectionTag) string {
	noscript := fallbacks(page)

	var sb strings.Builder
	last := 0
	for _, m := range cssLinkRe.FindAllStringSubmatchIndex(page, -1) {
		if isDeferred(page[m[0]:m[1]]) || within(noscript, m[0]) {
			continue
		}
		href := page[m[2]:m[3]]
		sb.WriteString(page[last:m[0]])
		fmt.Fprintf(&sb, deferredLinkFmt, href)
		last = m[1]

		*tags = append(*tags, InjectionTag{
			Tag: "noscript",
			Children: []InjectionTag{{
				Tag:   "link",
				Attrs: map[string]any{"rel": "stylesheet", "href": href},
			}},
			InjectTo: InjectToBody,
		})
	}
	sb.WriteString(page[last:])
	return sb.String()
}
