package markup

import (
	"go.uber.org/zap"
)

// Source provides stylesheet content by its reference.
type Source interface {
	Get(id, outputDir string) (string, error)
}

// Inliner replaces stylesheet links with inline style blocks, so page could
// be laid out without fetching anything.
type Inliner struct {
	src Source
	log *zap.Logger
}

func NewInliner(src Source, log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Inliner{src: src, log: log.Named("inline")}
}

// Inline returns page with every local stylesheet link replaced by its
// content and the list of distinct stylesheet references in order of first
// appearance. Any failure to get stylesheet content aborts inlining.
func (in *Inliner) Inline(page, outputDir string) (string, []string, error) {
	var (
		ids  []string
		seen = make(map[string]struct{})
		err  error
	)

	out := linkTagRe.ReplaceAllStringFunc(page, func(tag string) string {
		if err != nil {
			return tag
		}
		href, ok := stylesheetHref(tag)
		if !ok {
			return tag
		}
		var content string
		if content, err = in.src.Get(href, outputDir); err != nil {
			return tag
		}
		if _, ok := seen[href]; !ok {
			seen[href] = struct{}{}
			ids = append(ids, href)
		}
		return "<style>" + content + "</style>"
	})
	if err != nil {
		return "", nil, err
	}

	in.log.Debug("Stylesheets inlined", zap.Strings("ids", ids))
	return out, ids, nil
}
