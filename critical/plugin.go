// Package critical computes critical css for generated pages and rewrites
// their markup so that rendering is not blocked by stylesheets and scripts.
package critical

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"critcss/browser"
	"critcss/config"
	"critcss/css"
	"critcss/markup"
	"critcss/stylesheet"
)

// Launcher starts rendering environment.
type Launcher func(ctx context.Context) (browser.Browser, error)

// ChromeLauncher returns Launcher starting headless Chrome.
func ChromeLauncher(cfg *config.BrowserConfig, log *zap.Logger) Launcher {
	return func(ctx context.Context) (browser.Browser, error) {
		b, err := browser.Launch(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// PageContext describes page being transformed.
type PageContext struct {
	Filename string
	Bundle   *Bundle
}

// Plugin is build hook: single browser for the whole build, one tab per page.
type Plugin struct {
	cfg    *config.CriticalConfig
	launch Launcher
	rpt    *config.Report
	log    *zap.Logger

	cache    *stylesheet.Cache
	inliner  *markup.Inliner
	purger   *css.Purger
	rewriter *markup.Rewriter

	mu      sync.RWMutex
	browser browser.Browser
	ended   sync.Once
	endErr  error
}

// New creates plugin. Report may be nil.
func New(cfg *config.CriticalConfig, launch Launcher, rpt *config.Report, log *zap.Logger) *Plugin {
	log = log.Named("critical")
	cache := stylesheet.NewCache(log)
	return &Plugin{
		cfg:      cfg,
		launch:   launch,
		rpt:      rpt,
		log:      log,
		cache:    cache,
		inliner:  markup.NewInliner(cache, log),
		purger:   css.NewPurger(cache, cfg.Minify, log),
		rewriter: markup.NewRewriter(log),
	}
}

// BuildStart launches browser for production builds. Launch failure is
// not fatal: every page will be left unchanged.
func (p *Plugin) BuildStart(ctx context.Context, command config.BuildCommand) {
	if command != config.BuildCommandBuild {
		p.log.Debug("Not a build, critical css is not generated", zap.Stringer("command", command))
		return
	}

	b, err := p.launch(ctx)
	if err != nil {
		p.log.Error("Unable to start browser, pages will not be changed", zap.Error(err))
		return
	}

	p.mu.Lock()
	p.browser = b
	p.mu.Unlock()
}

// BuildEnd closes browser. It is safe to call more than once and when
// browser was never started.
func (p *Plugin) BuildEnd() error {
	p.ended.Do(func() {
		p.mu.Lock()
		b := p.browser
		p.browser = nil
		p.mu.Unlock()

		if b == nil {
			return
		}
		if p.endErr = b.Close(); p.endErr != nil {
			p.log.Warn("Unable to close browser cleanly", zap.Error(p.endErr))
		}
		p.log.Debug("Build finished", zap.Int("stylesheets", p.cache.Len()))
	})
	return p.endErr
}

// TransformPage generates critical css for a single page. Any failure
// results in original page returned unchanged.
func (p *Plugin) TransformPage(ctx context.Context, html string, pc PageContext) (res Result) {
	p.mu.RLock()
	b := p.browser
	p.mu.RUnlock()

	if b == nil {
		return Result{Outcome: OutcomeUnchanged, HTML: html}
	}

	log := p.log.With(zap.String("file", pc.Filename), zap.String("id", uuid.NewString()))
	if markup.Processed(html) {
		log.Info("Page stylesheets are already deferred, page left unchanged")
		return Result{Outcome: OutcomeUnchanged, HTML: html}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Page transformation panicked", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			res = Result{Outcome: OutcomeUnchanged, HTML: html, Err: fmt.Errorf("page transformation panicked: %v", r)}
		}
	}()

	out, tags, err := p.transform(ctx, b, html, pc, log)
	if err != nil {
		log.Warn("Unable to generate critical css, page left unchanged", zap.Error(err))
		return Result{Outcome: OutcomeUnchanged, HTML: html, Err: err}
	}

	log.Info("Critical CSS generated for " + pc.Filename)
	return Result{Outcome: OutcomeSuccess, HTML: out, Tags: tags}
}

func (p *Plugin) transform(ctx context.Context, b browser.Browser, html string, pc PageContext, log *zap.Logger) (string, []markup.InjectionTag, error) {
	inlined, ids, err := p.inliner.Inline(html, p.cfg.OutputDir)
	if err != nil {
		return "", nil, err
	}
	if pc.Bundle != nil {
		for _, id := range ids {
			if !pc.Bundle.Produced(id) {
				log.Debug("Stylesheet is not part of the bundle", zap.String("href", id))
			}
		}
	}

	w, h := p.cfg.Viewport.Width, p.cfg.Viewport.Height
	page, err := b.NewPage(ctx, w, h)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("Unable to close page", zap.Error(err))
		}
	}()

	if err := page.Load(ctx, inlined, p.cfg.Timeout()); err != nil {
		return "", nil, err
	}
	skeleton, err := page.MeasureViewportSkeleton(ctx, w, h)
	if err != nil {
		return "", nil, err
	}
	critical, err := p.purger.Purge(skeleton, ids)
	if err != nil {
		return "", nil, err
	}

	if p.rpt != nil {
		dir := p.rpt.PageDir(slug.Make(pc.Filename))
		p.rpt.StoreData(dir+"skeleton.html", []byte(skeleton))
		p.rpt.StoreData(dir+"critical.css", []byte(critical))
		p.rpt.StoreData(dir+"purge.txt", []byte(p.purger.Explain(skeleton, ids)))
	}

	out, tags := p.rewriter.Rewrite(html, critical)
	log.Debug("Critical css computed",
		zap.Strings("stylesheets", ids),
		zap.Int("skeleton", len(skeleton)),
		zap.Int("critical", len(critical)),
		zap.Int("tags", len(tags)))
	return out, tags, nil
}
