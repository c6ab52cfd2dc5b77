package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"critcss/config"
)

// Chrome is Browser implementation driving Chrome over DevTools protocol.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	docs *documentServer
	log  *zap.Logger

	once     sync.Once
	closeErr error
}

// allocatorOptions converts configured command line flags ("--name" or
// "--name=value") into allocator options on top of chromedp defaults.
func allocatorOptions(cfg *config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts,
			chromedp.Flag("headless", false),
			chromedp.Flag("hide-scrollbars", false),
			chromedp.Flag("mute-audio", false))
	}
	if len(cfg.ExecPath) > 0 {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for _, f := range cfg.Flags {
		name, value, found := strings.Cut(strings.TrimLeft(f, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// Launch starts browser process. Browser lives until Close is called or ctx
// is canceled.
func Launch(ctx context.Context, cfg *config.BrowserConfig, log *zap.Logger) (*Chrome, error) {
	log = log.Named("browser")

	docs, err := startDocumentServer(log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvironment, err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	sugar := log.Sugar()
	bctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf))

	// first run actually starts the process
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		allocCancel()
		return nil, multierr.Append(fmt.Errorf("%w: unable to start browser: %w", ErrEnvironment, err), docs.close())
	}

	c := &Chrome{
		ctx:         bctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		docs:        docs,
		log:         log,
	}
	if p := chromedp.FromContext(bctx).Browser.Process(); p != nil {
		log.Debug("Browser started", zap.Int("pid", p.Pid), zap.String("documents", docs.base))
	}
	return c, nil
}

// Close stops browser and document server. Safe to call more than once.
func (c *Chrome) Close() error {
	c.once.Do(func() {
		err := chromedp.Cancel(c.ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		c.cancel()
		c.allocCancel()
		c.closeErr = multierr.Combine(err, c.docs.close())
		c.log.Debug("Browser closed", zap.Error(c.closeErr))
	})
	return c.closeErr
}

// NewPage opens new tab in the shared browser.
func (c *Chrome) NewPage(_ context.Context, width, height int) (Page, error) {
	tctx, cancel := chromedp.NewContext(c.ctx)
	if err := chromedp.Run(tctx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: unable to open page: %w", ErrEnvironment, err)
	}
	return &chromePage{ctx: tctx, cancel: cancel, docs: c.docs, log: c.log}, nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	docs   *documentServer
	log    *zap.Logger
}

// Load navigates tab to the published document and waits for network
// becoming idle in the main frame.
func (p *chromePage) Load(ctx context.Context, html string, timeout time.Duration) error {
	url, remove := p.docs.publish(html)
	defer remove()

	wctx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	// request cancellation from caller as well
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	mainFrame := string(chromedp.FromContext(p.ctx).Target.TargetID)
	idle := make(chan struct{})
	var (
		once   sync.Once
		loader string
	)
	chromedp.ListenTarget(wctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || string(e.FrameID) != mainFrame {
			return
		}
		switch e.Name {
		case "init":
			loader = string(e.LoaderID)
		case "networkIdle":
			if len(loader) > 0 && string(e.LoaderID) == loader {
				once.Do(func() { close(idle) })
			}
		}
	})

	if err := chromedp.Run(wctx, chromedp.Navigate(url)); err != nil {
		return p.loadError(ctx, wctx, timeout, err)
	}
	select {
	case <-idle:
		return nil
	case <-wctx.Done():
		return p.loadError(ctx, wctx, timeout, wctx.Err())
	}
}

func (p *chromePage) loadError(ctx, wctx context.Context, timeout time.Duration, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(wctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: network is still busy after %v", ErrTimeout, timeout)
	}
	return fmt.Errorf("%w: unable to load page: %w", ErrEnvironment, err)
}

// MeasureViewportSkeleton runs measuring script in the tab and applies
// viewport inclusion to its result.
func (p *chromePage) MeasureViewportSkeleton(ctx context.Context, width, height int) (string, error) {
	ectx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var res string
	if err := chromedp.Run(ectx, chromedp.Evaluate(skeletonScript, &res)); err != nil {
		return "", fmt.Errorf("%w: unable to measure page: %w", ErrEnvironment, err)
	}
	m, err := ParseMeasurement(res)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	p.log.Debug("Page measured", zap.Int("elements", len(m.Boxes)))
	return BuildSkeleton(m, width, height), nil
}

// Close closes the tab.
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
