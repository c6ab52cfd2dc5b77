// Package process drives critical css pipeline over build output.
package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"critcss/config"
	"critcss/critical"
	"critcss/state"
)

// newLauncher is replaced in tests.
var newLauncher = func(cfg *config.BrowserConfig, log *zap.Logger) critical.Launcher {
	return critical.ChromeLauncher(cfg, log)
}

// Run processes every page under build output directory and writes results
// back in place.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	dir := cmd.Args().Get(0)
	if len(dir) == 0 {
		dir = env.Cfg.Critical.OutputDir
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many output directories", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	if fi, err := os.Stat(dir); err != nil {
		return fmt.Errorf("unable to access output directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("output directory is not a directory (%s)", dir)
	}
	env.Cfg.Critical.OutputDir = dir

	if name := cmd.String("command"); len(name) > 0 {
		command, err := config.ParseBuildCommand(name)
		if err != nil {
			return err
		}
		env.Cfg.Critical.Command = command
	}
	env.DryRun = cmd.Bool("dry-run")

	log.Info("Processing starting",
		zap.String("dir", dir),
		zap.Stringer("command", env.Cfg.Critical.Command),
		zap.Int("workers", env.Cfg.Critical.Workers),
		zap.Bool("dry-run", env.DryRun))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, dir, env, log)
}

// process runs plugin lifecycle around pages found in dir.
func process(ctx context.Context, dir string, env *state.LocalEnv, log *zap.Logger) (err error) {
	pages, err := findPages(ctx, dir, log)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}

	bundle := loadBundle(dir, env, log)

	plugin := critical.New(&env.Cfg.Critical, newLauncher(&env.Cfg.Browser, log), env.Rpt, log)
	plugin.BuildStart(ctx, env.Cfg.Critical.Command)
	defer func() {
		err = multierr.Append(err, plugin.BuildEnd())
	}()

	workers := max(env.Cfg.Critical.Workers, 1)
	semaphore := make(chan struct{}, workers)
	var wg sync.WaitGroup

loop:
	for _, rel := range pages {
		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(rel string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := processPage(ctx, plugin, dir, rel, bundle, env, log); err != nil {
				log.Error("Unable to process page", zap.String("file", rel), zap.Error(err))
			}
		}(rel)
	}
	wg.Wait()

	return ctx.Err()
}

// findPages returns html files under dir relative to it in natural order.
func findPages(ctx context.Context, dir string, log *zap.Logger) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Sort(natural.StringSlice(pages))
	return pages, nil
}

// loadBundle reads build manifest if there is one. Manifest is optional.
func loadBundle(dir string, env *state.LocalEnv, log *zap.Logger) *critical.Bundle {
	if len(env.Cfg.Critical.Manifest) == 0 {
		return nil
	}
	path := filepath.Join(dir, env.Cfg.Critical.Manifest)
	bundle, err := critical.LoadBundle(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug("No build manifest", zap.String("path", path))
		} else {
			log.Warn("Unable to use build manifest", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	if err := env.Rpt.StoreCopy("manifest.json", path); err != nil {
		log.Debug("Unable to store build manifest in report", zap.Error(err))
	}
	log.Debug("Build manifest loaded", zap.Int("chunks", len(bundle.Chunks)), zap.Int("stylesheets", bundle.Stylesheets()))
	return bundle
}

// processPage transforms single page. "rel" is page path relative to output
// directory and is what plugin sees as file name.
func processPage(ctx context.Context, plugin *critical.Plugin, dir, rel string, bundle *critical.Bundle, env *state.LocalEnv, log *zap.Logger) (rerr error) {
	path := filepath.Join(dir, rel)
	outcome := critical.OutcomeUnchanged

	log.Debug("Page processing starting", zap.String("file", rel))
	defer func(start time.Time) {
		if r := recover(); r != nil {
			log.Error("Page processing ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("file", rel), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("page processing panic: %v", r)
		} else {
			log.Debug("Page processing completed", zap.Duration("elapsed", time.Since(start)), zap.String("file", rel), zap.Stringer("outcome", outcome))
		}
	}(time.Now())

	p, err := readPage(path)
	if err != nil {
		return err
	}

	res := plugin.TransformPage(ctx, p.html, critical.PageContext{Filename: filepath.ToSlash(rel), Bundle: bundle})
	outcome = res.Outcome
	if res.Outcome != critical.OutcomeSuccess {
		return nil
	}

	out, err := res.Apply()
	if err != nil {
		return fmt.Errorf("unable to inject tags: %w", err)
	}
	if env.DryRun {
		log.Info("Dry run, page is not written", zap.String("file", rel), zap.Int("size", len(out)))
		return nil
	}
	if err := p.write(path, out); err != nil {
		return err
	}
	env.Rpt.Store(filepath.ToSlash(filepath.Join("results", rel)), path)
	return nil
}
