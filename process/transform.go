package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"critcss/critical"
	"critcss/markup"
	"critcss/state"
)

// transformOutput is what external build hook receives.
type transformOutput struct {
	Outcome critical.Outcome      `json:"outcome"`
	HTML    string                `json:"html"`
	Tags    []markup.InjectionTag `json:"tags"`
	Error   string                `json:"error,omitempty"`
}

// Transform runs pipeline for a single page and prints resulting markup and
// injection tags as JSON. Page file is never changed.
func Transform(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("process")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input page has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many pages", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	dir, err := filepath.Abs(env.Cfg.Critical.OutputDir)
	if err != nil {
		return err
	}
	env.Cfg.Critical.OutputDir = dir

	p, err := readPage(src)
	if err != nil {
		return err
	}

	plugin := critical.New(&env.Cfg.Critical, newLauncher(&env.Cfg.Browser, log), env.Rpt, log)
	plugin.BuildStart(ctx, env.Cfg.Critical.Command)
	defer func() {
		err = multierr.Append(err, plugin.BuildEnd())
	}()

	res := plugin.TransformPage(ctx, p.html, critical.PageContext{
		Filename: pageName(dir, src),
		Bundle:   loadBundle(dir, env, log),
	})

	out := transformOutput{Outcome: res.Outcome, HTML: res.HTML, Tags: res.Tags}
	if out.Tags == nil {
		out.Tags = []markup.InjectionTag{}
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return writeJSON(cmd.Root().Writer, out)
}

// pageName is page path relative to output directory, or its base name when
// page lives elsewhere.
func pageName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func writeJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	return nil
}
