package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"critcss/config"
	"critcss/misc"
	"critcss/process"
	"critcss/state"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "critical css extraction for statically built sites",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and produce report archive with skeletons and critical css of every page"},
		},
		Commands: []*cli.Command{
			{
				Name:         "process",
				Usage:        "Generates critical css for all pages of the build output and rewrites them in place",
				OnUsageError: usageErrorHandler,
				Action:       process.Run,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "run pipeline but do not write pages"},
					&cli.StringFlag{Name: "command",
						Usage: "build tool `COMMAND` pipeline runs under (supported commands: " + strings.Join(config.BuildCommandNames(), ", ") + "), overrides configuration"},
				},
				ArgsUsage: "[OUTPUT_DIR]",
				CustomHelpTemplate: fmt.Sprintf(`%s
OUTPUT_DIR:
    build output directory, all html files under it are processed (symbolic links are not followed)
    if absent - output_dir from configuration

    Stylesheets referenced by pages are resolved against OUTPUT_DIR. Pages for
    which critical css cannot be generated are left untouched.
`, cli.CommandHelpTemplate),
			},
			{
				Name:         "transform",
				Usage:        "Generates critical css for a single page and prints result (JSON)",
				OnUsageError: usageErrorHandler,
				Action:       process.Transform,
				ArgsUsage:    "FILE",
				CustomHelpTemplate: fmt.Sprintf(`%s
FILE:
    html page to transform, page is never changed

Prints object with "outcome", final "html" and injection "tags" to be added
to the page by the build tool. Stylesheets are resolved against output_dir
from configuration.
`, cli.CommandHelpTemplate),
			},
			{
				Name:  "dumpconfig",
				Usage: "Dumps either default or effective configuration (YAML)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Effective configuration is embedded defaults with values from configuration
file applied on top. Use --default to see defaults only.
`, cli.CommandHelpTemplate),
			},
		},
	}
}

func main() {
	// interrupt stops directory walk and browser
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit below skips any deferred function registered after this one
	defer func() {
		stop()
		if err != nil {
			// log may be not ready yet or closed already
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		err  error
		data []byte
		kind = "effective"
	)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", "STDOUT"))
		_, err = os.Stdout.Write(data)
	} else {
		env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", fname))
		err = os.WriteFile(fname, data, 0644)
	}
	if err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
