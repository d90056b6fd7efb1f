// Package main provides the queries CLI tool.
package main

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

var version = "dev"

// errReported means the failure was already written to stderr in detail.
var errReported = errors.New("reported")

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
		cfg:    queries.DefaultConfig(),
		diag:   newDiagnostics(stderr),
	}

	err := a.command().Run(ctx, args)

	_ = a.logger.Sync()

	if err != nil {
		if !errors.Is(err, errReported) {
			a.diag.report(err)
		}

		return 1
	}

	return 0
}

// app holds the streams and settings shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger *zap.Logger
	cfg    *queries.Config
	diag   *diagnostics
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "queries",
		Version:   version,
		Usage:     "Parse and inspect simulation queries",
		ArgsUsage: "[files...]",
		Reader:    a.stdin,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output encoding (json, json-pretty, yaml, text)",
				Sources: cli.EnvVars("QUERIES_OUTPUT"),
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a config file (default: nearest .queries.yaml)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log progress to stderr",
			},
		},
		Before: a.before,
		// Exit codes are decided by run.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action:         a.runParse,
		Commands: []*cli.Command{
			a.parseCommand(),
			a.fmtCommand(),
			a.decodeCommand(),
			a.modelCommand(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, cfgPath, err := loadConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}

	a.cfg = cfg

	if cmd.Bool("verbose") {
		logger, err := newLogger(a.stderr, cfg.Log.Level)
		if err != nil {
			return ctx, err
		}

		a.logger = logger
	}

	if cfgPath != "" {
		a.logger.Debug("Loaded config", zap.String("path", cfgPath))
	}

	return ctx, nil
}

// loadConfig reads the explicit config file, or the nearest one walking up
// from the working directory. A missing config yields the defaults.
func loadConfig(explicit string) (*queries.Config, string, error) {
	if explicit != "" {
		cfg, err := queries.LoadConfigFile(explicit)
		if err != nil {
			return nil, "", errors.Wrapf(err, "loading config %s", explicit)
		}

		return cfg, explicit, nil
	}

	path, err := queries.FindConfig(".")
	if errors.Is(err, queries.ErrConfigNotFound) {
		return queries.DefaultConfig(), "", nil
	}

	if err != nil {
		return nil, "", err
	}

	cfg, err := queries.LoadConfigFile(path)
	if err != nil {
		return nil, "", errors.WithHint(
			errors.Wrapf(err, "loading config %s", path),
			"fix or remove the file, or pass --config",
		)
	}

	return cfg, path, nil
}
