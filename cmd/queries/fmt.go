package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

var errNoQueryFiles = errors.New("no .q files found")

// queryFileExt is the extension of query files found when walking directories.
const queryFileExt = ".q"

const filePermissions = 0o600

func (a *app) fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Aliases:   []string{"format"},
		Usage:     "Format query files",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "write result to file instead of stdout",
			},
			&cli.BoolFlag{
				Name:    "check",
				Aliases: []string{"c"},
				Usage:   "check if files are formatted (exit 1 if not)",
			},
			&cli.BoolFlag{
				Name:    "diff",
				Aliases: []string{"d"},
				Usage:   "display diffs instead of rewriting files",
			},
			&cli.BoolFlag{
				Name:    "expand",
				Aliases: []string{"e"},
				Usage:   "break multi-item tuples across lines (overrides config)",
			},
		},
		Action: a.runFmt,
	}
}

func (a *app) runFmt(_ context.Context, cmd *cli.Command) error {
	opts := a.cfg.FormatOptions()
	if cmd.IsSet("expand") {
		opts.Expanded = cmd.Bool("expand")
	}

	mode := fmtMode{
		write: cmd.Bool("write"),
		check: cmd.Bool("check"),
		diff:  cmd.Bool("diff"),
	}
	args := cmd.Args().Slice()

	if len(args) == 0 {
		q, err := a.parseSource(stdinName, nil)
		if err != nil {
			return err
		}

		_, err = io.WriteString(a.stdout, queries.FormatWith(q, opts)+"\n")

		return err
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.WithHint(errNoQueryFiles, "query files end in "+queryFileExt)
	}

	var unformatted []string

	for _, file := range files {
		changed, err := a.formatFile(file, opts, mode)
		if err != nil {
			return err
		}

		if changed {
			unformatted = append(unformatted, file)
		}
	}

	if mode.check && len(unformatted) > 0 {
		_, _ = fmt.Fprintf(a.stderr, "The following files are not formatted:\n")

		for _, f := range unformatted {
			_, _ = fmt.Fprintf(a.stderr, "  %s\n", f)
		}

		return errReported
	}

	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, &queries.InputError{Source: arg, Err: err}
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if !d.IsDir() && strings.HasSuffix(path, queryFileExt) {
				files = append(files, path)
			}

			return nil
		})
		if err != nil {
			return nil, &queries.InputError{Source: arg, Err: err}
		}
	}

	return files, nil
}

// fmtMode selects what happens to a formatted file.
type fmtMode struct {
	write bool
	check bool
	diff  bool
}

// formatFile formats one file and reports whether its content changed.
// In the default mode the formatted text goes to stdout.
func (a *app) formatFile(path string, opts queries.FormatOptions, mode fmtMode) (bool, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- paths come from user args
	if err != nil {
		return false, &queries.InputError{Source: path, Err: err}
	}

	q, err := a.parseSource(path, data)
	if err != nil {
		return false, err
	}

	formatted := queries.FormatWith(q, opts) + "\n"
	changed := string(data) != formatted

	a.logger.Debug("Formatted file", zap.String("path", path), zap.Bool("changed", changed))

	if !mode.write && !mode.check && !mode.diff {
		_, err = io.WriteString(a.stdout, formatted)

		return changed, err
	}

	if !changed {
		return false, nil
	}

	if mode.write {
		err := os.WriteFile(path, []byte(formatted), filePermissions)
		if err != nil {
			return true, errors.Wrapf(err, "writing %s", path)
		}

		_, _ = fmt.Fprintf(a.stdout, "%s\n", path)
	}

	if mode.diff {
		printDiff(a.stdout, path, string(data), formatted)
	}

	return true, nil
}

func printDiff(out io.Writer, path, original, formatted string) {
	_, _ = fmt.Fprintf(out, "diff %s\n", path)
	_, _ = fmt.Fprintf(out, "--- %s\n", path)
	_, _ = fmt.Fprintf(out, "+++ %s\n", path)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")

	// Simple line-by-line diff
	maxLines := max(len(origLines), len(fmtLines))

	for i := range maxLines {
		var origLine, fmtLine string

		if i < len(origLines) {
			origLine = origLines[i]
		}

		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}

		if origLine != fmtLine {
			if origLine != "" {
				_, _ = fmt.Fprintf(out, "-%s\n", origLine)
			}

			if fmtLine != "" {
				_, _ = fmt.Fprintf(out, "+%s\n", fmtLine)
			}
		}
	}
}
