package main

import (
	"bytes"
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

const stdinName = "<stdin>"

func (a *app) parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Parse queries and print their tagged tree",
		ArgsUsage: "[files...]",
		Action:    a.runParse,
	}
}

// runParse parses stdin, or each file argument, and prints one encoded tree
// per input. Nothing is written to stdout unless every input parses.
func (a *app) runParse(_ context.Context, cmd *cli.Command) error {
	enc, err := a.encoder(cmd, a.cfg.Output)
	if err != nil {
		return err
	}

	var out bytes.Buffer

	if cmd.NArg() == 0 {
		q, err := a.parseSource(stdinName, nil)
		if err != nil {
			return err
		}

		if err := encodeLine(&out, enc, q); err != nil {
			return err
		}
	}

	for _, path := range cmd.Args().Slice() {
		data, err := os.ReadFile(path) //nolint:gosec // G304: file path from user input is expected
		if err != nil {
			return &queries.InputError{Source: path, Err: err}
		}

		q, err := a.parseSource(path, data)
		if err != nil {
			return err
		}

		if err := encodeLine(&out, enc, q); err != nil {
			return err
		}
	}

	_, err = a.stdout.Write(out.Bytes())

	return err
}

// parseSource parses data, or stdin when data is nil. Syntax errors come
// back as *sourceError so diagnostics can quote the offending line.
func (a *app) parseSource(name string, data []byte) (queries.Query, error) { //nolint:ireturn
	if data == nil {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(a.stdin); err != nil {
			return nil, &queries.InputError{Source: name, Err: err}
		}

		data = buf.Bytes()
	}

	text := string(data)

	q, err := queries.ParseFile(name, text)
	if err != nil {
		return nil, &sourceError{text: text, err: err}
	}

	a.logger.Info("Parsed query",
		zap.String("source", name),
		zap.Stringer("kind", q.Kind()),
		zap.Int("depth", queries.Depth(q)),
	)

	return q, nil
}

// encoder resolves the --output flag, falling back to def.
func (a *app) encoder(cmd *cli.Command, def string) (queries.Encoder, error) { //nolint:ireturn
	name := def
	if cmd.IsSet("output") {
		name = cmd.String("output")
	}

	enc, err := queries.LookupEncoder(name)
	if err != nil {
		return nil, errors.WithHint(err, "pass --output with one of the available encoders")
	}

	return enc, nil
}

// encodeLine encodes q and terminates the output with a newline.
func encodeLine(out *bytes.Buffer, enc queries.Encoder, q queries.Query) error {
	if err := enc.Encode(out, q); err != nil {
		return errors.Wrap(err, "encoding query")
	}

	if !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}

	return nil
}
