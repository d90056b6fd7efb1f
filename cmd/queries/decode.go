package main

import (
	"bytes"
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nanosim/queries"
)

func (a *app) decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Read a tagged tree and print it as query text",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "yaml",
				Usage: "input is YAML instead of JSON",
			},
		},
		Action: a.runDecode,
	}
}

func (a *app) runDecode(_ context.Context, cmd *cli.Command) error {
	source := stdinName

	var buf bytes.Buffer

	if cmd.NArg() > 0 {
		source = cmd.Args().First()

		data, err := os.ReadFile(source) //nolint:gosec // G304: file path from user input is expected
		if err != nil {
			return &queries.InputError{Source: source, Err: err}
		}

		buf.Write(data)
	} else if _, err := buf.ReadFrom(a.stdin); err != nil {
		return &queries.InputError{Source: source, Err: err}
	}

	decode := queries.DecodeJSON
	if cmd.Bool("yaml") {
		decode = queries.DecodeYAML
	}

	q, err := decode(buf.Bytes())
	if err != nil {
		return err
	}

	enc, err := a.encoder(cmd, queries.EncoderText)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := encodeLine(&out, enc, q); err != nil {
		return err
	}

	_, err = a.stdout.Write(out.Bytes())

	return err
}
