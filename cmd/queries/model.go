package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
	"github.com/nanosim/queries/model"
)

var errNoModelFiles = errors.New("no model files given")

func (a *app) modelCommand() *cli.Command {
	return &cli.Command{
		Name:  "model",
		Usage: "Inspect model files",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Report every malformed query in model files",
				ArgsUsage: "<files...>",
				Action:    a.runModelCheck,
			},
			{
				Name:      "list",
				Usage:     "Print the distinct queries used by model files",
				ArgsUsage: "<files...>",
				Action:    a.runModelList,
			},
		},
	}
}

func (a *app) loadModels(cmd *cli.Command) ([]*model.Model, error) {
	if cmd.NArg() == 0 {
		return nil, errors.WithHint(errNoModelFiles, "usage: queries model "+cmd.Name+" <files...>")
	}

	loader := model.NewLoader()

	var (
		models []*model.Model
		failed bool
	)

	for _, path := range cmd.Args().Slice() {
		m, err := loader.Load(path)
		if err != nil {
			a.diag.report(err)

			failed = true

			continue
		}

		a.logger.Info("Loaded model",
			zap.String("path", m.Path),
			zap.Int("agents", len(m.Agents)),
			zap.Int("functions", len(m.Functions())),
		)

		models = append(models, m)
	}

	if failed {
		return nil, errReported
	}

	return models, nil
}

func (a *app) runModelCheck(_ context.Context, cmd *cli.Command) error {
	models, err := a.loadModels(cmd)
	if err != nil {
		return err
	}

	for _, m := range models {
		_, _ = fmt.Fprintf(a.stdout, "%s: %d agents, %d functions, %d distinct queries\n",
			m.Path, len(m.Agents), len(m.Functions()), len(m.Queries()))
	}

	return nil
}

func (a *app) runModelList(_ context.Context, cmd *cli.Command) error {
	enc, err := a.encoder(cmd, queries.EncoderText)
	if err != nil {
		return err
	}

	models, err := a.loadModels(cmd)
	if err != nil {
		return err
	}

	var all []queries.Query
	for _, m := range models {
		all = append(all, m.Queries()...)
	}

	var out bytes.Buffer

	for _, q := range queries.Unique(all) {
		if err := encodeLine(&out, enc, q); err != nil {
			return err
		}
	}

	_, err = a.stdout.Write(out.Bytes())

	return err
}
