package main

import (
	"io"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a development style console logger writing to w.
func newLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "invalid log level %q", level),
				"use one of debug, info, warn, error",
			)
		}

		lvl = parsed
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), lvl)

	return zap.New(core, zap.Development()), nil
}
