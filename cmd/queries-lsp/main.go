// Command queries-lsp is a Language Server Protocol server for query files.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nanosim/queries"
	"github.com/nanosim/queries/lsp"
)

func main() {
	cfg, cfgErr := loadConfig(".")

	// Set up logging to stderr (stdout is for LSP communication)
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(logLevel(cfg.Log.Level))

	logger, err := config.Build()
	if err != nil {
		panic(err)
	}

	defer func() {
		_ = logger.Sync()
	}()

	if cfgErr != nil {
		logger.Warn("Ignoring config", zap.Error(cfgErr))
	}

	logger.Info("Starting queries-lsp server")

	ctx := context.Background()

	err = run(ctx, logger, cfg, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func run(ctx context.Context, logger *zap.Logger, cfg *queries.Config, in io.Reader, out io.Writer) error {
	// Create a JSON-RPC stream connection over stdio
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Create a client to send notifications to the editor
	client := protocol.ClientDispatcher(conn, logger)

	server := lsp.NewServer(client, logger, cfg.FormatOptions())

	conn.Go(ctx, protocol.ServerHandler(server, nil))

	// Wait for the connection to close
	<-conn.Done()

	return conn.Err()
}

// loadConfig returns the nearest config walking up from dir. The defaults
// are returned alongside any error so the server can still start.
func loadConfig(dir string) (*queries.Config, error) {
	cfg, err := queries.LoadConfig(dir)
	if errors.Is(err, queries.ErrConfigNotFound) {
		return queries.DefaultConfig(), nil
	}

	if err != nil {
		return queries.DefaultConfig(), err
	}

	return cfg, nil
}

func logLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}

	return lvl
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	// Close writer if it's closeable
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
