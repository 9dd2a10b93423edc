// Command mcp exposes the intake pipeline as MCP tools over stdio.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/document-intake/internal/adapters/mcp"
	"github.com/kirillkom/document-intake/internal/bootstrap"
	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/observability/logging"
)

const (
	service = "intake-mcp"
	version = "0.1.0"
)

func main() {
	cfg := config.Load()
	// stdout belongs to the protocol.
	slog.SetDefault(logging.NewStderrLogger(service, cfg.LogLevel, cfg.LogFormat))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Service: service})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	tools := mcpadapter.NewTools(app.Pipeline, app.Similarity)
	if err := server.ServeStdio(tools.Server(service, version)); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
