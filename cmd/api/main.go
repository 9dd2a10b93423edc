package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/document-intake/internal/adapters/http"
	"github.com/kirillkom/document-intake/internal/bootstrap"
	"github.com/kirillkom/document-intake/internal/config"
	"github.com/kirillkom/document-intake/internal/core/ports"
	"github.com/kirillkom/document-intake/internal/observability/logging"
	"github.com/kirillkom/document-intake/internal/observability/metrics"
)

const service = "intake-api"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewLogger(service, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := httpadapter.LoadOpenAPI(ctx); err != nil {
		fatal("openapi_invalid", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:    service,
		Registerer: httpMetrics.Registry(),
	})
	if err != nil {
		fatal("bootstrap_failed", err)
	}
	defer app.Close()

	var jobs ports.JobSubmitter
	if app.Intake != nil {
		jobs = app.Intake
	}
	router := httpadapter.NewRouter(cfg, app.Pipeline, app.Similarity, jobs).
		WithMetrics(httpMetrics, httpMetrics.Handler())

	server := &http.Server{
		Handler:           httpMetrics.Middleware(service, router.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.HTTPRequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", ":"+cfg.APIPort)
	if err != nil {
		fatal("api_listen_failed", err)
	}
	if cfg.HTTPMaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.HTTPMaxConnections)
	}

	go func() {
		slog.Info("api_listening",
			"port", cfg.APIPort,
			"max_connections", cfg.HTTPMaxConnections,
			"jobs_enabled", jobs != nil,
			"index_backend", cfg.IndexBackend,
		)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("api_server_failed", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}

func fatal(event string, err error) {
	slog.Error(event, "error", err)
	os.Exit(1)
}
