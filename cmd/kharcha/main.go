// Command kharcha is the terminal client: it submits records and prints
// derived views through the REST API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"kharcha/internal/cli"
	"kharcha/internal/config"
	"kharcha/internal/gateway"
	"kharcha/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	// Command output owns stdout, so logs go to stderr.
	logger := log.New(log.Config{
		Component: log.ComponentGateway,
		Handler:   slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: log.ParseLevel(cfg.LogLevel)}),
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, clientConfig{
		BaseURL:  cfg.APIBaseURL,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
		Gateway:  []gateway.Option{gateway.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout})},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "kharcha:", err)
		os.Exit(1)
	}
}
