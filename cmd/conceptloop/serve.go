package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/conceptloop/internal/server"
)

var portFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ConceptLoop web server",
	Long: `Start the ConceptLoop HTTP server with REST API and WebSocket support.

A small playground is available at the root URL. API endpoints are under
/api, Prometheus metrics under /metrics.

Examples:
  conceptloop serve
  conceptloop serve --port 9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}

	if portFlag > 0 {
		e.cfg.Server.Port = portFlag
	}

	srv := server.New(e.catalog, e.sandbox, e.logger)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		if err := srv.Shutdown(context.Background()); err != nil {
			e.logger.Error("shutdown", "err", err)
		}
	}()

	if err := srv.Start(e.cfg.Addr()); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
