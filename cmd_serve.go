package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"qmskit/internal/server"
)

var serveOpts struct {
	dbPath    string
	port      string
	staticDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a trace database over HTTP",
	Long: `Exposes a generated trace database through a read-only JSON API:
items, relationships, coverage, search, and per-item subgraphs. Optionally
serves a dashboard frontend from a static directory.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveOpts.dbPath, "db", "", "path to the trace database (required)")
	f.StringVar(&serveOpts.port, "port", "8080", "HTTP port")
	f.StringVar(&serveOpts.staticDir, "static", "", "directory for dashboard static files")
	_ = serveCmd.MarkFlagRequired("db")
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := sql.Open("sqlite", serveOpts.dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	app := server.NewApp(db, serveOpts.staticDir, logger)
	srv := &http.Server{
		Addr:         ":" + serveOpts.port,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("db", serveOpts.dbPath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
