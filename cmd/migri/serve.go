package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/introspect"
	"github.com/koustreak/MigRi/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live schema and migration plan over HTTP",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	intro, err := introspect.New(db, cfg.Dialect, cfg.Migrations.Table)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg.Server.Addr, cfg.Dialect, intro, cfg.Schema, log)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
