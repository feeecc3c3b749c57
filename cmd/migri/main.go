// migri diffs a live database against a declarative YAML schema and turns
// the difference into reversible SQL migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/config"
	"github.com/koustreak/MigRi/internal/database"
	"github.com/koustreak/MigRi/internal/database/mysql"
	"github.com/koustreak/MigRi/internal/database/postgres"
	"github.com/koustreak/MigRi/internal/database/sqlite"
	"github.com/koustreak/MigRi/internal/introspect"
	"github.com/koustreak/MigRi/internal/logger"
	"github.com/koustreak/MigRi/internal/schema"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "migri",
	Short: "Schema diffing and migration tool for PostgreSQL, MySQL, and SQLite",
	Long: `MigRi introspects a live database, diffs it against a declarative YAML
schema file, and generates reversible up/down SQL migrations for the
difference. It can also apply and revert those migrations and serve the
current state over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "migri.yaml", "path of the MigRi config file")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and builds the logger every command uses.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	logger.SetGlobal(log)
	return cfg, log, nil
}

// connect opens the configured database.
func connect(ctx context.Context, cfg *config.Config) (database.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	switch cfg.Dialect {
	case database.DialectPostgres:
		return postgres.New(ctx, dbCfg)
	case database.DialectMySQL:
		return mysql.New(ctx, dbCfg)
	case database.DialectSQLite:
		return sqlite.New(ctx, dbCfg)
	}
	return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
}

// currentSchema connects and introspects the live database.
func currentSchema(ctx context.Context, cfg *config.Config) (*schema.Database, database.DB, error) {
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	intro, err := introspect.New(db, cfg.Dialect, cfg.Migrations.Table)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	current, err := intro.Introspect(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return current, db, nil
}
