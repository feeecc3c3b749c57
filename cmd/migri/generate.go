package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/migrate"
)

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Write the pending plan as a new up/down migration file pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	m, changes, err := buildPlan(ctx, cfg)
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		fmt.Println("Database matches the schema file; no migration written.")
		return nil
	}

	upPath, downPath, err := migrate.NewWriter(cfg.Migrations.Dir).Write(args[0], m)
	if err != nil {
		return err
	}

	log.With().Int("changes", len(changes)).Str("up", upPath).Logger().Info("migration written")
	fmt.Printf("Wrote %s\nWrote %s\n", upPath, downPath)
	return nil
}
