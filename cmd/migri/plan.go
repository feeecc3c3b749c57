package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/config"
	"github.com/koustreak/MigRi/internal/schema"
	"github.com/koustreak/MigRi/internal/sqlgen"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the SQL that would bring the database in line with the schema file",
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	m, changes, err := buildPlan(ctx, cfg)
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		fmt.Println("Database matches the schema file; nothing to do.")
		return nil
	}

	fmt.Printf("-- %d change(s)\n\n-- up\n", len(changes))
	for _, stmt := range m.Up {
		fmt.Println(stmt)
	}
	fmt.Println("\n-- down")
	for _, stmt := range m.Down {
		fmt.Println(stmt)
	}
	return nil
}

// buildPlan introspects, diffs against the schema file, and renders SQL.
func buildPlan(ctx context.Context, cfg *config.Config) (sqlgen.Migration, []schema.Change, error) {
	current, db, err := currentSchema(ctx, cfg)
	if err != nil {
		return sqlgen.Migration{}, nil, err
	}
	defer db.Close()

	desired, err := schema.Load(cfg.Schema)
	if err != nil {
		return sqlgen.Migration{}, nil, err
	}

	gen, err := sqlgen.New(cfg.Dialect)
	if err != nil {
		return sqlgen.Migration{}, nil, err
	}

	changes := schema.Diff(current, desired)
	return gen.Generate(changes), changes, nil
}
