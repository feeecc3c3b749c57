package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/migrate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Lint the migrations directory without touching the database",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	issues, err := migrate.Validate(cfg.Migrations.Dir)
	if err != nil {
		return err
	}
	if len(issues) == 0 {
		fmt.Println("Migrations directory is clean.")
		return nil
	}

	for _, issue := range issues {
		fmt.Println(issue)
	}
	return fmt.Errorf("%d issue(s) found", len(issues))
}
