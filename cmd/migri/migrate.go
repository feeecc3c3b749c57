package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/migrate"
)

var downSteps int

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration, oldest first",
	RunE:  runUp,
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations, newest first",
	RunE:  runDown,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List every migration and whether it has been applied",
	RunE:  runStatus,
}

func init() {
	downCmd.Flags().IntVarP(&downSteps, "steps", "n", 1, "number of migrations to revert")
}

func newRunner(ctx context.Context) (*migrate.Runner, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	r := migrate.NewRunner(db, cfg.Dialect, cfg.Migrations.Dir, cfg.Migrations.Table, log)
	return r, db.Close, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	r, closeDB, err := newRunner(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	ran, err := r.Up(ctx)
	if err != nil {
		return err
	}
	for _, v := range ran {
		fmt.Printf("applied %s\n", v)
	}
	if len(ran) == 0 {
		fmt.Println("Nothing to apply.")
	}
	return nil
}

func runDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	r, closeDB, err := newRunner(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	reverted, err := r.Down(ctx, downSteps)
	if err != nil {
		return err
	}
	for _, v := range reverted {
		fmt.Printf("reverted %s\n", v)
	}
	if len(reverted) == 0 {
		fmt.Println("Nothing to revert.")
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	r, closeDB, err := newRunner(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	statuses, err := r.Status(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Println("No migrations found.")
		return nil
	}

	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%s  %-30s %s\n", s.Version, s.Name, state)
	}
	return nil
}
