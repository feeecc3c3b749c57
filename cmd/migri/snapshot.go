package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/MigRi/internal/config"
	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/snapshot"
	"github.com/koustreak/MigRi/internal/snapshot/minio"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture and list schema snapshots in object storage",
}

var snapshotCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Store the current live schema as a JSON snapshot",
	RunE:  runSnapshotCapture,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots for the configured dialect",
	RunE:  runSnapshotList,
}

func init() {
	snapshotCmd.AddCommand(snapshotCaptureCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
}

func openArchiver(ctx context.Context, cfg *config.Config) (*snapshot.Archiver, snapshot.Store, error) {
	if !cfg.SnapshotsEnabled() {
		return nil, nil, errs.New(errs.ErrKindInvalidInput, "snapshot storage is not configured (set snapshot.endpoint)")
	}
	store, err := minio.New(ctx, &snapshot.Config{
		Endpoint:  cfg.Snapshot.Endpoint,
		AccessKey: cfg.Snapshot.AccessKey,
		SecretKey: cfg.Snapshot.SecretKey,
		UseSSL:    cfg.Snapshot.UseSSL,
		Region:    cfg.Snapshot.Region,
		Bucket:    cfg.Snapshot.Bucket,
	})
	if err != nil {
		return nil, nil, err
	}
	return snapshot.NewArchiver(store), store, nil
}

func runSnapshotCapture(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	current, db, err := currentSchema(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	arch, store, err := openArchiver(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	key, err := arch.Capture(ctx, cfg.Dialect, current)
	if err != nil {
		return err
	}

	log.With().Str("key", key).Int("tables", current.Len()).Logger().Info("snapshot stored")
	fmt.Printf("Stored %s\n", key)
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	arch, store, err := openArchiver(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := arch.List(ctx, cfg.Dialect)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}

	for _, info := range infos {
		fmt.Printf("%s  %d bytes\n", info.Key, info.Size)
	}
	return nil
}
