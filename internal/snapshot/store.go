// Package snapshot captures point-in-time schema state as JSON documents in
// object storage, so past states can be diffed or restored later.
//
// All backends (MinIO, S3, …) implement the Store interface. Callers depend
// only on this package — never on a specific backend package.
//
// Usage:
//
//	cfg := snapshot.DefaultConfig("localhost:9000", "minioadmin", "minioadmin", "migri-snapshots")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	arch := snapshot.NewArchiver(store)
//	key, err := arch.Capture(ctx, database.DialectPostgres, current)
package snapshot

import (
	"context"
	"time"
)

// Store is the object storage contract snapshot backends must implement.
type Store interface {
	// Ping verifies the storage backend is reachable and the configured
	// bucket exists.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the full content of the object at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns metadata for every object whose key starts with prefix,
	// in lexical key order.
	List(ctx context.Context, prefix string) ([]Info, error)
}

// Info describes one stored snapshot object.
type Info struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Config holds all settings needed to connect to a snapshot storage backend.
type Config struct {
	// Endpoint is the host:port of the storage server.
	// Example: "localhost:9000" for local MinIO.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// UseSSL controls whether TLS is used for the connection.
	UseSSL bool

	// Region is used by region-aware backends. Leave empty for MinIO.
	Region string

	// Bucket is the bucket all snapshots are stored in.
	Bucket string
}

// DefaultConfig returns a sensible local-dev config for MinIO.
func DefaultConfig(endpoint, accessKey, secretKey, bucket string) *Config {
	return &Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    false,
		Bucket:    bucket,
	}
}
