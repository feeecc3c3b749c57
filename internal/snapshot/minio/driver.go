// Package minio provides a MinIO implementation of snapshot.Store.
//
// Usage:
//
//	cfg := snapshot.DefaultConfig("localhost:9000", "minioadmin", "minioadmin", "migri-snapshots")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/MigRi/internal/errs"
	"github.com/koustreak/MigRi/internal/snapshot"
)

// Driver is a MinIO implementation of snapshot.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	bucket string
}

// New connects to MinIO using the provided Config and returns a Driver.
// It calls Ping to validate the connection and bucket before returning.
func New(ctx context.Context, cfg *snapshot.Config) (*Driver, error) {
	if cfg.Bucket == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "snapshot bucket is not configured")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{client: client, bucket: cfg.Bucket}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- snapshot.Store implementation ---

// Ping verifies the server is reachable and the configured bucket exists.
func (d *Driver) Ping(ctx context.Context) error {
	ok, err := d.client.BucketExists(ctx, d.bucket)
	if err != nil {
		return mapError(err, "ping failed")
	}
	if !ok {
		return errs.New(errs.ErrKindNotFound, fmt.Sprintf("snapshot bucket %q does not exist", d.bucket))
	}
	return nil
}

// Close is a no-op for MinIO — the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// Put stores data under key, overwriting any existing object.
func (d *Driver) Put(ctx context.Context, key string, data []byte) error {
	_, err := d.client.PutObject(ctx, d.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return mapError(err, "failed to put snapshot")
	}
	return nil
}

// Get returns the full content of the object at key.
func (d *Driver) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get snapshot")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, "failed to read snapshot")
	}
	return data, nil
}

// List returns metadata for every object under prefix, in lexical key order.
func (d *Driver) List(ctx context.Context, prefix string) ([]snapshot.Info, error) {
	opts := miniogo.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var out []snapshot.Info
	for obj := range d.client.ListObjects(ctx, d.bucket, opts) {
		if obj.Err != nil {
			return nil, mapError(obj.Err, "failed to list snapshots")
		}
		out = append(out, snapshot.Info{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}
