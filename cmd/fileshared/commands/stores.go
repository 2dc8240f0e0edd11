package commands

import (
	"context"
	"fmt"

	"github.com/fileshare/fileshared/internal/config"
	"github.com/fileshare/fileshared/pkg/blob"
	"github.com/fileshare/fileshared/pkg/blob/badgerstore"
	"github.com/fileshare/fileshared/pkg/blob/fsstore"
	"github.com/fileshare/fileshared/pkg/blob/s3store"
	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/postgresstore"
	"github.com/fileshare/fileshared/pkg/metadata/sqlitestore"
)

// openMetadataStore opens the metadata.Store named by cfg.Database.Backend,
// grounded on the teacher's store.New dispatch-by-config-type pattern.
func openMetadataStore(cfg *config.Config) (metadata.Store, error) {
	switch cfg.Database.Backend {
	case "sqlite":
		return sqlitestore.Open(cfg.Database.DSN)
	case "postgres":
		return postgresstore.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database backend: %s", cfg.Database.Backend)
	}
}

// openBlobStore opens the blob.Store named by cfg.Blob.Backend.
func openBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "fs":
		return fsstore.Open(cfg.Blob.FS.Path)
	case "badger":
		return badgerstore.Open(cfg.Blob.Badger.Path)
	case "s3":
		return s3store.Open(ctx, s3store.Config{
			Bucket: cfg.Blob.S3.Bucket,
			Prefix: cfg.Blob.S3.Prefix,
			Region: cfg.Blob.S3.Region,
		})
	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", cfg.Blob.Backend)
	}
}
