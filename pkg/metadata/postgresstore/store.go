// Package postgresstore is the alternate metadata.Store backend for
// deployments that want a shared relational engine instead of a local
// SQLite file. It deliberately keeps the same process-in-memory mutex
// as sqlitestore (via pkg/metadata/gormstore) around every operation:
// the spec's single-writer-at-a-time contract is a correctness
// decision, not an artifact of SQLite's own concurrency limits, so
// postgres's native concurrent-reader support is intentionally not
// exploited here.
package postgresstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/gormstore"
	"github.com/fileshare/fileshared/pkg/metadata/migrations"
)

// Open connects to the Postgres instance named by dsn, runs schema
// migrations, and returns a ready-to-use metadata.Store. dsn is a
// standard libpq connection string; the jackc/pgx/v5 stdlib driver is
// used underneath via gorm.io/driver/postgres.
func Open(dsn string) (metadata.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := migrations.ApplyPostgres(sqlDB); err != nil {
		return nil, err
	}

	return gormstore.New(db)
}
