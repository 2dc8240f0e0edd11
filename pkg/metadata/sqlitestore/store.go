// Package sqlitestore is the primary metadata.Store backend: a single
// SQLite file opened in WAL mode through GORM. It is a thin dialector
// shim over pkg/metadata/gormstore, which holds the actual operation
// implementations and the mutex enforcing the spec's single-writer
// discipline.
package sqlitestore

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fileshare/fileshared/pkg/metadata"
	"github.com/fileshare/fileshared/pkg/metadata/gormstore"
	"github.com/fileshare/fileshared/pkg/metadata/migrations"
)

// Open creates (if necessary) and opens the SQLite database at path,
// applying WAL journal mode, running schema migrations, and returning a
// ready-to-use metadata.Store.
func Open(path string) (metadata.Store, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=journal_mode(WAL)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := migrations.ApplySQLite(sqlDB); err != nil {
		return nil, err
	}

	return gormstore.New(db)
}
