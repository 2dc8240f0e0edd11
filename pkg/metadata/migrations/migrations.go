// Package migrations applies the metadata store's schema using
// golang-migrate, replacing the original implementation's one-shot
// db_init.sql load with versioned, repeatable migrations embedded in
// the binary.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"database/sql"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// ApplySQLite runs every pending sqlite migration against db.
func ApplySQLite(db *sql.DB) error {
	return apply(db, sqliteFS, "sqlite", "sqlite3")
}

// ApplyPostgres runs every pending postgres migration against db.
func ApplyPostgres(db *sql.DB) error {
	return apply(db, postgresFS, "postgres", "postgres")
}

func apply(db *sql.DB, embedded embed.FS, dir, driverName string) error {
	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		return fmt.Errorf("migrations: locate embedded %s sources: %w", dir, err)
	}

	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("migrations: open %s source: %w", dir, err)
	}

	var dbDriver migrate.Driver
	switch driverName {
	case "sqlite3":
		dbDriver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "postgres":
		dbDriver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("migrations: unknown driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("migrations: init %s driver: %w", driverName, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driverName, dbDriver)
	if err != nil {
		return fmt.Errorf("migrations: construct migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: apply %s migrations: %w", dir, err)
	}
	return nil
}
